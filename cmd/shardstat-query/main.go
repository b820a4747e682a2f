// shardstat-query runs ad hoc SQL over the Parquet snapshot files
// shardstatd writes, through an in-memory DuckDB with a `snapshots` view
// over every file in the snapshot directory. With no -query it prints the
// per-counter delta totals; with -dump it bypasses DuckDB and prints one
// file's raw rows.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/23skdu/shardstat/internal/snapshotstore"
)

const defaultQuery = `SELECT name, kind, SUM(delta) AS total
FROM snapshots
GROUP BY name, kind
ORDER BY name`

func main() {
	dir := flag.String("dir", "./data/snapshots", "directory of snapshot parquet files")
	query := flag.String("query", "", "SQL to run against the `snapshots` view (default: sum deltas by counter)")
	dump := flag.String("dump", "", "print one snapshot file's raw rows and exit")
	flag.Parse()

	if *dump != "" {
		if err := dumpFile(*dump); err != nil {
			fmt.Fprintln(os.Stderr, "shardstat-query:", err)
			os.Exit(1)
		}
		return
	}

	q := *query
	if strings.TrimSpace(q) == "" {
		q = defaultQuery
	}
	if err := run(*dir, q); err != nil {
		fmt.Fprintln(os.Stderr, "shardstat-query:", err)
		os.Exit(1)
	}
}

func run(dir, query string) error {
	ctx := context.Background()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open conn: %w", err)
	}
	defer conn.Close()

	glob := filepath.Join(dir, "snapshot-*.parquet")
	matches, err := filepath.Glob(glob)
	if err != nil {
		return fmt.Errorf("glob snapshots: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no snapshot files under %s", dir)
	}

	createView := fmt.Sprintf(
		"CREATE VIEW snapshots AS SELECT * FROM read_parquet('%s')",
		strings.ReplaceAll(glob, "'", "''"),
	)
	if _, err := conn.ExecContext(ctx, createView); err != nil {
		return fmt.Errorf("create snapshots view: %w", err)
	}

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return printRows(rows)
}

func printRows(rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(cols, "\t"))

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		fields := make([]string, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				fields[i] = string(b)
			} else {
				fields[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(w, strings.Join(fields, "\t"))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}

func dumpFile(path string) error {
	rows, err := snapshotstore.ReadAll(path)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ts\tname\tkind\tdelta")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", r.Ts, r.Name, r.Kind, r.Delta)
	}
	return w.Flush()
}
