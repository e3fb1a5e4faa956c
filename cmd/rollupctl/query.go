package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/olekukonko/tablewriter"
)

// runQuery executes a raw SQL statement, typically a `read_parquet(...)`
// query against files written by `rollupctl export`, and renders the
// result as a table.
func runQuery(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: query <sql>")
	}
	sqlText := args[0]

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(context.Background(), sqlText)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	return renderRows(os.Stdout, rows)
}

func renderRows(w *os.File, rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(cols)

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = fmt.Sprintf("%v", v)
		}
		table.Append(record)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	table.Render()
	return nil
}
