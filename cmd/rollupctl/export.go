package main

import (
	"fmt"
	"time"

	"github.com/rollupdb/rollupdb"
	"github.com/rollupdb/rollupdb/internal/config"
	"github.com/rollupdb/rollupdb/internal/export"
	"github.com/rollupdb/rollupdb/internal/period"
)

// runExport handles `rollupctl export <key> <start> <end> <periodType> <periodCount> <outPath>`.
func runExport(cfg *config.Config, w byte, args []string) error {
	if len(args) != 6 {
		return fmt.Errorf("usage: export <key> <start-rfc3339> <end-rfc3339> <periodType> <periodCount> <out.parquet>")
	}
	key, startStr, endStr, typeStr, countStr, outPath := args[0], args[1], args[2], args[3], args[4], args[5]

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return fmt.Errorf("parse end: %w", err)
	}
	typ, err := period.ParseType(typeStr)
	if err != nil {
		return err
	}
	var count int
	if _, err := fmt.Sscanf(countStr, "%d", &count); err != nil {
		return fmt.Errorf("parse period count: %w", err)
	}

	s, err := rollupdb.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := export.Export(s, w, key, start.UTC(), end.UTC(), period.Duration{Type: typ, Duration: count}, outPath)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", rows, outPath)
	return nil
}
