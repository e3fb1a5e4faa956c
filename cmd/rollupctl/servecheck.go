package main

import (
	"github.com/rollupdb/rollupdb"
	"github.com/rollupdb/rollupdb/internal/config"
)

// runServeCheck opens and closes a store against cfg, surfacing any
// configuration or journal-replay failure without actually serving.
func runServeCheck(cfg *config.Config) error {
	s, err := rollupdb.Open(cfg)
	if err != nil {
		return err
	}
	return s.Close()
}
