// rollupctl is the operator CLI for the rollup engine: an interactive
// shell, a cold-tier Parquet exporter, an ad hoc SQL runner over
// exported files, and a config sanity check.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/rollupdb/rollupdb/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	arity := flag.Int("arity", 1, "series arity")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime)

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("usage: rollupctl [-config path] [-arity n] <repl|export|query|serve-check> [args...]")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	switch args[0] {
	case "repl":
		runRepl(cfg, byte(*arity))
	case "export":
		if err := runExport(cfg, byte(*arity), args[1:]); err != nil {
			log.Fatalf("export: %v", err)
		}
	case "query":
		if err := runQuery(args[1:]); err != nil {
			log.Fatalf("query: %v", err)
		}
	case "serve-check":
		if err := runServeCheck(cfg); err != nil {
			log.Fatalf("serve-check: %v", err)
		}
		log.Printf("config at %s opens and closes cleanly", *cfgPath)
	default:
		log.Fatalf("unknown subcommand %q", args[0])
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return nil, err
	}
	return config.Load(path)
}
