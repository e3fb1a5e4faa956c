package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/olekukonko/tablewriter"

	"github.com/rollupdb/rollupdb"
	"github.com/rollupdb/rollupdb/internal/config"
	"github.com/rollupdb/rollupdb/internal/period"
)

// runRepl starts an interactive shell against a store opened from cfg,
// at the fixed series arity w, grounded on the teacher's CLI entry
// point style (flag-configured daemon, stdlib log for diagnostics).
func runRepl(cfg *config.Config, w byte) {
	s, err := rollupdb.Open(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer s.Close()

	r := &repl{store: s, arity: w}
	fmt.Printf("rollupctl %s, arity %d. Type 'help' for commands.\n", Version, w)
	p := prompt.New(r.execute, r.complete, prompt.OptionPrefix("rollupdb> "))
	p.Run()
}

type repl struct {
	store *rollupdb.Store
	arity byte
}

var replCommands = []prompt.Suggest{
	{Text: "raw", Description: "raw <key> <start> <end>"},
	{Text: "rollup", Description: "rollup <key> <start> <end> <periodType> <periodCount>"},
	{Text: "prefixes", Description: "list registered prefix configurations"},
	{Text: "stats", Description: "show store counters"},
	{Text: "help", Description: "show this help"},
	{Text: "exit", Description: "quit the shell"},
}

func (r *repl) complete(d prompt.Document) []prompt.Suggest {
	if d.TextBeforeCursor() != d.GetWordBeforeCursor() {
		return nil
	}
	return prompt.FilterHasPrefix(replCommands, d.GetWordBeforeCursor(), true)
}

func (r *repl) execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	var err error
	switch fields[0] {
	case "exit", "quit":
		os.Exit(0)
	case "help":
		printHelp()
	case "prefixes":
		r.printPrefixes()
	case "stats":
		r.printStats()
	case "raw":
		err = r.runRaw(fields[1:])
	case "rollup":
		err = r.runRollup(fields[1:])
	default:
		fmt.Printf("unknown command %q; type 'help'\n", fields[0])
	}
	if err != nil {
		fmt.Println("error:", err)
	}
}

func printHelp() {
	for _, c := range replCommands {
		fmt.Printf("  %-10s %s\n", c.Text, c.Description)
	}
}

func (r *repl) printPrefixes() {
	rows := r.store.ListPrefixConfigurations()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"prefix", "arity"})
	for _, p := range rows {
		table.Append([]string{p.Prefix, fmt.Sprintf("%d", p.Arity)})
	}
	table.Render()
}

func (r *repl) printStats() {
	stats := r.store.Stats()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"metric", "value"})
	table.Append([]string{"trees", fmt.Sprintf("%d", stats.TreeCount)})
	table.Append([]string{"journal_bytes", fmt.Sprintf("%d", stats.JournalBytes)})
	table.Append([]string{"rollup_cache_hits", fmt.Sprintf("%d", stats.RollupCacheHits)})
	table.Append([]string{"rollup_cache_miss", fmt.Sprintf("%d", stats.RollupCacheMiss)})
	table.Render()
}

func (r *repl) runRaw(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: raw <key> <start-rfc3339> <end-rfc3339>")
	}
	key := args[0]
	start, err := time.Parse(time.RFC3339, args[1])
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, args[2])
	if err != nil {
		return fmt.Errorf("parse end: %w", err)
	}

	rd, err := r.store.Reader(r.arity)
	if err != nil {
		return err
	}
	defer rd.Close()

	it := rd.QueryRaw(key, start.UTC(), end.UTC())
	table := tablewriter.NewWriter(os.Stdout)
	header := []string{"at"}
	for i := 0; i < int(r.arity); i++ {
		header = append(header, fmt.Sprintf("axis%d", i))
	}
	table.SetHeader(header)

	ctx := context.Background()
	for {
		pt, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row := []string{period.FromTicks(pt.At).Format(time.RFC3339)}
		for _, v := range pt.Values {
			row = append(row, fmt.Sprintf("%g", v))
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

func (r *repl) runRollup(args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("usage: rollup <key> <start-rfc3339> <end-rfc3339> <periodType> <periodCount>")
	}
	key := args[0]
	start, err := time.Parse(time.RFC3339, args[1])
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, args[2])
	if err != nil {
		return fmt.Errorf("parse end: %w", err)
	}
	typ, err := period.ParseType(args[3])
	if err != nil {
		return err
	}
	var count int
	if _, err := fmt.Sscanf(args[4], "%d", &count); err != nil {
		return fmt.Errorf("parse period count: %w", err)
	}

	rd, err := r.store.Reader(r.arity)
	if err != nil {
		return err
	}
	defer rd.Close()

	it, err := rd.QueryRollup(key, start.UTC(), end.UTC(), period.Duration{Type: typ, Duration: count})
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	header := []string{"start_at"}
	for i := 0; i < int(r.arity); i++ {
		header = append(header, fmt.Sprintf("axis%d_ohlcvs", i))
	}
	table.SetHeader(header)

	ctx := context.Background()
	for {
		rng, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row := []string{period.FromTicks(rng.StartAt).Format(time.RFC3339)}
		for _, v := range rng.Values {
			row = append(row, fmt.Sprintf("o=%g h=%g l=%g c=%g v=%g s=%g", v.Open, v.High, v.Low, v.Close, v.Volume, v.Sum))
		}
		table.Append(row)
	}
	table.Render()
	return nil
}
