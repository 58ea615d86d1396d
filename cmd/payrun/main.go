/*
main.go - Batch payout run entry point

PURPOSE:
  Loads a scheme file and a dataset envelope, executes one scheme run as
  of a cutoff date, prints the per-agent payouts, and optionally saves
  the full result to SQLite.

COMMAND-LINE FLAGS:
  -scheme      Scheme file, JSON or YAML (required)
  -data        Dataset envelope, JSON (required)
  -asof        Inclusive cutoff date, YYYY-MM-DD (default: today UTC)
  -db          SQLite path to persist the result (default: none)
  -workers     Per-agent parallelism (default: 4)
  -log-format  text or json (default: text)
  -log-level   debug, info, warn, error (default: info)

EXIT CODES:
  0  run completed (recoverable anomalies, if any, are in the result log)
  1  fatal validation or I/O error

EXAMPLES:
  # Run and print payouts
  ./payrun -scheme=q2.yaml -data=may.json -asof=2024-05-31

  # Run and persist
  ./payrun -scheme=q2.yaml -data=may.json -asof=2024-05-31 -db=./payruns.db

SEE ALSO:
  - factory/scheme.go: Scheme file format
  - engine/run.go: Run semantics
  - store/sqlite/sqlite.go: Persistence schema
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/warp/incentive-engine/engine"
	"github.com/warp/incentive-engine/factory"
	"github.com/warp/incentive-engine/logging"
	"github.com/warp/incentive-engine/store/sqlite"
)

func main() {
	var (
		schemePath = flag.String("scheme", "", "scheme file (JSON or YAML)")
		dataPath   = flag.String("data", "", "dataset envelope (JSON)")
		asOf       = flag.String("asof", time.Now().UTC().Format("2006-01-02"), "inclusive cutoff date (YYYY-MM-DD)")
		dbPath     = flag.String("db", "", "SQLite path to persist the result")
		workers    = flag.Int("workers", 4, "per-agent parallelism")
		logFormat  = flag.String("log-format", "text", "log format: text or json")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	log := logging.New(*logFormat, *logLevel)

	if *schemePath == "" || *dataPath == "" {
		fmt.Fprintln(os.Stderr, "usage: payrun -scheme=<file> -data=<file> [-asof=YYYY-MM-DD]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	scheme, err := factory.LoadScheme(*schemePath)
	if err != nil {
		log.Error("load scheme", "path", *schemePath, "error", err)
		os.Exit(1)
	}
	dataset, err := factory.LoadDataset(*dataPath)
	if err != nil {
		log.Error("load dataset", "path", *dataPath, "error", err)
		os.Exit(1)
	}
	log.Info("inputs loaded", "scheme", scheme.ID, "files", len(dataset))

	eng := engine.NewEngine(*workers)
	started := time.Now()
	result, err := eng.Run(scheme, dataset, *asOf)
	if err != nil {
		log.Error("run aborted", "scheme", scheme.ID, "error", err)
		os.Exit(1)
	}

	sum := result.Summary()
	log.Info("run complete",
		"run", result.RunID,
		"agents", sum.Agents,
		"qualified", sum.Qualified,
		"records", sum.Records,
		"excluded", sum.Excluded,
		"total_payout", sum.TotalPayout.StringFixed(2),
		"elapsed", time.Since(started).Round(time.Millisecond))

	printPayouts(result)

	if *dbPath != "" {
		if err := persist(result, *dbPath); err != nil {
			log.Error("persist result", "db", *dbPath, "error", err)
			os.Exit(1)
		}
		log.Info("result saved", "db", *dbPath, "run", result.RunID)
	}
}

func printPayouts(result *engine.Result) {
	agents := make([]engine.AgentID, 0, len(result.AgentPayouts))
	for agent := range result.AgentPayouts {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tCREDITED\tQUALIFIED\tPAYOUT\tRECEIVED")
	for _, agent := range agents {
		ar := result.Agents[agent]
		received := 0
		if dists, ok := result.CreditDistributions[agent]; ok {
			received = len(dists)
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%d\n",
			agent, ar.TotalCredited.StringFixed(2), ar.Qualified, result.AgentPayouts[agent], received)
	}
	w.Flush()
}

func persist(result *engine.Result, dbPath string) error {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(context.Background(), result)
}
