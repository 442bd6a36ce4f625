package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"attentiond/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to attentiond.db")
	last := flag.Int("last", 20, "show N most recent attention rows")
	sessions := flag.Bool("sessions", false, "show session summaries instead")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/attentiond.db [--last N] [--sessions] [--json]")
		os.Exit(2)
	}

	db, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *sessions {
		err = runSessionMode(db, *last, *jsonOut)
	} else {
		err = runAttentionMode(db, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region attention-mode

func runAttentionMode(db *store.Store, last int, jsonOut bool) error {
	entries, err := db.RecentAttention(last)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Printf("%-20s %-12s %-8s %-6s %-7s %s\n",
		"TIMESTAMP", "STATE", "SCORE", "CONF", "TREND", "SIGNALS")
	for _, e := range entries {
		fmt.Printf("%-20s %-12s %-8.1f %-6.2f %+-7.1f %d\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.State, e.Score, e.Confidence, e.Trend, e.AvailableSignals)
	}
	return nil
}

// #endregion attention-mode

// #region session-mode

func runSessionMode(db *store.Store, last int, jsonOut bool) error {
	rows, err := db.RecentSessions(last)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Printf("%-20s %-18s %-10s %-8s %-8s %s\n",
		"STARTED", "BLOCK", "GOAL", "MEAN", "DONE", "CONTENT")
	for _, r := range rows {
		status := "open"
		if !r.EndedAt.IsZero() {
			status = fmt.Sprintf("%v", r.Completed)
		}
		fmt.Printf("%-20s %-18s %-10s %-8.0f %-8s %d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.BlockName,
			(time.Duration(r.GoalMinutes * float64(time.Minute))).String(),
			r.MeanEngagement*100, status, r.ContentCount)
	}
	return nil
}

// #endregion session-mode
