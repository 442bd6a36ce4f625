package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"attentiond/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to recorded trace JSON")
	jsonOut := flag.Bool("json", false, "output results as JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/trace.json [--json]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	config := replay.DefaultConfig()
	config.Session = fixture.SessionSpec()

	start := time.Now().Truncate(time.Second)
	results, summary := replay.Run(start, fixture.HarnessTicks(), config)

	if *jsonOut {
		printJSON(results, summary)
		return
	}
	printTable(fixture.Description, results, summary)
}

// #endregion main

// #region output

func printTable(description string, results []replay.Result, summary replay.Summary) {
	if description != "" {
		fmt.Printf("# %s\n\n", description)
	}
	fmt.Printf("%-10s %-8s %-12s %-6s %-10s %s\n",
		"OFFSET", "SCORE", "STATE", "AVAIL", "CONF", "TREND")
	for _, r := range results {
		marker := ""
		if r.Transitioned {
			marker = "  <- transition"
		}
		fmt.Printf("%-10s %-8.1f %-12s %-6d %-10.2f %+.1f%s\n",
			r.Offset, r.Score, r.State, r.AvailableCount, r.Confidence, r.Trend, marker)
	}

	fmt.Printf("\n%d ticks, %d transitions, final state %s\n",
		summary.Ticks, summary.Transitions, summary.FinalState)
	if summary.Completion != nil {
		c := summary.Completion
		fmt.Printf("session: complete=%v time_met=%v attention_met=%v can_end=%v (mean %.0f%%)\n",
			c.IsComplete, c.TimeMet, c.AttentionMet, c.CanEnd, c.Metrics.MeanEngagement*100)
	}
}

func printJSON(results []replay.Result, summary replay.Summary) {
	out := struct {
		Results []replay.Result `json:"results"`
		Summary replay.Summary  `json:"summary"`
	}{results, summary}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

// #endregion output
