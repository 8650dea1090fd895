package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/knowledge"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/provenance"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to veggy.db")
	last := flag.Int("last", 20, "show N most recent classifications")
	request := flag.String("request", "", "show all classifications for one request ID")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/veggy.db [--last N] [--request id] [--json]")
		os.Exit(2)
	}

	store, err := knowledge.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var entries []provenance.Entry
	if *request != "" {
		entries, err = provenance.ListByRequest(store.DB(), *request)
	} else {
		entries, err = provenance.ListRecent(store.DB(), *last)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no classifications found")
		return
	}

	if *jsonOut {
		if err := printJSON(entries); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printTable(entries)
}

// #endregion main

// #region output

func printTable(entries []provenance.Entry) {
	fmt.Printf("%-28s  %-5s  %-10s  %-10s  %-8s  %-12s  %s\n",
		"Dish", "Veg", "Confidence", "Method", "Human", "Request", "Time")
	fmt.Printf("%-28s+-%-5s+-%-10s+-%-10s+-%-8s+-%-12s+-%s\n",
		"----------------------------", "-----", "----------", "----------", "--------", "------------", "--------------------")

	for _, e := range entries {
		veg := "no"
		if e.IsVegetarian {
			veg = "yes"
		}
		human := "—"
		if e.HumanReviewed {
			human = "yes"
		}
		fmt.Printf("%-28s  %-5s  %-10.2f  %-10s  %-8s  %-12s  %s\n",
			truncate(e.Dish, 28), veg, e.Confidence, e.Method, human,
			truncate(e.RequestID, 12), e.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}

	latest := entries[0]
	if latest.ChainJSON != "" {
		var chain []menu.LayerTrace
		if err := json.Unmarshal([]byte(latest.ChainJSON), &chain); err == nil {
			fmt.Printf("\nFallback chain (latest, %s):\n", latest.Dish)
			for _, t := range chain {
				fired := "skipped"
				if t.Fired {
					fired = fmt.Sprintf("veg=%v conf=%.2f", t.IsVegetarian, t.Confidence)
				}
				note := ""
				if t.Note != "" {
					note = "  (" + t.Note + ")"
				}
				fmt.Printf("  %-8s  %s%s\n", t.Layer, fired, note)
			}
		}
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// #endregion output
