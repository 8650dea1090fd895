package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/config"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/evidence"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/keyword"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/knowledge"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/llm"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/provenance"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/reconcile"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/review"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/vecindex"
)

// #region main
func main() {
	input := flag.String("input", "", "path to JSON file of dish candidates (default: stdin)")
	noLLM := flag.Bool("no-llm", false, "skip the model layer")
	noRAG := flag.Bool("no-rag", false, "skip the retrieval layer")
	flag.Parse()

	cfg := config.FromEnv()

	store, err := knowledge.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	// Seed the knowledge base on first run
	n, err := store.CountEntries()
	if err != nil {
		log.Fatalf("failed to count entries: %v", err)
	}
	if n == 0 {
		log.Println("Empty knowledge base, seeding defaults...")
		if err := store.Seed(knowledge.DefaultBase()); err != nil {
			log.Fatalf("failed to seed knowledge base: %v", err)
		}
	}
	base, err := store.LoadBase()
	if err != nil {
		log.Fatalf("failed to load knowledge base: %v", err)
	}

	candidates, err := readCandidates(*input)
	if err != nil {
		log.Fatalf("failed to read candidates: %v", err)
	}

	ctx := context.Background()
	rec := buildReconciler(ctx, cfg, base, store, *noRAG, *noLLM)

	requestID := fmt.Sprintf("req-%d", time.Now().Unix())
	results, err := rec.Reconcile(ctx, requestID, candidates)
	if err != nil {
		log.Fatalf("classification failed: %v", err)
	}

	mgr := review.NewManager(review.NewJSONLFeedback(cfg.FeedbackPath), cfg.Review)
	session := mgr.Create(results)
	printResults(results)

	if session.Status == review.StatusResolved {
		res, _ := mgr.ApplyCorrections(session.RequestID, nil)
		printResolution(res)
		return
	}

	fmt.Printf("\n%d item(s) need review:\n", len(session.Uncertain))
	for _, r := range session.Uncertain {
		fmt.Printf("  %s (%.2f confidence, machine says vegetarian=%v)\n",
			r.Candidate.Name, r.Confidence, r.IsVegetarian)
	}

	corrections := promptCorrections(session.Uncertain)
	res, err := mgr.ApplyCorrections(session.RequestID, corrections)
	if err != nil {
		log.Fatalf("failed to apply corrections: %v", err)
	}
	printResolution(res)
}

// #endregion main

// #region wiring
func buildReconciler(ctx context.Context, cfg config.Config, base knowledge.Base, store *knowledge.Store, noRAG, noLLM bool) *reconcile.Reconciler {
	matcher := keyword.NewMatcher(base.Keywords)

	var evLayer reconcile.EvidenceLayer
	if !noRAG {
		var index vecindex.Index
		if cfg.IndexURL != "" {
			index = vecindex.NewRemote(cfg.IndexURL, 10*time.Second)
		} else {
			embedder := vecindex.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel, 30*time.Second)
			local, err := vecindex.NewLocal("", embedder)
			if err != nil {
				log.Printf("local index unavailable: %v", err)
			} else {
				if err := local.Upsert(ctx, base.Entries); err != nil {
					log.Printf("index seed failed: %v", err)
				}
				index = local
			}
		}
		if index != nil {
			evLayer = evidence.NewRetriever(index, cfg.Evidence)
		}
	}

	var modelLayer reconcile.ModelLayer
	if !noLLM {
		primary := llm.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, cfg.LLM.Timeout)
		secondary := llm.NewOpenAIProvider("", cfg.OpenAIKey, cfg.OpenAIModel, cfg.LLM.Timeout)
		provider, err := llm.Select(ctx, primary, secondary)
		if err != nil {
			log.Printf("model layer disabled: %v", err)
		} else {
			modelLayer = llm.NewClassifier(provider, cfg.LLM)
		}
	}

	return reconcile.NewReconciler(matcher, evLayer, modelLayer, provenance.NewRecorder(store.DB()), cfg.Reconcile)
}

// #endregion wiring

// #region io
func readCandidates(path string) ([]menu.DishCandidate, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = readAllStdin()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var candidates []menu.DishCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("parse candidates json: %w", err)
	}
	return candidates, nil
}

func readAllStdin() ([]byte, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	return []byte(sb.String()), scanner.Err()
}

func printResults(results []menu.AggregateResult) {
	fmt.Printf("\n%-30s  %-5s  %-10s  %-10s  %s\n", "Dish", "Veg", "Confidence", "Method", "Reason")
	for _, r := range results {
		veg := "no"
		if r.IsVegetarian {
			veg = "yes"
		}
		fmt.Printf("%-30s  %-5s  %-10.2f  %-10s  %s\n",
			truncate(r.Candidate.Name, 30), veg, r.Confidence, r.Method, truncate(r.Reason, 60))
	}
}

func printResolution(res review.Resolution) {
	fmt.Printf("\nVegetarian items: %d, corrections applied: %d\n", len(res.VegetarianItems), res.Applied)
	for _, r := range res.VegetarianItems {
		fmt.Printf("  %-30s  %8.2f\n", truncate(r.Candidate.Name, 30), r.Candidate.Price)
	}
	fmt.Printf("Total: %.2f\n", res.TotalSum)
}

func promptCorrections(uncertain []menu.AggregateResult) []menu.Correction {
	var corrections []menu.Correction
	scanner := bufio.NewScanner(os.Stdin)
	for _, r := range uncertain {
		fmt.Printf("Is %q vegetarian? [y/n/skip] ", r.Candidate.Name)
		if !scanner.Scan() {
			break
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			corrections = append(corrections, menu.Correction{Name: r.Candidate.Name, IsVegetarian: true})
		case "n", "no":
			corrections = append(corrections, menu.Correction{Name: r.Candidate.Name, IsVegetarian: false})
		}
	}
	return corrections
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// #endregion io
