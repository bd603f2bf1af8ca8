// Command validate loads every plot record of a plot file against a data
// root and checks the resulting tables for integrity: complete rows,
// exclusion honored, per-profile metadata consistent, direction filtering
// applied and request order preserved.
//
// Usage:
//
//	go run ./cmd/validate -data-root data -plots plots.yaml
//	go run ./cmd/validate -data-root data -plots plots.yaml -plot bigbear-ts
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/arctic-profile-etl/internal/config"
	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
	"github.com/couchcryptid/arctic-profile-etl/internal/filter"
	"github.com/couchcryptid/arctic-profile-etl/internal/format"
	"github.com/couchcryptid/arctic-profile-etl/internal/observability"
	"github.com/couchcryptid/arctic-profile-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	dataRoot := flag.String("data-root", "", "data root containing AIDJEX/ and ITPs/")
	plotsFile := flag.String("plots", "", "plot record file")
	only := flag.String("plot", "", "validate only the named plot record")
	minPoints := flag.Int("min-points", filter.DefaultMinPoints, "minimum rows after direction filtering")
	flag.Parse()

	if *dataRoot == "" || *plotsFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dataRoot, *plotsFile, *only, *minPoints))
}

func run(dataRoot, plotsFile, only string, minPoints int) int {
	fmt.Println("=== Profile Table Integrity Validation ===")
	fmt.Println()

	plots, err := config.LoadPlots(plotsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load plot records: %v\n", err)
		return 1
	}

	deny := exclusion.KnownBad()
	policy := exclusion.NewPolicy(deny)
	logger := sharedobs.NewLogger("warn", "text")
	asm := pipeline.New(os.DirFS(dataRoot), format.NewRegistry(policy), logger, observability.NewMetricsForTesting(), minPoints)

	allPassed := true
	checked := 0
	for _, p := range plots {
		if only != "" && p.Name != only {
			continue
		}
		checked++

		tbl, err := asm.Load(context.Background(), p.Requests(), p.Filters)
		if err != nil {
			fmt.Printf("%s: load failed: %v\n", p.Name, err)
			allPassed = false
			continue
		}

		phases := []*phase{
			validateCompleteness(tbl),
			validateExclusion(tbl, policy, p.Filters.Allow),
			validateProfileMetadata(tbl),
			validateFilters(tbl, p.Filters.Filters, minPoints),
			validateRequestOrder(tbl, p.Requests()),
		}
		if !report(p.Name, tbl, phases) {
			allPassed = false
		}
	}

	if checked == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no plot record named %q\n", only)
		return 1
	}
	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func report(name string, tbl *domain.Table, phases []*phase) bool {
	fmt.Printf("%s (%d rows, %d profiles, run %s)\n", name, tbl.Len(), len(tbl.Profiles()), tbl.RunID)
	passed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			passed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s: %s ---\n", name, p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}
	fmt.Println()
	return passed
}
