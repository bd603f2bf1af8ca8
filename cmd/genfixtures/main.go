// Command genfixtures writes a synthetic data root with AIDJEX, ITP "final"
// and ITP "cormat" casts, plus a plots.yaml that exercises every plot kind.
// Deny-listed and down-cast files are included so a run shows skips.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data -casts 12
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/fixture"
)

var (
	aidjexStart = time.Date(1975, time.April, 1, 0, 0, 0, 0, time.UTC)
	itpStart    = time.Date(2006, time.August, 15, 0, 0, 0, 0, time.UTC)
)

const plotsYAML = `plots:
  - name: bigbear-ts
    kind: T-S
    sources: [[AIDJEX, BigBear], [AIDJEX, Snowbird]]
    filters:
      p_range: [100, 400]
  - name: itp-upcasts
    kind: profiles
    sources: [[ITP, 1, final], [ITP, 3, cormat]]
    filters:
      cast_direction: up
  - name: itp-track
    kind: map
    output: html
    sources: [[ITP, 1, final], [ITP, 3, cormat]]
  - name: pressure-hist
    kind: p_hist
    bins: 30
    sources: [[AIDJEX, BigBear], [ITP, 1, final]]
  - name: sampling-dates
    kind: date_hist
    sources: [[AIDJEX, BigBear], [ITP, 3, cormat]]
`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data", "data root to write")
	casts := flag.Int("casts", 12, "casts per instrument")
	samples := flag.Int("samples", 80, "samples per cast")
	plots := flag.String("plots", "plots.yaml", "plot record file to write; empty skips it")
	flag.Parse()

	if *casts < 1 || *samples < 2 {
		flag.Usage()
		return fmt.Errorf("-casts must be >= 1 and -samples >= 2")
	}

	tree := fixture.Tree{}
	if err := build(tree, *casts, *samples); err != nil {
		return err
	}
	if err := tree.Write(*out); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d files under %s", len(tree), *out)

	if *plots != "" {
		if err := os.MkdirAll(filepath.Dir(*plots), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(*plots, []byte(plotsYAML), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", *plots, err)
		}
		log.Printf("wrote plot records: %s", *plots)
	}
	return nil
}

// build fills tree with a drifting track per instrument. Odd ITP casts are
// up-casts and even ones down-casts, as the profilers alternate.
func build(tree fixture.Tree, n, samples int) error {
	const dz = 5.0
	for i := range n {
		num := i + 1
		drift := float64(i) * 0.05

		t := aidjexStart.Add(time.Duration(i) * 6 * time.Hour)
		tree.AddAIDJEX("BigBear", fixture.Synthetic(num, t, -150+drift, 75+drift/2, samples, dz, false))
		tree.AddAIDJEX("Snowbird", fixture.Synthetic(num, t, -145+drift, 74+drift/2, samples, dz, false))

		t = itpStart.Add(time.Duration(i) * 12 * time.Hour)
		up := num%2 == 1
		tree.AddFinal("1", fixture.Synthetic(num, t, -140-drift, 77+drift/3, samples, dz/2, up))
		if err := tree.AddCormat("3", false, fixture.Synthetic(num, t, -135-drift, 78+drift/3, samples, dz/2, up)); err != nil {
			return err
		}
	}

	// Known-bad casts the deny-list must keep out.
	tree.AddAIDJEX("BigBear", fixture.Synthetic(531, aidjexStart, -150, 75, samples, dz, false))
	tree.AddAIDJEX("Snowbird", fixture.Synthetic(443, aidjexStart, -145, 74, samples, dz, false))

	// A legacy container among the modern ones.
	legacy := fixture.Synthetic(n+1, itpStart.Add(time.Duration(n)*12*time.Hour), -135, 78, samples, dz/2, true)
	return tree.AddCormat("3", true, legacy)
}
