package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/filter"
	"gopkg.in/yaml.v3"
)

// Kind selects how a plot record is rendered.
type Kind string

const (
	KindTS       Kind = "T-S"
	KindScatter  Kind = "scatter"
	KindDateHist Kind = "date_hist"
	KindPHist    Kind = "p_hist"
	KindMap      Kind = "map"
	KindProfiles Kind = "profiles"
)

func (k Kind) valid() bool {
	switch k {
	case KindTS, KindScatter, KindDateHist, KindPHist, KindMap, KindProfiles:
		return true
	default:
		return false
	}
}

// Output formats of a rendered plot.
const (
	OutputPNG  = "png"
	OutputHTML = "html"
)

const defaultBins = 50

// SourceSpec is one requested source. In YAML it is either a mapping
// ({source: ITP, instrument: 3, format: cormat}) or the short list form
// ([ITP, 3, cormat] or [AIDJEX, BigBear]).
type SourceSpec struct {
	Source     string
	Instrument string
	Format     string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SourceSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) < 2 || len(node.Content) > 3 {
			return fmt.Errorf("line %d: source list needs 2 or 3 items", node.Line)
		}
		s.Source = node.Content[0].Value
		s.Instrument = node.Content[1].Value
		if len(node.Content) == 3 {
			s.Format = node.Content[2].Value
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			val := node.Content[i+1].Value
			switch key := node.Content[i].Value; key {
			case "source":
				s.Source = val
			case "instrument":
				s.Instrument = val
			case "format":
				s.Format = val
			default:
				return fmt.Errorf("line %d: unknown source field %q", node.Content[i].Line, key)
			}
		}
	default:
		return fmt.Errorf("line %d: source must be a list or a mapping", node.Line)
	}
	return nil
}

// Request converts the entry to a typed source request.
func (s SourceSpec) Request() (domain.SourceRequest, error) {
	if s.Instrument == "" {
		return domain.SourceRequest{}, errors.New("instrument is required")
	}
	switch domain.Source(s.Source) {
	case domain.SourceAIDJEX:
		if s.Format != "" {
			return domain.SourceRequest{}, fmt.Errorf("AIDJEX takes no format, got %q", s.Format)
		}
		return domain.AIDJEX(s.Instrument), nil
	case domain.SourceITP:
		f := domain.Format(s.Format)
		if f != domain.FormatFinal && f != domain.FormatCormat {
			return domain.SourceRequest{}, fmt.Errorf("ITP format must be %q or %q, got %q", domain.FormatFinal, domain.FormatCormat, s.Format)
		}
		return domain.ITP(s.Instrument, f), nil
	default:
		return domain.SourceRequest{}, fmt.Errorf("unknown source %q", s.Source)
	}
}

// Plot is one plot record: what to load, how to filter it and how to draw it.
type Plot struct {
	Name    string        `yaml:"name"`
	Kind    Kind          `yaml:"kind"`
	Sources []SourceSpec  `yaml:"sources"`
	Filters filter.Config `yaml:"filters"`
	X       string        `yaml:"x"`
	Y       string        `yaml:"y"`
	Bins    int           `yaml:"bins"`
	Output  string        `yaml:"output"`

	requests []domain.SourceRequest
}

// Requests returns the validated source requests in file order.
func (p Plot) Requests() []domain.SourceRequest { return p.requests }

// Axes returns the x and y columns. T-S plots are salinity against
// temperature and profile plots temperature against pressure unless
// overridden.
func (p Plot) Axes() (x, y domain.Column, err error) {
	xs, ys := p.X, p.Y
	switch p.Kind {
	case KindTS:
		xs, ys = or(xs, "salt"), or(ys, "temp")
	case KindProfiles:
		xs, ys = or(xs, "temp"), or(ys, "p")
	case KindMap:
		xs, ys = or(xs, "lon"), or(ys, "lat")
	case KindDateHist:
		xs = or(xs, "date")
	case KindPHist:
		xs = or(xs, "p")
	}
	if x, err = domain.ParseColumn(xs); err != nil {
		return "", "", fmt.Errorf("x: %w", err)
	}
	if p.Kind == KindDateHist || p.Kind == KindPHist {
		return x, "", nil
	}
	if y, err = domain.ParseColumn(ys); err != nil {
		return "", "", fmt.Errorf("y: %w", err)
	}
	return x, y, nil
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (p *Plot) validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if !p.Kind.valid() {
		return fmt.Errorf("unknown kind %q", p.Kind)
	}
	if len(p.Sources) == 0 {
		return errors.New("at least one source is required")
	}
	p.requests = make([]domain.SourceRequest, 0, len(p.Sources))
	for i, s := range p.Sources {
		req, err := s.Request()
		if err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		p.requests = append(p.requests, req)
	}
	if _, _, err := p.Axes(); err != nil {
		return err
	}
	if p.Bins == 0 {
		p.Bins = defaultBins
	}
	if p.Bins < 0 {
		return errors.New("bins must be positive")
	}
	switch p.Output {
	case "":
		p.Output = OutputPNG
	case OutputPNG, OutputHTML:
	default:
		return fmt.Errorf("output must be %s or %s", OutputPNG, OutputHTML)
	}
	return nil
}

// ParsePlots decodes and validates a plot-record document:
//
//	plots:
//	  - name: bigbear-ts
//	    kind: T-S
//	    sources: [[AIDJEX, BigBear]]
//	    filters: {p_range: [260, 280], cast_direction: up}
func ParsePlots(data []byte) ([]Plot, error) {
	var doc struct {
		Plots []Plot `yaml:"plots"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Plots) == 0 {
		return nil, errors.New("no plots defined")
	}

	seen := make(map[string]bool, len(doc.Plots))
	for i := range doc.Plots {
		p := &doc.Plots[i]
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("plots[%d] %s: %w", i, p.Name, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("plots[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
	}
	return doc.Plots, nil
}

// LoadPlots reads and validates the plot-record file at path.
func LoadPlots(path string) ([]Plot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	plots, err := ParsePlots(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plots, nil
}
