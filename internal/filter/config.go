package filter

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
	"gopkg.in/yaml.v3"
)

// Config is a Filter Configuration: the ordered filters plus an optional
// allow-list. In YAML it is a mapping whose key order is application order:
//
//	pressure_range: [260, 280]
//	cast_direction: up
//	white_list:
//	  AIDJEX: {BigBear: [1, 3]}
//	  ITP: {"2": [1, 3]}
type Config struct {
	Filters Chain
	Allow   exclusion.AllowList
}

// ParseConfig decodes a YAML filter mapping.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: filters must be a mapping", node.Line)
	}

	var cfg Config
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if err := cfg.add(key.Value, val); err != nil {
			return fmt.Errorf("line %d: %s: %w", key.Line, key.Value, err)
		}
	}
	*c = cfg
	return nil
}

func (c *Config) add(name string, val *yaml.Node) error {
	switch name {
	case "pressure_range", "p_range":
		return c.addRange(domain.ColumnPressure, val)
	case "temperature_range", "T_range":
		return c.addRange(domain.ColumnTemperature, val)
	case "salinity_range", "S_range":
		return c.addRange(domain.ColumnSalinity, val)
	case "cast_direction":
		var s string
		if err := val.Decode(&s); err != nil {
			return err
		}
		d, err := ParseDirection(s)
		if err != nil {
			return err
		}
		c.Filters = append(c.Filters, NewCastDirection(d))
		return nil
	case "white_list":
		allow, err := decodeAllowList(val)
		if err != nil {
			return err
		}
		c.Allow = allow
		return nil
	default:
		return errors.New("unknown filter")
	}
}

func (c *Config) addRange(col domain.Column, val *yaml.Node) error {
	var bounds []float64
	if err := val.Decode(&bounds); err != nil {
		return err
	}
	if len(bounds) != 2 {
		return fmt.Errorf("want 2 bounds, got %d", len(bounds))
	}
	c.Filters = append(c.Filters, NewRange(col, bounds[0], bounds[1]))
	return nil
}

// decodeAllowList reads {source: {instrument: [profile, ...]}}. Instruments
// and profile numbers may be written as numbers; they are kept as text.
func decodeAllowList(node *yaml.Node) (exclusion.AllowList, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.New("white_list must be a mapping of source to instruments")
	}
	allow := make(exclusion.AllowList)
	for i := 0; i+1 < len(node.Content); i += 2 {
		src := domain.Source(node.Content[i].Value)
		if src != domain.SourceAIDJEX && src != domain.SourceITP {
			return nil, fmt.Errorf("unknown source %q", src)
		}
		insts := node.Content[i+1]
		if insts.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s: instruments must be a mapping", src)
		}
		if allow[src] == nil {
			allow[src] = make(map[string][]string)
		}
		for j := 0; j+1 < len(insts.Content); j += 2 {
			inst, profs := insts.Content[j].Value, insts.Content[j+1]
			if profs.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("%s %s: profiles must be a list", src, inst)
			}
			list := make([]string, 0, len(profs.Content))
			for _, p := range profs.Content {
				list = append(list, p.Value)
			}
			allow[src][inst] = append(allow[src][inst], list...)
		}
	}
	return allow, nil
}
