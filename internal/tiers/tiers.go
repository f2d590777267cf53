// Package tiers loads cumulative tool tiers and resolves them to tool names.
package tiers

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vinodismyname/toolgate/internal/registry"
	"gopkg.in/yaml.v3"
)

//go:embed tiers.yaml
var defaultYAML []byte

// ErrUnknownTier indicates a tier name absent from the tier order.
var ErrUnknownTier = errors.New("tiers: unknown tier")

type file struct {
	Version  int                            `yaml:"version"`
	Order    []string                       `yaml:"order"`
	Services map[string]map[string][]string `yaml:"services"`
}

// Set is a parsed tier definition. Tiers are cumulative: resolving a tier
// includes every tool of the tiers before it in Order.
type Set struct {
	order    []string
	rank     map[string]int
	services map[string]map[string][]string
}

// Default returns the built-in tier set.
func Default() *Set {
	s, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("tiers: embedded definition invalid: %v", err))
	}
	return s
}

// Load reads a tier file from disk.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tier file: %w", err)
	}
	return Parse(data)
}

// Parse decodes tier YAML and checks that every service only uses known tiers.
func Parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding tier file: %w", err)
	}
	if len(f.Order) == 0 {
		return nil, errors.New("tier file has no order")
	}

	rank := make(map[string]int, len(f.Order))
	order := make([]string, 0, len(f.Order))
	for i, t := range f.Order {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			return nil, errors.New("tier file contains empty tier name")
		}
		if _, dup := rank[t]; dup {
			return nil, fmt.Errorf("tier file contains duplicate tier %q", t)
		}
		rank[t] = i
		order = append(order, t)
	}

	services := make(map[string]map[string][]string, len(f.Services))
	for svc, byTier := range f.Services {
		norm := make(map[string][]string, len(byTier))
		for t, tools := range byTier {
			t = strings.ToLower(strings.TrimSpace(t))
			if _, ok := rank[t]; !ok {
				return nil, fmt.Errorf("service %q uses %w %q", svc, ErrUnknownTier, t)
			}
			for _, name := range tools {
				if strings.TrimSpace(name) == "" {
					return nil, fmt.Errorf("service %q tier %q contains empty tool name", svc, t)
				}
			}
			norm[t] = append(norm[t], tools...)
		}
		services[svc] = norm
	}
	return &Set{order: order, rank: rank, services: services}, nil
}

// Order returns the tier names from narrowest to widest.
func (s *Set) Order() []string {
	return append([]string(nil), s.order...)
}

// Services returns the sorted service names.
func (s *Set) Services() []string {
	out := make([]string, 0, len(s.services))
	for svc := range s.services {
		out = append(out, svc)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the sorted, de-duplicated tool names enabled by tier across
// all services.
func (s *Set) Resolve(tier string) ([]string, error) {
	limit, ok := s.rank[strings.ToLower(strings.TrimSpace(tier))]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownTier, tier, strings.Join(s.order, ", "))
	}
	seen := make(map[string]struct{})
	for _, byTier := range s.services {
		for t, tools := range byTier {
			if s.rank[t] > limit {
				continue
			}
			for _, name := range tools {
				seen[strings.TrimSpace(name)] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Enablement combines a tier and an explicit tool list into the catalog's
// enabled set. Neither yields unrestricted; one yields that set; both yield
// their intersection.
func (s *Set) Enablement(tier string, tools []string) (registry.Enablement, error) {
	tier = strings.TrimSpace(tier)
	if tier == "" && len(tools) == 0 {
		return registry.Unrestricted(), nil
	}
	if tier == "" {
		return registry.Restricted(tools...), nil
	}
	names, err := s.Resolve(tier)
	if err != nil {
		return registry.Enablement{}, err
	}
	if len(tools) == 0 {
		return registry.Restricted(names...), nil
	}
	explicit := registry.Restricted(tools...)
	var both []string
	for _, n := range names {
		if explicit.Allows(n) {
			both = append(both, n)
		}
	}
	return registry.Restricted(both...), nil
}
