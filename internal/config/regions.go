package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Region is one entry of a region plan.
type Region struct {
	// Location is a postal code or "city, state".
	Location string `yaml:"location"`
	Name     string `yaml:"name,omitempty"`
}

// RegionPlan lists the locations swept by a regional collection.
type RegionPlan struct {
	Regions []Region `yaml:"regions"`
}

// Locations returns the region locations in plan order.
func (p RegionPlan) Locations() []string {
	out := make([]string, 0, len(p.Regions))
	for _, r := range p.Regions {
		out = append(out, r.Location)
	}
	return out
}

// LoadRegionPlan reads a YAML region plan:
//
//	regions:
//	  - location: "10001"
//	    name: New York, NY
func LoadRegionPlan(path string) (RegionPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RegionPlan{}, fmt.Errorf("read region plan: %w", err)
	}
	return ParseRegionPlan(data)
}

// ParseRegionPlan decodes and validates a YAML region plan.
func ParseRegionPlan(data []byte) (RegionPlan, error) {
	var plan RegionPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return RegionPlan{}, fmt.Errorf("parse region plan: %w", err)
	}
	if len(plan.Regions) == 0 {
		return RegionPlan{}, fmt.Errorf("region plan has no regions")
	}

	seen := make(map[string]bool, len(plan.Regions))
	for i, r := range plan.Regions {
		loc := strings.TrimSpace(r.Location)
		if loc == "" {
			return RegionPlan{}, fmt.Errorf("region %d has no location", i+1)
		}
		if seen[loc] {
			return RegionPlan{}, fmt.Errorf("region %q listed twice", loc)
		}
		seen[loc] = true
		plan.Regions[i].Location = loc
	}
	return plan, nil
}
