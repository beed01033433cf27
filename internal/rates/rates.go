// Package rates loads the shipping and tax rate tables from a YAML
// file at startup. Shipping is looked up by destination pincode zone
// and weight slab; tax is a flat percentage per category with a
// default.
package rates

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Table struct {
	Tax      TaxConfig      `yaml:"tax"`
	Shipping ShippingConfig `yaml:"shipping"`
}

type TaxConfig struct {
	DefaultPercent int64            `yaml:"default_percent"`
	Categories     map[string]int64 `yaml:"categories"`
}

type ShippingConfig struct {
	Zones []Zone `yaml:"zones"`
	Slabs []Slab `yaml:"slabs"`
}

type Zone struct {
	Name            string   `yaml:"name"`
	PincodePrefixes []string `yaml:"pincode_prefixes"`
}

// Slab covers weights up to MaxWeightGrams; a zero MaxWeightGrams means
// unbounded and must be the last slab.
type Slab struct {
	MaxWeightGrams int              `yaml:"max_weight_grams"`
	Rates          map[string]int64 `yaml:"rates"`
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse rates file: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, err
	}

	sort.SliceStable(table.Shipping.Slabs, func(i, j int) bool {
		a, b := table.Shipping.Slabs[i], table.Shipping.Slabs[j]
		if a.MaxWeightGrams == 0 {
			return false
		}
		if b.MaxWeightGrams == 0 {
			return true
		}
		return a.MaxWeightGrams < b.MaxWeightGrams
	})
	return &table, nil
}

func (t *Table) validate() error {
	if t.Tax.DefaultPercent < 0 || t.Tax.DefaultPercent > 100 {
		return fmt.Errorf("tax default_percent must be between 0 and 100")
	}
	for name, percent := range t.Tax.Categories {
		if percent < 0 || percent > 100 {
			return fmt.Errorf("tax percent for category %q must be between 0 and 100", name)
		}
	}
	if len(t.Shipping.Zones) == 0 {
		return fmt.Errorf("at least one shipping zone is required")
	}
	if len(t.Shipping.Slabs) == 0 {
		return fmt.Errorf("at least one shipping slab is required")
	}
	unbounded := false
	for _, slab := range t.Shipping.Slabs {
		if slab.MaxWeightGrams == 0 {
			unbounded = true
		}
		for _, zone := range t.Shipping.Zones {
			if _, ok := slab.Rates[zone.Name]; !ok {
				return fmt.Errorf("slab missing rate for zone %q", zone.Name)
			}
		}
	}
	if !unbounded {
		return fmt.Errorf("an unbounded slab (max_weight_grams: 0) is required")
	}
	return nil
}

// ZoneFor matches the destination pincode against zone prefixes. The
// longest matching prefix wins; a zone with no prefixes is the
// catch-all.
func (t *Table) ZoneFor(pincode string) string {
	pincode = strings.TrimSpace(pincode)
	best := ""
	bestLen := -1
	for _, zone := range t.Shipping.Zones {
		if len(zone.PincodePrefixes) == 0 && bestLen < 0 {
			best = zone.Name
			bestLen = 0
			continue
		}
		for _, prefix := range zone.PincodePrefixes {
			if strings.HasPrefix(pincode, prefix) && len(prefix) > bestLen {
				best = zone.Name
				bestLen = len(prefix)
			}
		}
	}
	return best
}

// ShippingPaise returns the shipping cost for a destination pincode and
// total order weight.
func (t *Table) ShippingPaise(pincode string, weightGrams int) (int64, error) {
	zone := t.ZoneFor(pincode)
	if zone == "" {
		return 0, fmt.Errorf("no shipping zone matches pincode %q", pincode)
	}
	for _, slab := range t.Shipping.Slabs {
		if slab.MaxWeightGrams == 0 || weightGrams <= slab.MaxWeightGrams {
			return slab.Rates[zone], nil
		}
	}
	return 0, fmt.Errorf("no shipping slab covers weight %dg", weightGrams)
}

// TaxPercent returns the rate for a category slug, falling back to the
// default.
func (t *Table) TaxPercent(categorySlug string) int64 {
	if percent, ok := t.Tax.Categories[categorySlug]; ok {
		return percent
	}
	return t.Tax.DefaultPercent
}

// TaxPaise computes tax on the taxable amount, truncating toward zero.
func (t *Table) TaxPaise(taxablePaise int64, categorySlug string) int64 {
	if taxablePaise <= 0 {
		return 0
	}
	return taxablePaise * t.TaxPercent(categorySlug) / 100
}
