package rates

import (
	"strings"
	"testing"
)

const sampleTable = `
tax:
  default_percent: 12
  categories:
    ayurvedic-medicines: 5
    cosmetics: 18
shipping:
  zones:
    - name: south
      pincode_prefixes: ["5", "6"]
    - name: local
      pincode_prefixes: ["560"]
    - name: rest
      pincode_prefixes: []
  slabs:
    - max_weight_grams: 0
      rates:
        south: 9000
        local: 7000
        rest: 12000
    - max_weight_grams: 500
      rates:
        south: 4000
        local: 3000
        rest: 6000
    - max_weight_grams: 2000
      rates:
        south: 6000
        local: 5000
        rest: 9000
`

func mustParse(t *testing.T, data string) *Table {
	t.Helper()
	table, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return table
}

func TestZoneFor(t *testing.T) {
	t.Parallel()
	table := mustParse(t, sampleTable)

	tests := []struct {
		pincode string
		want    string
	}{
		{"560001", "local"}, // longest prefix wins over "5"
		{"570001", "south"},
		{"682001", "south"},
		{"110001", "rest"},
		{" 560034 ", "local"},
	}
	for _, tt := range tests {
		if got := table.ZoneFor(tt.pincode); got != tt.want {
			t.Errorf("ZoneFor(%q) = %q, want %q", tt.pincode, got, tt.want)
		}
	}
}

func TestShippingPaise(t *testing.T) {
	t.Parallel()
	table := mustParse(t, sampleTable)

	tests := []struct {
		name        string
		pincode     string
		weightGrams int
		want        int64
	}{
		{"first slab", "560001", 200, 3000},
		{"exact slab boundary", "560001", 500, 3000},
		{"second slab", "560001", 501, 5000},
		{"unbounded slab", "560001", 5000, 7000},
		{"catch-all zone", "110001", 200, 6000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := table.ShippingPaise(tt.pincode, tt.weightGrams)
			if err != nil {
				t.Fatalf("ShippingPaise failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShippingPaiseNoZoneMatch(t *testing.T) {
	t.Parallel()

	// Same table minus the catch-all zone.
	table := mustParse(t, `
tax:
  default_percent: 12
shipping:
  zones:
    - name: south
      pincode_prefixes: ["5"]
  slabs:
    - max_weight_grams: 0
      rates:
        south: 9000
`)
	if _, err := table.ShippingPaise("110001", 200); err == nil {
		t.Fatal("expected an error for an unmatched pincode")
	}
}

func TestTax(t *testing.T) {
	t.Parallel()
	table := mustParse(t, sampleTable)

	if got := table.TaxPercent("ayurvedic-medicines"); got != 5 {
		t.Errorf("TaxPercent(ayurvedic-medicines) = %d, want 5", got)
	}
	if got := table.TaxPercent("unknown-category"); got != 12 {
		t.Errorf("TaxPercent fallback = %d, want 12", got)
	}
	if got := table.TaxPaise(10_000, "cosmetics"); got != 1_800 {
		t.Errorf("TaxPaise(10000, cosmetics) = %d, want 1800", got)
	}
	// Truncation toward zero, never rounding up.
	if got := table.TaxPaise(99, "ayurvedic-medicines"); got != 4 {
		t.Errorf("TaxPaise(99, ayurvedic-medicines) = %d, want 4", got)
	}
	if got := table.TaxPaise(0, "cosmetics"); got != 0 {
		t.Errorf("TaxPaise(0) = %d, want 0", got)
	}
	if got := table.TaxPaise(-500, "cosmetics"); got != 0 {
		t.Errorf("TaxPaise(-500) = %d, want 0", got)
	}
}

func TestParseValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name: "missing unbounded slab",
			data: `
tax:
  default_percent: 10
shipping:
  zones:
    - name: all
      pincode_prefixes: []
  slabs:
    - max_weight_grams: 500
      rates:
        all: 4000
`,
			wantErr: "unbounded slab",
		},
		{
			name: "slab missing zone rate",
			data: `
tax:
  default_percent: 10
shipping:
  zones:
    - name: south
      pincode_prefixes: ["5"]
    - name: rest
      pincode_prefixes: []
  slabs:
    - max_weight_grams: 0
      rates:
        south: 4000
`,
			wantErr: `missing rate for zone "rest"`,
		},
		{
			name: "tax percent out of range",
			data: `
tax:
  default_percent: 120
shipping:
  zones:
    - name: all
      pincode_prefixes: []
  slabs:
    - max_weight_grams: 0
      rates:
        all: 4000
`,
			wantErr: "default_percent",
		},
		{
			name:    "no zones",
			data:    "tax:\n  default_percent: 10\nshipping:\n  slabs:\n    - max_weight_grams: 0\n      rates: {}\n",
			wantErr: "shipping zone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
