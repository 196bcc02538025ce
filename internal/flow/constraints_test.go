package flow

import (
	"reflect"
	"testing"

	"github.com/trendella/trendella/internal/models"
)

func TestDeriveConstraints(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		current      models.Constraints
		wantIncludes []string
		wantExcludes []string
		wantShipping *int
	}{
		{
			name:         "shipping window",
			input:        "needs to arrive within 3 days",
			wantIncludes: []string{},
			wantExcludes: []string{},
			wantShipping: intPtr(3),
		},
		{
			name:         "eco keywords",
			input:        "something sustainable for the planet",
			wantIncludes: []string{"eco_friendly"},
			wantExcludes: []string{},
		},
		{
			name:         "category hints",
			input:        "maybe a tech gadget or home decor",
			wantIncludes: []string{"tech", "home"},
			wantExcludes: []string{},
		},
		{
			name:         "jewelry includes and excludes",
			input:        "no jewelry please",
			wantIncludes: []string{"accessories"},
			wantExcludes: []string{"accessories"},
		},
		{
			name:         "merges with current constraints",
			input:        "add some fitness gear",
			current:      models.Constraints{CategoryIncludes: []string{"travel"}, ShippingDaysMax: intPtr(5)},
			wantIncludes: []string{"travel", "fitness"},
			wantExcludes: []string{},
			wantShipping: intPtr(5),
		},
		{
			name:         "dedupes preserving order",
			input:        "fashion outfit with style",
			current:      models.Constraints{CategoryIncludes: []string{"fashion"}},
			wantIncludes: []string{"fashion"},
			wantExcludes: []string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveConstraints(tc.input, tc.current)
			if !reflect.DeepEqual(got.CategoryIncludes, tc.wantIncludes) {
				t.Errorf("includes = %v, want %v", got.CategoryIncludes, tc.wantIncludes)
			}
			if !reflect.DeepEqual(got.CategoryExcludes, tc.wantExcludes) {
				t.Errorf("excludes = %v, want %v", got.CategoryExcludes, tc.wantExcludes)
			}
			switch {
			case tc.wantShipping == nil && got.ShippingDaysMax != nil:
				t.Errorf("shipping = %d, want nil", *got.ShippingDaysMax)
			case tc.wantShipping != nil && got.ShippingDaysMax == nil:
				t.Errorf("shipping = nil, want %d", *tc.wantShipping)
			case tc.wantShipping != nil && *got.ShippingDaysMax != *tc.wantShipping:
				t.Errorf("shipping = %d, want %d", *got.ShippingDaysMax, *tc.wantShipping)
			}
		})
	}
}

func TestDeriveConstraintsDoesNotMutateCurrent(t *testing.T) {
	current := models.Constraints{CategoryIncludes: []string{"travel"}}
	DeriveConstraints("tech gadgets", current)
	if !reflect.DeepEqual(current.CategoryIncludes, []string{"travel"}) {
		t.Errorf("current constraints mutated: %v", current.CategoryIncludes)
	}
}

func intPtr(v int) *int { return &v }
