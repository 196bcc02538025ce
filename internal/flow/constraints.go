package flow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/trendella/trendella/internal/models"
)

var (
	shippingRe  = regexp.MustCompile(`(\d+)\s*(?:day|days)`)
	ecoRe       = regexp.MustCompile(`eco|sustain|planet`)
	noJewelryRe = regexp.MustCompile(`no\s+jewelry|avoid\s+jewelry`)
)

// categoryHints maps keyword patterns to recommendation category buckets.
var categoryHints = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`tech|gadget|device`), "tech"},
	{regexp.MustCompile(`fitness|gym|workout`), "fitness"},
	{regexp.MustCompile(`beauty|skincare|makeup`), "beauty"},
	{regexp.MustCompile(`fashion|outfit|style`), "fashion"},
	{regexp.MustCompile(`home|decor|apartment|kitchen`), "home"},
	{regexp.MustCompile(`travel|trip|adventure`), "travel"},
	{regexp.MustCompile(`jewelry|ring|necklace|earring`), "accessories"},
	{regexp.MustCompile(`plant|green|garden|terrarium`), "plants"},
}

// DeriveConstraints converts a refine-mode instruction into recommendation
// filter constraints: a shipping window ("<N> days"), eco-friendly keywords,
// category keyword buckets, and an explicit jewelry exclusion. List fields are
// deduplicated preserving first-seen order.
func DeriveConstraints(input string, current models.Constraints) models.Constraints {
	constraints := models.Constraints{
		CategoryIncludes: append([]string(nil), current.CategoryIncludes...),
		CategoryExcludes: append([]string(nil), current.CategoryExcludes...),
		ShippingDaysMax:  current.ShippingDaysMax,
	}
	lowered := strings.ToLower(input)

	if match := shippingRe.FindStringSubmatch(lowered); match != nil {
		if days, err := strconv.Atoi(match[1]); err == nil {
			constraints.ShippingDaysMax = &days
		}
	}

	if ecoRe.MatchString(lowered) {
		constraints.CategoryIncludes = append(constraints.CategoryIncludes, "eco_friendly")
	}

	for _, hint := range categoryHints {
		if hint.re.MatchString(lowered) {
			constraints.CategoryIncludes = append(constraints.CategoryIncludes, hint.category)
		}
	}

	if noJewelryRe.MatchString(lowered) {
		constraints.CategoryExcludes = append(constraints.CategoryExcludes, "accessories")
	}

	constraints.CategoryIncludes = dedupe(constraints.CategoryIncludes)
	constraints.CategoryExcludes = dedupe(constraints.CategoryExcludes)
	return constraints
}

// dedupe removes duplicates keeping the first occurrence of each value.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
