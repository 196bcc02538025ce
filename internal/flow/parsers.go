// Package flow implements the scripted question flow that builds a
// recipient profile from free-text answers.
package flow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/trendella/trendella/internal/models"
)

var (
	ageRe      = regexp.MustCompile(`(\d{1,3})`)
	numberRe   = regexp.MustCompile(`\d+(?:\.\d{1,2})?`)
	currencyRe = regexp.MustCompile(`(?i)(?:^|\s)(usd|dollars|\$)`)
	listSepRe  = regexp.MustCompile(`(?i)[,/]| and `)
)

// parseNumber extracts the first 1-3 digit run from the input. Returns 0 and
// false when no usable number is present.
func parseNumber(input string) (int, bool) {
	match := ageRe.FindStringSubmatch(input)
	if match == nil {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil || value == 0 {
		return 0, false
	}
	return value, true
}

// parseCommaSeparated splits on commas, slashes, or the word "and", trimming
// whitespace and dropping empty entries. Relative order is preserved.
func parseCommaSeparated(input string) []string {
	parts := listSepRe.Split(input, -1)
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// clampBudget enforces min <= max: a reversed pair is swapped, and a zero max
// collapses the range onto min.
func clampBudget(min, max float64) (float64, float64) {
	if min > max && max > 0 {
		return max, min
	}
	if max == 0 {
		return min, min
	}
	return min, max
}

// extractBudget pulls every decimal number out of the input. A single number v
// becomes the range [0.8*v, v]; two or more become [smallest, largest]. The
// currency switches to USD when the text mentions it, otherwise the profile's
// current currency carries over.
func extractBudget(input string, current models.Budget) *models.Budget {
	matches := numberRe.FindAllString(input, -1)
	if len(matches) == 0 {
		return nil
	}
	numbers := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			numbers = append(numbers, v)
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	currency := current.Currency
	if currencyRe.MatchString(input) {
		currency = "USD"
	}

	if len(numbers) == 1 {
		value := numbers[0]
		return &models.Budget{Min: value * 0.8, Max: value, Currency: currency}
	}

	min, max := numbers[0], numbers[0]
	for _, v := range numbers[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	min, max = clampBudget(min, max)
	return &models.Budget{Min: min, Max: max, Currency: currency}
}
