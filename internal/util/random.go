// Package util provides utility functions for the Trendella application.
package util

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// base36Chars is the alphabet for session id suffixes.
const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

// SessionIDSuffixLength is the length of the random suffix in session ids.
const SessionIDSuffixLength = 7

// GenerateRandomBase36 generates a random base36 string of the specified length.
// Uses math/rand/v2; the ids are identifiers, not secrets.
func GenerateRandomBase36(length int) string {
	if length <= 0 {
		return ""
	}

	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		builder.WriteByte(base36Chars[rand.IntN(len(base36Chars))])
	}
	return builder.String()
}

// GenerateSessionID generates a session id of the form
// "session_{epoch_millis}_{base36}".
func GenerateSessionID() string {
	return "session_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + GenerateRandomBase36(SessionIDSuffixLength)
}

// LegacySessionID returns the UTC calendar-date id ("2006-01-02") older
// clients used as their per-day session key.
func LegacySessionID(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
