package util

import (
	"regexp"
	"testing"
	"time"
)

var sessionIDRe = regexp.MustCompile(`^session_\d{13}_[0-9a-z]{7}$`)

func TestGenerateSessionID(t *testing.T) {
	id := GenerateSessionID()
	if !sessionIDRe.MatchString(id) {
		t.Errorf("GenerateSessionID() = %q, want session_<millis>_<base36x7>", id)
	}
	if id == GenerateSessionID() && id == GenerateSessionID() {
		t.Error("GenerateSessionID produced repeated ids")
	}
}

func TestGenerateRandomBase36(t *testing.T) {
	if got := GenerateRandomBase36(0); got != "" {
		t.Errorf("GenerateRandomBase36(0) = %q, want empty", got)
	}
	got := GenerateRandomBase36(16)
	if len(got) != 16 {
		t.Fatalf("length = %d, want 16", len(got))
	}
	for _, r := range got {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
			t.Errorf("unexpected character %q in %q", r, got)
		}
	}
}

func TestLegacySessionID(t *testing.T) {
	at := time.Date(2024, 3, 5, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	if got := LegacySessionID(at); got != "2024-03-06" {
		t.Errorf("LegacySessionID = %q, want UTC date 2024-03-06", got)
	}
}
