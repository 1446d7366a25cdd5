package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/core/domain"
)

func TestField(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		value      string
		wantReason string // empty means valid
	}{
		{name: "Valid title", field: "title", value: "Birthday Gift"},
		{name: "Empty title", field: "title", value: "", wantReason: domain.ReasonRequired},
		{name: "Short title", field: "title", value: "ab", wantReason: domain.ReasonTooShort},
		{name: "Long title", field: "title", value: strings.Repeat("x", 51), wantReason: domain.ReasonTooLong},
		{name: "Title at max", field: "title", value: strings.Repeat("x", 50)},
		{name: "Valid code", field: "code", value: "BIRTHDAY2023"},
		{name: "Short code", field: "code", value: "ab", wantReason: domain.ReasonTooShort},
		{name: "Long code", field: "code", value: strings.Repeat("C", 26), wantReason: domain.ReasonTooLong},
		{name: "Empty provider ok", field: "provider", value: ""},
		{name: "Long provider", field: "provider", value: strings.Repeat("p", 31), wantReason: domain.ReasonTooLong},
		{name: "Empty message ok", field: "message", value: ""},
		{name: "Long message", field: "message", value: strings.Repeat("m", 151), wantReason: domain.ReasonTooLong},
		{name: "Unknown field ignored", field: "nonsense", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Field(tt.field, tt.value)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s, got nil", tt.wantReason)
			}
			if err.Reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", err.Reason, tt.wantReason)
			}
		})
	}
}

func TestContainsProfanity(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"have a lovely day", false},
		{"damn good coffee", true},
		{"DAMN", true},                 // case-insensitive
		{"assassin class hero", false}, // whole-word, not substring
		{"pass the test", false},
		{"f***k this", true}, // wildcard splice
		{"s**t happens", true},
		{"a$$", true}, // substitution variant
		{"sh1t", true},
		{"kick a$s", true},
		{"classic brass band", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ContainsProfanity(tt.text); got != tt.want {
				t.Errorf("ContainsProfanity(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "Collapses whitespace", in: "  hello   world\t!", want: "hello world !"},
		{name: "Softens spam words", in: "FREE prize inside", want: "complimentary reward inside"},
		{name: "Strips unsafe chars", in: "hello <b>world</b>", want: "hello bworldb"},
		{name: "Keeps safe punctuation", in: "Enjoy, okay?! - thanks.", want: "Enjoy, okay?! - thanks."},
		{name: "Spam word mid-sentence", in: "you are a winner today", want: "you are a recipient today"},
		{name: "No false substring hit", in: "freedom and cashew", want: "freedom and cashew"},
		{name: "Stripping exposes spam word", in: "fr$ee coffee", want: "complimentary coffee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"  FREE   cash &  a PRIZE!!  ",
		"plain text",
		"urgent: guaranteed winner @ home",
		"tabs\tand\nnewlines",
		// Stripping fuses these into trigger words; a second pass must not
		// soften anything the first one left behind.
		"fr$ee coffee",
		"pri#ze draw",
		"ca$sh now",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestIsDuplicateCode(t *testing.T) {
	todays := []domain.Voucher{
		{Code: "SPRING50"},
		{Code: "  Coffee2024 "},
	}

	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "Exact match", code: "SPRING50", want: true},
		{name: "Case-folded match", code: "spring50", want: true},
		{name: "Trimmed match", code: " coffee2024", want: true},
		{name: "Different code", code: "SUMMER50", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateCode(tt.code, todays); got != tt.want {
				t.Errorf("IsDuplicateCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}

	if IsDuplicateCode("SPRING50", nil) {
		t.Error("empty today-list must never flag a duplicate")
	}
}

func TestCheckRate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	today := now.Format(domain.DateLayout)

	tests := []struct {
		name       string
		quota      domain.Quota
		wantReason string // empty means allowed
	}{
		{name: "Fresh client", quota: domain.Quota{}},
		{name: "Too soon", quota: domain.Quota{Count: 1, Date: today, LastCreatedAt: now.Add(-3 * time.Second)}, wantReason: domain.ReasonTooSoon},
		{name: "Just over interval", quota: domain.Quota{Count: 1, Date: today, LastCreatedAt: now.Add(-5 * time.Second)}},
		{name: "At daily cap", quota: domain.Quota{Count: 10, Date: today, LastCreatedAt: now.Add(-time.Hour)}, wantReason: domain.ReasonDailyCap},
		{name: "Cap from yesterday ignored", quota: domain.Quota{Count: 10, Date: "2025-05-31", LastCreatedAt: now.Add(-time.Hour)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRate(tt.quota, now)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("expected allowed, got %v", err)
				}
				return
			}
			if err == nil || err.Reason != tt.wantReason {
				t.Fatalf("got %v, want reason %s", err, tt.wantReason)
			}
		})
	}
}

func TestNextQuota(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	// New day resets the count to 1.
	q := NextQuota(domain.Quota{Count: 7, Date: "2025-06-01"}, now)
	if q.Count != 1 || q.Date != "2025-06-02" {
		t.Errorf("new day quota = %+v, want count 1 on 2025-06-02", q)
	}

	// Same day increments.
	q = NextQuota(domain.Quota{Count: 3, Date: "2025-06-02"}, now)
	if q.Count != 4 {
		t.Errorf("same day count = %d, want 4", q.Count)
	}
	if !q.LastCreatedAt.Equal(now) {
		t.Errorf("LastCreatedAt = %v, want %v", q.LastCreatedAt, now)
	}
}
