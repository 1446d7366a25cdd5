// Package validate holds the gate rules applied to voucher input before a
// record is created: field length schema, profanity blocking, spam-word
// softening for shortened URLs, same-day duplicate detection and the
// client rate-limit policy.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/core/domain"
)

// Rule describes the length constraints for one input field.
type Rule struct {
	Field    string
	Min, Max int
	Required bool
}

// Rules is the declarative field schema. Evaluated independently per field.
var Rules = []Rule{
	{Field: "title", Min: 3, Max: 50, Required: true},
	{Field: "code", Min: 3, Max: 25, Required: true},
	{Field: "provider", Max: 30},
	{Field: "message", Max: 150},
}

// Field checks value against the schema rule for the named field.
// Returns nil when the value passes or when no rule is declared.
func Field(field, value string) *domain.ValidationError {
	for _, rule := range Rules {
		if rule.Field != field {
			continue
		}
		v := strings.TrimSpace(value)
		if rule.Required && v == "" {
			return &domain.ValidationError{Field: field, Reason: domain.ReasonRequired}
		}
		if v != "" && len([]rune(v)) < rule.Min {
			return &domain.ValidationError{Field: field, Reason: domain.ReasonTooShort}
		}
		if len([]rune(v)) > rule.Max {
			return &domain.ValidationError{Field: field, Reason: domain.ReasonTooLong}
		}
		return nil
	}
	return nil
}

// blockedWords is a fixed, deliberately small list. Matching is whole-word,
// so "assassin" does not trip on "ass".
var blockedWords = []string{
	"arse", "ass", "bastard", "bitch", "cock", "crap",
	"cunt", "damn", "dick", "fuck", "piss", "shit", "slut", "twat", "wank",
}

// maskClass covers the wildcard characters people splice into a blocked word
// to slip past a naive filter (f***k, s#it).
const maskClass = `[*$#@%&!+^~]`

var (
	wordPatterns   []*regexp.Regexp
	maskedPatterns []*regexp.Regexp
	leetReplacer   = strings.NewReplacer("$", "s", "@", "a", "!", "i", "0", "o", "1", "i", "3", "e")
)

func init() {
	for _, w := range blockedWords {
		wordPatterns = append(wordPatterns,
			regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
		// first letter + wildcard run + last letter, still word-bounded
		first := regexp.QuoteMeta(w[:1])
		last := regexp.QuoteMeta(w[len(w)-1:])
		maskedPatterns = append(maskedPatterns,
			regexp.MustCompile(`(?i)\b`+first+maskClass+`+`+last+`\b`))
	}
}

// ContainsProfanity reports whether text contains a blocked word, either
// verbatim, with a wildcard splice between its first and last letter, or
// with common character substitutions (a$$, sh1t).
func ContainsProfanity(text string) bool {
	if matchesBlocked(text) {
		return true
	}
	return matchesBlocked(leetReplacer.Replace(text))
}

func matchesBlocked(text string) bool {
	for _, p := range wordPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	for _, p := range maskedPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// spamSynonyms maps words that trip link-shortener spam heuristics to milder
// stand-ins. Cosmetic only, not a security boundary.
var spamSynonyms = map[string]string{
	"free":       "complimentary",
	"winner":     "recipient",
	"prize":      "reward",
	"cash":       "funds",
	"urgent":     "important",
	"guaranteed": "assured",
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^\w\s.,!?-]`)
	spamPatterns  = func() map[*regexp.Regexp]string {
		m := make(map[*regexp.Regexp]string, len(spamSynonyms))
		for word, synonym := range spamSynonyms {
			m[regexp.MustCompile(`(?i)\b`+word+`\b`)] = synonym
		}
		return m
	}()
)

// Sanitize strips characters outside the safe set, normalizes whitespace and
// softens spam-trigger words. Idempotent: stripping must come first, since it
// can fuse letters into a trigger word ("fr$ee" -> "free") that a replacement
// pass already run would have missed. The synonyms themselves contain only
// safe characters and no trigger words. Applied only to fields that end up in
// the externally shortened URL.
func Sanitize(text string) string {
	out := unsafeChars.ReplaceAllString(text, "")
	out = whitespaceRun.ReplaceAllString(out, " ")
	for p, synonym := range spamPatterns {
		out = p.ReplaceAllString(out, synonym)
	}
	return strings.TrimSpace(out)
}

// IsDuplicateCode reports whether code collides with a voucher already created
// today. Comparison is trimmed and case-folded; vouchers from prior days never
// count.
func IsDuplicateCode(code string, todays []domain.Voucher) bool {
	want := strings.ToLower(strings.TrimSpace(code))
	for _, v := range todays {
		if strings.ToLower(strings.TrimSpace(v.Code)) == want {
			return true
		}
	}
	return false
}

const (
	// MinCreateInterval is the shortest allowed gap between two creations by
	// the same client.
	MinCreateInterval = 5 * time.Second
	// DailyCap is the most vouchers a client may create per calendar day.
	DailyCap = 10
)

// CheckRate applies the rate-limit policy to a client's persisted quota.
// The counter resets implicitly when the stored date is not today.
func CheckRate(q domain.Quota, now time.Time) *domain.RateLimitError {
	if !q.LastCreatedAt.IsZero() {
		if elapsed := now.Sub(q.LastCreatedAt); elapsed < MinCreateInterval {
			return &domain.RateLimitError{
				Reason:     domain.ReasonTooSoon,
				RetryAfter: MinCreateInterval - elapsed,
			}
		}
	}
	if q.Date == now.Format(domain.DateLayout) && q.Count >= DailyCap {
		return &domain.RateLimitError{Reason: domain.ReasonDailyCap}
	}
	return nil
}

// NextQuota returns the quota to persist after a successful creation at now.
func NextQuota(q domain.Quota, now time.Time) domain.Quota {
	today := now.Format(domain.DateLayout)
	count := 1
	if q.Date == today {
		count = q.Count + 1
	}
	return domain.Quota{Count: count, Date: today, LastCreatedAt: now}
}
