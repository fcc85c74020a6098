// Package merchant derives a canonical grouping key from noisy bank
// transaction descriptions. The key is the identity used to decide that two
// charges belong to the same biller, so normalization must be deterministic
// and idempotent: Normalize(Normalize(x)) == Normalize(x).
package merchant

import "strings"

const (
	// RuleMatchConfidence is returned when an ordered known-merchant rule
	// collapsed the text onto a canonical name.
	RuleMatchConfidence = 0.95
	// GenericConfidence is returned when no rule matched and the cleaned
	// text itself is used as the key.
	GenericConfidence = 0.7
)

// Normalize turns a raw description or merchant string into its normalized
// merchant key. It returns the key together with the confidence of the
// normalization, for downstream weighting.
func Normalize(raw string) (string, float64) {
	cleaned := clean(raw)
	if cleaned == "" {
		return "", 0
	}

	// Known-merchant rules are checked before generic stop-word cleanup so
	// that boilerplate tokens cannot hide a recognizable merchant.
	if canonical, ok := matchKnownMerchant(cleaned); ok {
		return canonical, RuleMatchConfidence
	}

	stripped := stripNoise(cleaned)
	if stripped == "" {
		return "", 0
	}

	// Second pass: stripping stop-words can join tokens a rule recognizes
	// ("state POS farm" -> "state farm"). Without this pass the result
	// would not be a fixed point.
	if canonical, ok := matchKnownMerchant(stripped); ok {
		return canonical, RuleMatchConfidence
	}

	return stripped, GenericConfidence
}

// Key returns only the normalized key, for callers that do not weight by
// normalization confidence.
func Key(raw string) string {
	key, _ := Normalize(raw)
	return key
}

func matchKnownMerchant(text string) (string, bool) {
	for _, km := range knownMerchants {
		if km.pattern.MatchString(text) {
			return km.canonical, true
		}
	}
	return "", false
}

// clean lowercases, replaces punctuation (except & and +) with spaces and
// collapses runs of whitespace.
func clean(raw string) string {
	lower := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '&', r == '+':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripNoise removes stop-word tokens and bare store/reference numbers.
func stripNoise(cleaned string) string {
	fields := strings.Fields(cleaned)
	kept := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		if isDigits(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
