package domain

// RuleKind discriminates the detector rule variants.
type RuleKind string

const (
	// RulePattern detects spans with a regular expression.
	RulePattern RuleKind = "pattern"

	// RuleLookup detects exact occurrences of table entries.
	RuleLookup RuleKind = "lookup"
)

// DetectorRule describes one PII detector. It is a tagged variant:
// Pattern rules carry a regular expression, Lookup rules carry a term
// table. Both are evaluated through the masking engine's common detect
// capability.
type DetectorRule struct {
	// ID uniquely identifies the rule for audit records.
	ID string

	// Kind selects the variant.
	Kind RuleKind

	// Category is the PII category emitted for matches (e.g. "PHONE").
	Category string

	// Priority resolves overlapping spans: higher priority wins; on tie
	// the longer span wins; on a further tie the earlier start wins.
	Priority int

	// Pattern is the regular expression source (Kind == RulePattern).
	Pattern string

	// Terms is the lookup table (Kind == RuleLookup).
	Terms []string
}

// DefaultDetectorRules returns the built-in rule set for legal documents:
// national ID numbers, mobile and landline phones, email addresses and
// bank account numbers. Callers typically append lookup rules for party
// names on top.
func DefaultDetectorRules() []DetectorRule {
	return []DetectorRule{
		{
			ID:       "national-id",
			Kind:     RulePattern,
			Category: "NATIONAL_ID",
			Priority: 100,
			Pattern:  `[A-Z][12][0-9]{8}`,
		},
		{
			ID:       "phone",
			Kind:     RulePattern,
			Category: "PHONE",
			Priority: 90,
			Pattern:  `09[0-9]{2}-?[0-9]{3}-?[0-9]{3}|0[2-8]-?[0-9]{6,8}`,
		},
		{
			ID:       "email",
			Kind:     RulePattern,
			Category: "EMAIL",
			Priority: 80,
			Pattern:  `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
		},
		{
			ID:       "bank-account",
			Kind:     RulePattern,
			Category: "BANK_ACCOUNT",
			Priority: 10,
			Pattern:  `[0-9]{10,16}`,
		},
	}
}
