// Package masking implements deterministic PII detection and redaction
// for legal document text.
package masking

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driven"
)

// placeholderRe matches redaction placeholders already present in the
// input. Spans overlapping a placeholder are never re-detected, which
// makes masking idempotent.
var placeholderRe = regexp.MustCompile(`\[REDACTED:[A-Z_]+\]`)

// compiledRule is a DetectorRule with its pattern compiled once at
// engine construction.
type compiledRule struct {
	rule domain.DetectorRule
	re   *regexp.Regexp
}

// Engine applies an ordered PII detector rule set to text. Detection is
// deterministic: the same input and rule set always produce the same
// masked text and audit trail.
type Engine struct {
	rules []compiledRule
}

// Compile-time check that Engine satisfies the port.
var _ driven.Masker = (*Engine)(nil)

// NewEngine validates and compiles the rule set. Invalid patterns and
// empty lookup tables are rejected here so masking itself cannot fail
// on rule problems.
func NewEngine(rules []domain.DetectorRule) (*Engine, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.ID == "" || r.Category == "" {
			return nil, fmt.Errorf("rule missing id or category: %w", domain.ErrInvalidInput)
		}
		switch r.Kind {
		case domain.RulePattern:
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("compiling rule %q: %w", r.ID, err)
			}
			compiled = append(compiled, compiledRule{rule: r, re: re})
		case domain.RuleLookup:
			if len(r.Terms) == 0 {
				return nil, fmt.Errorf("lookup rule %q has no terms: %w", r.ID, domain.ErrInvalidInput)
			}
			compiled = append(compiled, compiledRule{rule: r})
		default:
			return nil, fmt.Errorf("rule %q has unknown kind %q: %w", r.ID, r.Kind, domain.ErrInvalidInput)
		}
	}
	return &Engine{rules: compiled}, nil
}

// Rules returns the active rule set, highest priority first.
func (e *Engine) Rules() []domain.DetectorRule {
	out := make([]domain.DetectorRule, len(e.rules))
	for i, cr := range e.rules {
		out[i] = cr.rule
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// candidate is a detected span in byte offsets, before overlap
// resolution.
type candidate struct {
	start    int
	end      int
	priority int
	category string
	ruleID   string
}

// Mask applies the rule set to text. Overlapping detections are
// resolved by priority, then span length, then start position, so every
// rune is redacted at most once.
func (e *Engine) Mask(ctx context.Context, text string) (*driven.MaskResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	protected := placeholderRe.FindAllStringIndex(text, -1)
	var candidates []candidate
	for _, cr := range e.rules {
		for _, span := range cr.detect(text) {
			if overlapsAny(span[0], span[1], protected) {
				continue
			}
			candidates = append(candidates, candidate{
				start:    span[0],
				end:      span[1],
				priority: cr.rule.Priority,
				category: cr.rule.Category,
				ruleID:   cr.rule.ID,
			})
		}
	}

	accepted := resolveOverlaps(candidates)

	var b strings.Builder
	audit := make([]domain.MaskRecord, 0, len(accepted))
	prev := 0
	for _, c := range accepted {
		b.WriteString(text[prev:c.start])
		b.WriteString("[REDACTED:" + c.category + "]")
		audit = append(audit, domain.MaskRecord{
			Start:        utf8.RuneCountInString(text[:c.start]),
			End:          utf8.RuneCountInString(text[:c.end]),
			Category:     c.category,
			RuleID:       c.ruleID,
			OriginalHash: domain.HashContent(text[c.start:c.end]),
		})
		prev = c.end
	}
	b.WriteString(text[prev:])

	return &driven.MaskResult{MaskedText: b.String(), Audit: audit}, nil
}

// detect returns the rule's matches in text as [start, end) byte spans.
func (cr compiledRule) detect(text string) [][2]int {
	var spans [][2]int
	if cr.rule.Kind == domain.RulePattern {
		for _, m := range cr.re.FindAllStringIndex(text, -1) {
			spans = append(spans, [2]int{m[0], m[1]})
		}
		return spans
	}
	for _, term := range cr.rule.Terms {
		if term == "" {
			continue
		}
		for off := 0; ; {
			i := strings.Index(text[off:], term)
			if i < 0 {
				break
			}
			start := off + i
			spans = append(spans, [2]int{start, start + len(term)})
			off = start + len(term)
		}
	}
	return spans
}

// resolveOverlaps picks a non-overlapping subset of candidates, higher
// priority first, longer span first on ties, earlier start on further
// ties. The result is sorted by start position.
func resolveOverlaps(candidates []candidate) []candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if la, lb := a.end-a.start, b.end-b.start; la != lb {
			return la > lb
		}
		return a.start < b.start
	})

	var accepted []candidate
	for _, c := range candidates {
		conflict := false
		for _, a := range accepted {
			if c.start < a.end && a.start < c.end {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].start < accepted[j].start
	})
	return accepted
}

func overlapsAny(start, end int, intervals [][]int) bool {
	for _, iv := range intervals {
		if start < iv[1] && iv[0] < end {
			return true
		}
	}
	return false
}
