package scope

import (
	"strings"

	"github.com/samber/lo"

	"github.com/exaybachay-ak/CISA-KEV-Notifications/config"
	"github.com/exaybachay-ak/CISA-KEV-Notifications/kev"
)

// Class is the result of classifying one record against the match config.
type Class int

const (
	OutOfScope Class = iota
	InScope
	Excluded
)

func (c Class) String() string {
	switch c {
	case InScope:
		return "in-scope"
	case Excluded:
		return "excluded"
	default:
		return "out-of-scope"
	}
}

// Matches reports whether term occurs anywhere inside field, ignoring case.
// An empty term matches every field. There is no word-boundary anchoring:
// "java" matches "javascript".
func Matches(term, field string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(term))
}

// Classify tests every term against every text field of the record.
// Exclusion terms take precedence: a record matching both an exclusion term
// and a vendor term is excluded.
func Classify(v kev.Vulnerability, cfg config.Config) Class {
	fields := v.TextFields()
	if anyMatches(cfg.ExclusionTerms, fields) {
		return Excluded
	}
	if anyMatches(cfg.VendorTerms, fields) {
		return InScope
	}
	return OutOfScope
}

func anyMatches(terms, fields []string) bool {
	return lo.SomeBy(terms, func(term string) bool {
		return lo.SomeBy(fields, func(field string) bool {
			return Matches(term, field)
		})
	})
}
