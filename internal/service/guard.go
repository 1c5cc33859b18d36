package service

import (
	"propsearch/internal/utils"
)

// DomainGuard is a cheap keyword pre-filter run before any paid model call.
// It only rejects obviously unrelated text; false negatives are acceptable.
type DomainGuard struct {
	keywords []string
}

// NewDomainGuard creates a guard over the given keyword bag.
func NewDomainGuard(keywords []string) *DomainGuard {
	return &DomainGuard{keywords: keywords}
}

// Allows reports whether the query mentions any domain keyword.
func (g *DomainGuard) Allows(query string) bool {
	return utils.ContainsAnySubstring(query, g.keywords)
}
