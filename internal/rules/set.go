package rules

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// Set is a rule database indexed by the head symbol of each left-hand
// side. Candidates for a head are ordered by priority (highest first),
// then by insertion order.
type Set struct {
	rules  []*Rule
	byHead map[string][]*Rule
	names  map[string]bool
}

// NewSet validates and adds rules in order.
func NewSet(rules ...Rule) (*Set, error) {
	s := &Set{
		byHead: make(map[string][]*Rule),
		names:  make(map[string]bool),
	}
	for _, r := range rules {
		if err := s.Add(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSet is NewSet that panics on error. Intended for tests.
func MustSet(rules ...Rule) *Set {
	s, err := NewSet(rules...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add validates r and inserts it into the index.
func (s *Set) Add(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if s.names[r.Name] {
		return fmt.Errorf("duplicate rule: %s", r.Name)
	}
	rule := &r
	s.names[r.Name] = true
	s.rules = append(s.rules, rule)

	head := rule.Head()
	bucket := append(s.byHead[head], rule)
	// Stable sort keeps insertion order among equal priorities.
	slices.SortStableFunc(bucket, func(a, b *Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	s.byHead[head] = bucket
	return nil
}

// Find returns the candidate rules whose left-hand side shares e's head
// symbol, or nil when e has no indexable head.
func (s *Set) Find(e expr.Expr) []*Rule {
	if s == nil {
		return nil
	}
	head, ok := expr.HeadSymbol(e)
	if !ok {
		return nil
	}
	return s.byHead[head]
}

// Rules returns all rules in insertion order.
func (s *Set) Rules() []*Rule {
	if s == nil {
		return nil
	}
	return slices.Clone(s.rules)
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// ID returns the content address of the rule set: the domain-separated
// hash of its canonical JSON form. Binder names inside rules do not
// affect the ID.
func (s *Set) ID() (string, error) {
	list := make([]any, 0, s.Len())
	for _, r := range s.Rules() {
		hyps := make([]any, len(r.Hyps))
		for i, h := range r.Hyps {
			hyps[i] = h
		}
		list = append(list, map[string]any{
			"name":     r.Name,
			"lhs":      r.LHS,
			"rhs":      r.RHS,
			"hyps":     hyps,
			"priority": int64(r.Priority),
		})
	}
	data, err := expr.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal rule set: %w", err)
	}
	return expr.HashWithDomain(expr.DomainRuleSet, data), nil
}
