// Package registry holds the declarative adapter rule table: which raw
// columns become which canonical fields for each hospital, plus per-field
// transform pipelines. Adding a hospital is a data change, not a code
// change.
package registry

import (
	"fmt"

	"github.com/gyeh/pricefacts/internal/model"
	"github.com/gyeh/pricefacts/internal/rawtable"
)

// Binding ties one canonical field to a raw column, by name or by 0-based
// position. Exactly one of Column/Position is set.
type Binding struct {
	Column     string
	Position   *int
	Transforms []Transform
}

// ByPosition reports whether this binding addresses its column positionally.
// Positional bindings exist for files with unusable or duplicate header
// names; they are higher risk because nothing guarantees the position is
// stable across file revisions.
func (b *Binding) ByPosition() bool { return b.Position != nil }

// Apply runs the binding's transform pipeline over a raw value.
func (b *Binding) Apply(v string) string { return applyAll(b.Transforms, v) }

// Rule is the extraction rule for one hospital (or one chain of hospitals
// publishing byte-identical layouts).
type Rule struct {
	Name     string
	Format   rawtable.Format
	SkipRows int

	Code  Binding
	Price map[model.PriceType]*Binding

	hospitalIDs []int64
}

// HospitalIDs returns the hospital ids this rule is registered for.
func (r *Rule) HospitalIDs() []int64 { return r.hospitalIDs }

// Positional reports whether any binding of this rule is position-bound.
// Surfaced in plan output and run logs as registry risk metadata.
func (r *Rule) Positional() bool {
	if r.Code.ByPosition() {
		return true
	}
	for _, b := range r.Price {
		if b != nil && b.ByPosition() {
			return true
		}
	}
	return false
}

// PriceFields returns the price types this rule binds, in canonical order.
func (r *Rule) PriceFields() []model.PriceType {
	var out []model.PriceType
	for _, pt := range model.AllPriceTypes {
		if r.Price[pt] != nil {
			out = append(out, pt)
		}
	}
	return out
}

// validate checks rule internal consistency at load time.
func (r *Rule) validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule has no name")
	}
	if len(r.hospitalIDs) == 0 {
		return fmt.Errorf("rule %q binds no hospitals", r.Name)
	}
	if _, ok := rawtable.ParseFormat(string(r.Format)); !ok {
		return fmt.Errorf("rule %q: unknown format %q", r.Name, r.Format)
	}
	if err := validateBinding(&r.Code); err != nil {
		return fmt.Errorf("rule %q, field code: %w", r.Name, err)
	}
	if len(r.Price) == 0 {
		return fmt.Errorf("rule %q binds no price fields", r.Name)
	}
	for pt, b := range r.Price {
		if b == nil {
			continue
		}
		if err := validateBinding(b); err != nil {
			return fmt.Errorf("rule %q, field %s: %w", r.Name, pt, err)
		}
	}
	if r.SkipRows < 0 {
		return fmt.Errorf("rule %q: negative skip_rows", r.Name)
	}
	return nil
}

func validateBinding(b *Binding) error {
	hasCol := b.Column != ""
	hasPos := b.Position != nil
	if hasCol == hasPos {
		return fmt.Errorf("binding needs exactly one of column or position")
	}
	if hasPos && *b.Position < 0 {
		return fmt.Errorf("negative column position %d", *b.Position)
	}
	return nil
}
