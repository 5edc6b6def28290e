package registry

import (
	_ "embed"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/pricefacts/internal/model"
	"github.com/gyeh/pricefacts/internal/rawtable"
)

//go:embed rules.yaml
var embeddedRules []byte

// Registry dispatches hospital id + source format to an adapter rule. It is
// the single source of truth for "is this hospital supported": absence of a
// rule is a distinct condition from a rule that extracted nothing.
type Registry struct {
	rules []*Rule
	byKey map[ruleKey]*Rule
}

type ruleKey struct {
	hospitalID int64
	format     rawtable.Format
}

// Load builds the registry from the embedded rule table.
func Load() (*Registry, error) {
	return Parse(embeddedRules)
}

// LoadFrom builds the registry from an external rule document.
func LoadFrom(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

// yamlBinding is the on-disk form of one field binding.
type yamlBinding struct {
	Column     string   `yaml:"column"`
	Position   *int     `yaml:"position"`
	Transforms []string `yaml:"transforms"`
}

// idRange is an inclusive hospital id range, used by chains that publish
// byte-identical layouts for many facilities.
type idRange struct {
	From int64 `yaml:"from"`
	To   int64 `yaml:"to"`
}

// yamlRule is the on-disk form of one adapter rule.
type yamlRule struct {
	Name      string                 `yaml:"name"`
	Format    string                 `yaml:"format"`
	SkipRows  int                    `yaml:"skip_rows"`
	Hospitals []int64                `yaml:"hospitals"`
	Range     *idRange               `yaml:"range"`
	Fields    map[string]yamlBinding `yaml:"fields"`
}

type yamlDoc struct {
	Rules []yamlRule `yaml:"rules"`
}

// Parse parses and validates a YAML rule document. Overlapping
// registrations (same hospital id and format claimed by two rules) are
// rejected: the registry must have exactly one answer per lookup.
func Parse(data []byte) (*Registry, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}

	reg := &Registry{byKey: make(map[ruleKey]*Rule)}
	for i := range doc.Rules {
		rule, err := buildRule(&doc.Rules[i])
		if err != nil {
			return nil, err
		}
		for _, id := range rule.hospitalIDs {
			key := ruleKey{hospitalID: id, format: rule.Format}
			if prev, dup := reg.byKey[key]; dup {
				return nil, fmt.Errorf("hospital %d format %s claimed by both rule %q and rule %q",
					id, rule.Format, prev.Name, rule.Name)
			}
			reg.byKey[key] = rule
		}
		reg.rules = append(reg.rules, rule)
	}
	return reg, nil
}

func buildRule(yr *yamlRule) (*Rule, error) {
	rule := &Rule{
		Name:     yr.Name,
		SkipRows: yr.SkipRows,
		Price:    make(map[model.PriceType]*Binding),
	}

	format, ok := rawtable.ParseFormat(yr.Format)
	if !ok {
		return nil, fmt.Errorf("rule %q: unknown format %q", yr.Name, yr.Format)
	}
	rule.Format = format

	rule.hospitalIDs = append(rule.hospitalIDs, yr.Hospitals...)
	if yr.Range != nil {
		if yr.Range.From > yr.Range.To {
			return nil, fmt.Errorf("rule %q: invalid range %d-%d", yr.Name, yr.Range.From, yr.Range.To)
		}
		for id := yr.Range.From; id <= yr.Range.To; id++ {
			rule.hospitalIDs = append(rule.hospitalIDs, id)
		}
	}
	sort.Slice(rule.hospitalIDs, func(i, j int) bool { return rule.hospitalIDs[i] < rule.hospitalIDs[j] })

	for field, yb := range yr.Fields {
		binding, err := buildBinding(&yb)
		if err != nil {
			return nil, fmt.Errorf("rule %q, field %s: %w", yr.Name, field, err)
		}
		if field == "code" {
			rule.Code = *binding
			continue
		}
		pt, ok := model.ParsePriceType(field)
		if !ok {
			return nil, fmt.Errorf("rule %q: unknown field %q", yr.Name, field)
		}
		rule.Price[pt] = binding
	}

	if err := rule.validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

func buildBinding(yb *yamlBinding) (*Binding, error) {
	b := &Binding{Column: yb.Column, Position: yb.Position}
	for _, spec := range yb.Transforms {
		t, err := ParseTransform(spec)
		if err != nil {
			return nil, err
		}
		b.Transforms = append(b.Transforms, t)
	}
	return b, nil
}

// Lookup returns the rule registered for a hospital id and source format.
// ok=false means no adapter is registered; callers report that as
// UnsupportedHospital, never as an empty result.
func (r *Registry) Lookup(hospitalID int64, format rawtable.Format) (*Rule, bool) {
	rule, ok := r.byKey[ruleKey{hospitalID: hospitalID, format: format}]
	return rule, ok
}

// Rules returns all registered rules in declaration order.
func (r *Registry) Rules() []*Rule { return r.rules }

// Supported reports whether any rule is registered for the hospital in any
// format.
func (r *Registry) Supported(hospitalID int64) bool {
	for key := range r.byKey {
		if key.hospitalID == hospitalID {
			return true
		}
	}
	return false
}
