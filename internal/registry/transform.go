package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gyeh/pricefacts/internal/normalize"
)

// Transform is one step of a field's post-extraction pipeline. Steps run in
// the order the rule declares them; order is part of the rule, not inferred.
type Transform struct {
	Op   string
	Args []string
}

// Transform operation names accepted in rule definitions.
const (
	opTrim             = "trim"
	opStripCurrency    = "strip_currency"
	opStripPrefix      = "strip_prefix"
	opStripLeadingZero = "strip_leading_zero"
	opSubstring        = "substring"
	opAfterMarker      = "after_marker"
	opUppercase        = "uppercase"
	opNormalizeCode    = "normalize_code"
)

// ParseTransform parses a transform spec of the form "op" or "op:arg[:arg]".
// Argument counts are validated here so bad rules fail at registry load,
// not mid-extraction.
func ParseTransform(spec string) (Transform, error) {
	parts := strings.Split(spec, ":")
	op := strings.TrimSpace(parts[0])
	args := parts[1:]

	switch op {
	case opTrim, opStripCurrency, opStripLeadingZero, opUppercase, opNormalizeCode:
		if len(args) != 0 {
			return Transform{}, fmt.Errorf("transform %q takes no arguments", op)
		}
	case opStripPrefix, opAfterMarker:
		if len(args) != 1 || args[0] == "" {
			return Transform{}, fmt.Errorf("transform %q requires one argument", op)
		}
	case opSubstring:
		if len(args) != 2 {
			return Transform{}, fmt.Errorf("transform %q requires start and end arguments", op)
		}
		start, err := strconv.Atoi(args[0])
		if err != nil || start < 0 {
			return Transform{}, fmt.Errorf("transform %q: bad start %q", op, args[0])
		}
		end, err := strconv.Atoi(args[1])
		if err != nil || end < start {
			return Transform{}, fmt.Errorf("transform %q: bad end %q", op, args[1])
		}
	default:
		return Transform{}, fmt.Errorf("unknown transform %q", op)
	}

	return Transform{Op: op, Args: args}, nil
}

// Apply runs the transform over one raw value.
func (t Transform) Apply(v string) string {
	switch t.Op {
	case opTrim:
		return strings.TrimSpace(v)
	case opStripCurrency:
		v = strings.ReplaceAll(v, "$", "")
		return strings.ReplaceAll(v, ",", "")
	case opStripPrefix:
		return strings.TrimPrefix(v, t.Args[0])
	case opStripLeadingZero:
		return normalize.StripLeadingZero(v)
	case opSubstring:
		start, _ := strconv.Atoi(t.Args[0])
		end, _ := strconv.Atoi(t.Args[1])
		if start >= len(v) {
			return ""
		}
		if end > len(v) {
			end = len(v)
		}
		return v[start:end]
	case opAfterMarker:
		if i := strings.Index(v, t.Args[0]); i >= 0 {
			rest := v[i+len(t.Args[0]):]
			// Token following the marker phrase, not the whole tail.
			if j := strings.IndexAny(rest, " \t"); j >= 0 {
				return rest[:j]
			}
			return rest
		}
		return ""
	case opUppercase:
		return strings.ToUpper(v)
	case opNormalizeCode:
		return normalize.NormalizeCode(v)
	}
	return v
}

// applyAll runs a pipeline of transforms in declared order.
func applyAll(transforms []Transform, v string) string {
	for _, t := range transforms {
		v = t.Apply(v)
	}
	return v
}
