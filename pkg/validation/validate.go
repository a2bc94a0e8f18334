// Package validation applies config-driven field rules to console
// records before they are written.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Rules validate one record collection: required paths, type checks,
// string/array length caps and enum membership.
type Rules struct {
	Required []string
	Types    map[string]string
	MaxLen   map[string]int
	Enums    map[string][]string
}

var rulesByCollection = map[string]Rules{}

// SetRules installs the validation rules, keyed by collection name.
func SetRules(r map[string]Rules) {
	if r == nil {
		r = map[string]Rules{}
	}
	rulesByCollection = r
}

// ValidateRecord checks a decoded record against its collection's rules.
// Collections without rules accept everything.
func ValidateRecord(collection string, rec map[string]interface{}) error {
	rules, ok := rulesByCollection[collection]
	if !ok {
		return nil
	}
	var errs []string

	for _, p := range rules.Required {
		if !existsAt(rec, p) {
			errs = append(errs, fmt.Sprintf("required field missing: %s", p))
		}
	}
	for p, t := range rules.Types {
		if v, ok := valueAt(rec, p); ok {
			if !typeMatches(v, t) {
				errs = append(errs, fmt.Sprintf("type mismatch at %s: expected %s", p, t))
			}
		}
	}
	for p, max := range rules.MaxLen {
		if v, ok := valueAt(rec, p); ok {
			switch vv := v.(type) {
			case string:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			case []interface{}:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			}
		}
	}
	for p, vals := range rules.Enums {
		if v, ok := valueAt(rec, p); ok {
			if s, ok2 := v.(string); ok2 && !contains(vals, s) {
				errs = append(errs, fmt.Sprintf("invalid value at %s", p))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func existsAt(root interface{}, path string) bool {
	_, ok := valueAt(root, path)
	return ok
}

func valueAt(root interface{}, path string) (interface{}, bool) {
	segs := strings.Split(path, ".")
	cur := root
	for _, s := range segs {
		node, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := node[s]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func typeMatches(v interface{}, t string) bool {
	switch strings.ToLower(t) {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		default:
			return false
		}
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]interface{})
		return ok
	case "array":
		_, ok := v.([]interface{})
		return ok
	default:
		return true
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
