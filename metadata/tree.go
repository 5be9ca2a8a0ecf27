package metadata

import (
	"sort"
	"strconv"
)

// Tree is the normalized attribute tree of one store node, built once
// from a JSON attributes document and read-only afterwards. Lookups
// mirror the shapes found in EOPF products: values may be strings,
// numbers, nested objects or arrays.
type Tree map[string]interface{}

// GetString returns the string at key, or def for anything else.
func (t Tree) GetString(key, def string) string {
	if v, ok := t[key].(string); ok {
		return v
	}
	return def
}

// GetInt returns the integer at key. Numeric strings count: EPSG codes
// appear both ways in the wild.
func (t Tree) GetInt(key string, def int) int {
	switch v := t[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GetFloat returns the float at key, or def.
func (t Tree) GetFloat(key string, def float64) float64 {
	switch v := t[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// GetObject returns the nested tree at key.
func (t Tree) GetObject(key string) (Tree, bool) {
	if v, ok := t[key].(map[string]interface{}); ok {
		return Tree(v), true
	}
	return nil, false
}

// GetFloatArray returns the numeric array at key when every element is
// a number and the array has at least min elements.
func (t Tree) GetFloatArray(key string, min int) ([]float64, bool) {
	raw, ok := t[key].([]interface{})
	if !ok || len(raw) < min {
		return nil, false
	}
	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		f, ok := item.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// ChildKeys returns the keys of all immediate child objects in sorted
// order, so scans over children are deterministic.
func (t Tree) ChildKeys() []string {
	var keys []string
	for key, val := range t {
		if _, ok := val.(map[string]interface{}); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Child returns the immediate child object at key, or nil.
func (t Tree) Child(key string) Tree {
	if child, ok := t.GetObject(key); ok {
		return child
	}
	return nil
}
