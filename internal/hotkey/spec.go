package hotkey

import (
	"fmt"
	"sort"
	"strings"
)

// Spec is the set of logical keys that must all be held for the combo to
// engage. Comparison against held keys is set-superset, so extra keys being
// down does not prevent a match.
type Spec map[string]struct{}

// keyAliases maps common alternate spellings to the logical key names used
// internally.
var keyAliases = map[string]string{
	"control":  "ctrl",
	"ctl":      "ctrl",
	"option":   "alt",
	"command":  "super",
	"cmd":      "super",
	"win":      "super",
	"windows":  "super",
	"meta":     "super",
	"return":   "enter",
	"spacebar": "space",
	"escape":   "esc",
}

// sidePrefixedModifiers collapses left/right modifier variants to one logical
// identifier ("ctrl_l", "leftctrl" and "ctrl" all match "ctrl").
var sidePrefixedModifiers = map[string]string{
	"leftctrl": "ctrl", "rightctrl": "ctrl",
	"leftalt": "alt", "rightalt": "alt",
	"leftshift": "shift", "rightshift": "shift",
	"leftmeta": "super", "rightmeta": "super",
}

// NormalizeKey maps a raw key name to its logical identifier: lower-cased,
// left/right variants collapsed, aliases applied.
func NormalizeKey(name string) string {
	k := strings.ToLower(strings.TrimSpace(name))
	if k == "" {
		return ""
	}
	if i := strings.IndexAny(k, "_-"); i > 0 {
		base := k[:i]
		switch base {
		case "ctrl", "alt", "shift", "super":
			k = base
		}
	}
	if base, ok := sidePrefixedModifiers[k]; ok {
		k = base
	}
	if alias, ok := keyAliases[k]; ok {
		k = alias
	}
	return k
}

// ParseSpec parses a "+"-joined combination string such as "ctrl+alt+space".
// Parsing is case-insensitive and order-independent.
func ParseSpec(s string) (Spec, error) {
	spec := make(Spec)
	for _, part := range strings.Split(s, "+") {
		key := NormalizeKey(part)
		if key == "" {
			continue
		}
		spec[key] = struct{}{}
	}
	if len(spec) == 0 {
		return nil, fmt.Errorf("empty hotkey combination: %q", s)
	}
	return spec, nil
}

// MustParseSpec is ParseSpec for compile-time-known combos; panics on error.
func MustParseSpec(s string) Spec {
	spec, err := ParseSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// Keys returns the logical keys in sorted order.
func (s Spec) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the spec in canonical "+"-joined form.
func (s Spec) String() string {
	return strings.Join(s.Keys(), "+")
}

// Equal reports set equality with other.
func (s Spec) Equal(other Spec) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// matchedBy reports whether held is a superset of the spec.
func (s Spec) matchedBy(held map[string]struct{}) bool {
	if len(s) == 0 || len(held) < len(s) {
		return false
	}
	for k := range s {
		if _, ok := held[k]; !ok {
			return false
		}
	}
	return true
}
