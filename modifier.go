package tal

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Modifier is a named output transform used in pipe expressions. Raw
// modifiers turn off escaping for the whole chain.
type Modifier struct {
	Name      string
	Raw       bool
	Transform func(string) string
}

// Casers keep per-call state, so a fresh one is built for each use.
var builtinModifiers = map[string]*Modifier{
	"raw": {Name: "raw", Raw: true, Transform: func(s string) string { return s }},
	"upper": {Name: "upper", Transform: func(s string) string {
		return cases.Upper(language.Und).String(s)
	}},
	"lower": {Name: "lower", Transform: func(s string) string {
		return cases.Lower(language.Und).String(s)
	}},
	"trim": {Name: "trim", Transform: strings.TrimSpace},
	"capitalize": {Name: "capitalize", Transform: func(s string) string {
		return cases.Title(language.Und).String(s)
	}},
}

// Modifiers is a registry of output modifiers. Built-ins are always present
// and take precedence; custom entries are kept in a copy-on-write map so
// lookups never wait on writers.
type Modifiers struct {
	mu     sync.Mutex
	custom atomic.Pointer[map[string]*Modifier]
}

func NewModifiers() *Modifiers {
	return &Modifiers{}
}

// Register adds or replaces a custom modifier. The last registration for a
// name wins.
func (m *Modifiers) Register(name string, raw bool, transform func(string) string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.table()
	next := make(map[string]*Modifier, len(current)+1)
	for key, mod := range current {
		next[key] = mod
	}
	next[name] = &Modifier{Name: name, Raw: raw, Transform: transform}
	m.custom.Store(&next)
}

// Unregister removes a custom modifier. Built-ins cannot be removed.
func (m *Modifiers) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.table()
	if _, ok := current[name]; !ok {
		return
	}
	next := make(map[string]*Modifier, len(current))
	for key, mod := range current {
		if key != name {
			next[key] = mod
		}
	}
	m.custom.Store(&next)
}

func (m *Modifiers) table() map[string]*Modifier {
	if p := m.custom.Load(); p != nil {
		return *p
	}
	return nil
}

func (m *Modifiers) Lookup(name string) (*Modifier, bool) {
	if mod, ok := builtinModifiers[name]; ok {
		return mod, true
	}
	mod, ok := m.table()[name]
	return mod, ok
}

// Names lists built-in and custom modifier names, sorted.
func (m *Modifiers) Names() []string {
	seen := make(map[string]struct{}, len(builtinModifiers))
	for name := range builtinModifiers {
		seen[name] = struct{}{}
	}
	for name := range m.table() {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
