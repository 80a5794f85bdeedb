package tal

import (
	"log/slog"
	"strconv"
	"strings"
)

// slotsKey binds the slot table of an extending template.
const slotsKey = "__slots__"

// slotTable maps slot names to the elements that fill them.
type slotTable map[string]*Element

func (slotTable) String() string { return "" }
func (slotTable) isValue()       {}

// Scope is a stack of variable frames searched innermost first. The first
// frame resolving the whole path wins; frames are never merged.
type Scope struct {
	frames    []Map
	modifiers *Modifiers
	logger    *slog.Logger
}

// NewScope starts a scope whose root frame is root. Modifier names in
// expressions are resolved against mods.
func NewScope(mods *Modifiers, root Map) *Scope {
	if mods == nil {
		mods = NewModifiers()
	}
	if root == nil {
		root = Map{}
	}
	return &Scope{
		frames:    []Map{root},
		modifiers: mods,
		logger:    slog.New(slog.DiscardHandler),
	}
}

func (s *Scope) Push(frame Map) {
	s.frames = append(s.frames, frame)
}

// Pop removes the innermost frame. The root frame is never removed.
func (s *Scope) Pop() {
	if len(s.frames) <= 1 {
		return
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *Scope) Depth() int {
	return len(s.frames)
}

// Resolve looks up a dotted path such as "a.b.2.c".
func (s *Scope) Resolve(path string) (Value, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	for idx := len(s.frames) - 1; idx >= 0; idx-- {
		if v, ok := dive(s.frames[idx], segments); ok {
			return v, true
		}
	}
	return nil, false
}

// Lookup resolves path with no modifiers. Missing paths give a null result.
func (s *Scope) Lookup(path string) Result {
	v, _ := s.Resolve(path)
	return Result{Raw: v}
}

func dive(v Value, segments []string) (Value, bool) {
	if len(segments) == 0 {
		return v, true
	}
	key, rest := segments[0], segments[1:]
	switch current := v.(type) {
	case Map:
		child, ok := current[key]
		if !ok {
			return nil, false
		}
		return dive(child, rest)
	case List:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(current) {
			return dive(current[idx], rest)
		}
	case Record:
		if child, ok := current.Field(key); ok {
			return dive(child, rest)
		}
	}
	return nil, false
}

// slot finds the filler for a slot name. Slot frames are searched from the
// outermost in, so the most derived template in an extends chain wins.
func (s *Scope) slot(name string) (*Element, bool) {
	for _, frame := range s.frames {
		table, ok := frame[slotsKey].(slotTable)
		if !ok {
			continue
		}
		if el, ok := table[name]; ok {
			return el, true
		}
	}
	return nil, false
}
