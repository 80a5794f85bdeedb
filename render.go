package tal

import (
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const DefaultMaxExtendsDepth = 32

// RenderContext holds the initial variable bindings of a render.
type RenderContext map[string]any

// Config configures an Engine. Zero fields take defaults: an HTML tolerant
// XMLParser, a fresh modifier registry, a discarding logger and
// DefaultMaxExtendsDepth.
type Config struct {
	// Resolver supplies templates for extends and RenderTemplate.
	Resolver Resolver
	Parser   Parser
	// Modifiers is the registry used by pipe expressions.
	Modifiers *Modifiers
	Logger    *slog.Logger
	// Lenient turns parse failures into the raw source behind a diagnostic
	// comment instead of an error.
	Lenient bool
	// IndentRepeats repeats the indentation in front of a repeated element
	// between its copies.
	IndentRepeats   bool
	MaxExtendsDepth int
}

// Engine renders templates. It is safe for concurrent use as long as the
// configured Resolver and Parser are.
type Engine struct {
	resolver      Resolver
	parser        Parser
	modifiers     *Modifiers
	logger        *slog.Logger
	lenient       bool
	indentRepeats bool
	maxDepth      int
}

func NewEngine(cfg Config) *Engine {
	if cfg.Parser == nil {
		cfg.Parser = &XMLParser{}
	}
	if cfg.Modifiers == nil {
		cfg.Modifiers = NewModifiers()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxExtendsDepth <= 0 {
		cfg.MaxExtendsDepth = DefaultMaxExtendsDepth
	}
	return &Engine{
		resolver:      cfg.Resolver,
		parser:        cfg.Parser,
		modifiers:     cfg.Modifiers,
		logger:        cfg.Logger.With("component", "tal"),
		lenient:       cfg.Lenient,
		indentRepeats: cfg.IndentRepeats,
		maxDepth:      cfg.MaxExtendsDepth,
	}
}

func (e *Engine) Modifiers() *Modifiers {
	return e.modifiers
}

// NewScope builds a scope over ctx that uses the engine's modifiers.
func (e *Engine) NewScope(ctx RenderContext) *Scope {
	sc := NewScope(e.modifiers, mapOf(ctx))
	sc.logger = e.logger
	return sc
}

// Parse parses source with the configured parser.
func (e *Engine) Parse(source string) (*Document, error) {
	doc, err := e.parser.Parse(source)
	if err != nil {
		return nil, parseError("", err)
	}
	return doc, nil
}

func (e *Engine) load(name string) (*Document, error) {
	if e.resolver == nil {
		return nil, notFoundError(name)
	}
	source, ok := e.resolver.Resolve(name)
	if !ok {
		return nil, notFoundError(name)
	}
	doc, err := e.parser.Parse(source)
	if err != nil {
		return nil, parseError(name, err)
	}
	return doc, nil
}

// Process applies the directives of el and its descendants. A nil node
// means the element was removed.
func (e *Engine) Process(el *Element, sc *Scope) (Node, error) {
	r := &renderer{engine: e, filling: map[string]bool{}}
	return r.process(el, sc)
}

// Execute renders a parsed document into w. Nothing is written when
// processing fails.
func (e *Engine) Execute(w io.Writer, doc *Document, ctx RenderContext) error {
	out, err := e.Process(doc.Root, e.NewScope(ctx))
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return errors.WithStack(NewSerializer(w).Write(out))
}

// Render parses markup and renders it into w.
func (e *Engine) Render(w io.Writer, markup string, ctx RenderContext) error {
	doc, err := e.Parse(markup)
	if err == nil {
		err = e.Execute(w, doc, ctx)
	}
	if err != nil && e.lenient && IsKind(err, KindParse) {
		return e.fallback(w, markup, err)
	}
	return err
}

func (e *Engine) RenderString(markup string, ctx RenderContext) (string, error) {
	var buf strings.Builder
	if err := e.Render(&buf, markup, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTemplate renders the template the resolver knows as name.
func (e *Engine) RenderTemplate(w io.Writer, name string, ctx RenderContext) error {
	if e.resolver == nil {
		return notFoundError(name)
	}
	source, ok := e.resolver.Resolve(name)
	if !ok {
		return notFoundError(name)
	}
	doc, err := e.parser.Parse(source)
	if err != nil {
		err = parseError(name, err)
	} else {
		err = e.Execute(w, doc, ctx)
	}
	if err != nil && e.lenient && IsKind(err, KindParse) {
		return e.fallback(w, source, err)
	}
	return err
}

func (e *Engine) RenderTemplateString(name string, ctx RenderContext) (string, error) {
	var buf strings.Builder
	if err := e.RenderTemplate(&buf, name, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Engine) fallback(w io.Writer, source string, cause error) error {
	e.logger.Warn("rendering raw source", "error", cause)
	msg := strings.ReplaceAll(cause.Error(), "--", "- -")
	_, err := io.WriteString(w, "<!-- tal: "+msg+" -->"+source)
	return errors.WithStack(err)
}

// renderer carries the state of one render pass.
type renderer struct {
	engine  *Engine
	depth   int
	filling map[string]bool
}

func (r *renderer) process(el *Element, sc *Scope) (Node, error) {
	directives := ParseDirectives(el.Attrs)
	cur := el.shallow()
	if len(directives) == 0 {
		return r.processChildren(cur, sc)
	}
	stripDirectives(cur)

	// define frames live until this element is done.
	depth := sc.Depth()
	defer func() {
		for sc.Depth() > depth {
			sc.Pop()
		}
	}()

	contentSet := false
	for _, d := range directives {
		switch d.Kind {
		case DirExtends:
			return r.extend(el, d, sc)
		case DirDefine:
			r.define(d, sc)
		case DirCondition:
			if !sc.Evaluate(d.Expr).Bool() {
				return nil, nil
			}
		case DirRepeat:
			out, repeated, err := r.repeat(el, directives, d, sc)
			if err != nil || repeated {
				return out, err
			}
		case DirReplace:
			res := sc.Evaluate(d.Expr)
			return NewText(res.String(), res.Escape()), nil
		case DirAttributes:
			r.attributes(cur, d, sc)
		case DirSlot:
			if out, filled, err := r.fillSlot(d.Expr, sc); err != nil || filled {
				return out, err
			}
		case DirContent:
			res := sc.Evaluate(d.Expr)
			cur.Children = []Node{NewText(res.String(), res.Escape())}
			contentSet = true
		}
	}
	if contentSet {
		return cur, nil
	}
	return r.processChildren(cur, sc)
}

func (r *renderer) processChildren(cur *Element, sc *Scope) (Node, error) {
	if len(cur.Children) == 0 {
		return cur, nil
	}
	children := make([]Node, 0, len(cur.Children))
	for idx, child := range cur.Children {
		el, ok := child.(*Element)
		if !ok {
			children = append(children, child)
			continue
		}
		out, err := r.process(el, sc)
		if err != nil {
			return nil, err
		}
		if out == nil {
			continue
		}
		if frag, ok := out.(*Element); ok && frag.IsFragment() && r.engine.indentRepeats {
			indentRepeat(frag, GetNodeIndent(cur.Children, idx))
		}
		children = append(children, out)
	}
	cur.Children = children
	return cur, nil
}

func stripDirectives(el *Element) {
	attrs := el.Attrs[:0:0]
	for _, attr := range el.Attrs {
		if !IsDirectiveAttr(attr.Name) {
			attrs = append(attrs, attr)
		}
	}
	el.Attrs = attrs
}

func (r *renderer) extend(el *Element, d Directive, sc *Scope) (Node, error) {
	name := d.Expr
	if r.depth >= r.engine.maxDepth {
		return nil, newError(KindRecursion, name,
			errors.Errorf("extends nested deeper than %d", r.engine.maxDepth))
	}
	base, err := r.engine.load(name)
	if err != nil {
		return nil, err
	}
	slots := collectSlots(el)
	r.engine.logger.Debug("extending template", "template", name, "slots", len(slots))

	sc.Push(Map{slotsKey: slots})
	r.depth++
	out, err := r.process(base.Root, sc)
	r.depth--
	sc.Pop()
	return out, err
}

var slotAttr = QName{Space: Namespace, Local: "slot"}

// collectSlots gathers the slot definitions below el in document order. A
// slot's own subtree is not searched, and the first definition of a name
// wins.
func collectSlots(el *Element) slotTable {
	slots := slotTable{}
	var walk func(children []Node)
	walk = func(children []Node) {
		for _, child := range children {
			c, ok := child.(*Element)
			if !ok {
				continue
			}
			if attr, ok := c.Attr(slotAttr); ok {
				name := strings.TrimSpace(attr.Value)
				if _, seen := slots[name]; !seen {
					slots[name] = c
				}
				continue
			}
			walk(c.Children)
		}
	}
	walk(el.Children)
	return slots
}

// fillSlot replaces a slot placeholder with the filler collected from the
// extending template. filled is false when the placeholder keeps its own
// content.
func (r *renderer) fillSlot(name string, sc *Scope) (Node, bool, error) {
	filler, ok := sc.slot(name)
	if !ok || r.filling[name] {
		r.engine.logger.Debug("slot keeps default content", "slot", name)
		return nil, false, nil
	}
	cur := filler.shallow()
	for cur.RemoveAttr(slotAttr) {
	}
	r.filling[name] = true
	out, err := r.process(cur, sc)
	delete(r.filling, name)
	return out, true, err
}

func (r *renderer) define(d Directive, sc *Scope) {
	frame := Map{}
	for _, clause := range ParseClauses(d.Expr) {
		res := sc.Evaluate(clause.Expr)
		if len(res.Modifiers) > 0 {
			frame[clause.Name] = String(res.String())
		} else {
			frame[clause.Name] = res.Raw
		}
	}
	sc.Push(frame)
}

// repeat renders one copy of el per list item. repeated is false when the
// directive is malformed or its source is not a list; the element is then
// rendered once as if the directive were absent.
func (r *renderer) repeat(el *Element, directives []Directive, d Directive, sc *Scope) (Node, bool, error) {
	name, expr, ok := parseRepeat(d.Expr)
	if !ok {
		r.engine.logger.Debug("malformed repeat ignored", "expr", d.Expr)
		return nil, false, nil
	}
	items, ok := sc.Evaluate(expr).List()
	if !ok {
		r.engine.logger.Debug("repeat source is not a list", "expr", expr)
		return nil, false, nil
	}
	tmpl := el.shallow()
	for _, applied := range directives {
		if applied.Rank() >= DirRepeat.Rank() {
			tmpl.RemoveAttr(applied.Attr)
		}
	}
	fragment := NewFragment()
	for idx, item := range items {
		sc.Push(Map{name: item, name + "__index": Number(idx)})
		out, err := r.process(tmpl, sc)
		sc.Pop()
		if err != nil {
			return nil, true, err
		}
		if out != nil {
			fragment.Children = append(fragment.Children, out)
		}
	}
	return fragment, true, nil
}

// parseRepeat reads "item in expr" or "item expr".
func parseRepeat(text string) (name, expr string, ok bool) {
	text = strings.TrimSpace(text)
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return "", "", false
	}
	name, expr = text[:idx], strings.TrimSpace(text[idx:])
	if rest, found := strings.CutPrefix(expr, "in"); found && (rest == "" || unicode.IsSpace(rune(rest[0]))) {
		expr = strings.TrimSpace(rest)
	}
	return name, expr, expr != ""
}

// attributes applies the shorthand form, which removes the attribute when
// the value is empty, or the clause form, which always sets it.
func (r *renderer) attributes(cur *Element, d Directive, sc *Scope) {
	if d.Target != "" {
		res := sc.Evaluate(d.Expr)
		name := ParseQName(d.Target)
		value := res.String()
		if value == "" {
			cur.RemoveAttr(name)
			return
		}
		cur.SetAttr(Attr{Name: name, Value: value, Escape: res.Escape()})
		return
	}
	for _, clause := range ParseClauses(d.Expr) {
		res := sc.Evaluate(clause.Expr)
		cur.SetAttr(Attr{Name: ParseQName(clause.Name), Value: res.String(), Escape: res.Escape()})
	}
}
