// Package codegen lowers a resolved Pomsky AST into regex source for a
// target flavor. It runs in two passes: the first resolves `let`-bound
// variable references and collects declared named-capture-group names, the
// second walks the tree once more to emit text and resolve backreferences
// against that name set.
package codegen

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pomsky-lang/pomsky-go/internal/ast"
	"github.com/pomsky-lang/pomsky-go/internal/parser"
	"github.com/pomsky-lang/pomsky-go/internal/span"
)

// Flavor selects the target regex engine's dialect.
type Flavor int

const (
	Pcre Flavor = iota
	JavaScript
	Ruby
	Python
	Java
	DotNet
	Rust
)

func (f Flavor) String() string {
	switch f {
	case Pcre:
		return "Pcre"
	case JavaScript:
		return "JavaScript"
	case Ruby:
		return "Ruby"
	case Python:
		return "Python"
	case Java:
		return "Java"
	case DotNet:
		return "DotNet"
	case Rust:
		return "Rust"
	default:
		return "unknown flavor"
	}
}

// Options configures a compile.
type Options struct {
	Flavor Flavor
}

// Compile resolves result's variable references and named backreferences
// and emits regex source for opts.Flavor.
func Compile(result *parser.Result, opts Options) (string, error) {
	resolved, errs := resolveVariables(result.Root, result.Bindings, map[string]bool{})
	if len(errs) > 0 {
		return "", multiple(errs)
	}

	state := &compileState{groupNames: map[string]bool{}}
	collectGroupNames(resolved, state)

	text, errs := emitNode(resolved, state, opts.Flavor)
	if len(errs) > 0 {
		return "", multiple(errs)
	}
	return text, nil
}

type compileState struct {
	groupNames map[string]bool
}

func collectGroupNames(node ast.Node, state *compileState) {
	switch n := node.(type) {
	case *ast.Group:
		if n.Kind == ast.GroupCapturing && n.Name != "" {
			state.groupNames[n.Name] = true
		}
		for _, c := range n.Children {
			collectGroupNames(c, state)
		}
	case *ast.Alternation:
		for _, c := range n.Children {
			collectGroupNames(c, state)
		}
	case *ast.Repetition:
		collectGroupNames(n.Child, state)
	}
}

// resolveVariables inlines every VariableRef against bindings, recursing
// into the bound expression itself (bindings may reference earlier
// bindings). A binding that refers to itself, directly or transitively, is
// reported the same way as an unbound name — Pomsky's `let` has no
// recursion to preserve.
func resolveVariables(node ast.Node, bindings map[string]ast.Node, resolving map[string]bool) (ast.Node, []*Error) {
	switch n := node.(type) {
	case *ast.VariableRef:
		bound, ok := bindings[n.Name]
		if !ok || resolving[n.Name] {
			similar, hasSimilar := suggestBindingName(n.Name, bindings)
			return nil, []*Error{{Kind: KindUnknownVariable, Sp: n.Sp, Name: n.Name, Similar: similar, HasSimilar: hasSimilar}}
		}
		resolving[n.Name] = true
		resolvedBound, errs := resolveVariables(bound, bindings, resolving)
		delete(resolving, n.Name)
		return resolvedBound, errs

	case *ast.Group:
		children, errs := resolveChildren(n.Children, bindings, resolving)
		if errs != nil {
			return nil, errs
		}
		return &ast.Group{Kind: n.Kind, Capturing: n.Capturing, Name: n.Name, Children: children, Sp: n.Sp}, nil

	case *ast.Alternation:
		children, errs := resolveChildren(n.Children, bindings, resolving)
		if errs != nil {
			return nil, errs
		}
		return ast.NewAlternation(children, n.Sp), nil

	case *ast.Repetition:
		child, errs := resolveVariables(n.Child, bindings, resolving)
		if errs != nil {
			return nil, errs
		}
		rep, err := ast.NewRepetition(child, n.Lower, n.Upper, n.Greedy, n.Sp)
		if err != nil {
			// lower/upper already validated at parse time; unreachable.
			return nil, []*Error{{Kind: KindUnknownVariable, Sp: n.Sp}}
		}
		return rep, nil

	default:
		return n, nil
	}
}

func resolveChildren(children []ast.Node, bindings map[string]ast.Node, resolving map[string]bool) ([]ast.Node, []*Error) {
	out := make([]ast.Node, 0, len(children))
	var allErrs []*Error
	for _, c := range children {
		r, errs := resolveVariables(c, bindings, resolving)
		if errs != nil {
			allErrs = append(allErrs, errs...)
			continue
		}
		out = append(out, r)
	}
	if allErrs != nil {
		return nil, allErrs
	}
	return out, nil
}

func suggestBindingName(name string, bindings map[string]ast.Node) (string, bool) {
	if len(bindings) == 0 {
		return "", false
	}
	candidates := make([]string, 0, len(bindings))
	for k := range bindings {
		candidates = append(candidates, k)
	}
	sort.Strings(candidates)
	ranked := fuzzy.RankFindFold(name, candidates)
	if len(ranked) == 0 {
		return "", false
	}
	sort.Sort(ranked)
	return ranked[0].Target, true
}

func emitNode(node ast.Node, state *compileState, flavor Flavor) (string, []*Error) {
	switch n := node.(type) {
	case *ast.Literal:
		return regexp.QuoteMeta(n.Text), nil

	case *ast.CharClass:
		return emitCharClass(n, flavor)

	case *ast.Boundary:
		return emitBoundary(n), nil

	case *ast.Grapheme:
		if flavor == JavaScript {
			return "", []*Error{{Kind: KindUnsupported, Sp: n.Sp, Feature: "grapheme cluster (\\X)", Flavor: flavor}}
		}
		return `\X`, nil

	case *ast.Backref:
		if !state.groupNames[n.Name] {
			similar, hasSimilar := suggestGroupName(n.Name, state.groupNames)
			return "", []*Error{{Kind: KindUnknownReferenceName, Sp: n.Sp, Name: n.Name, Similar: similar, HasSimilar: hasSimilar}}
		}
		return backrefSyntax(flavor, n.Name), nil

	case *ast.Group:
		return emitGroup(n, state, flavor)

	case *ast.Alternation:
		return emitAlternation(n, state, flavor)

	case *ast.Repetition:
		return emitRepetition(n, state, flavor)

	default:
		return "", []*Error{{Kind: KindUnsupported, Feature: fmt.Sprintf("%T", node), Flavor: flavor}}
	}
}

func emitChildren(children []ast.Node, state *compileState, flavor Flavor) (string, []*Error) {
	var sb strings.Builder
	var allErrs []*Error
	for _, c := range children {
		text, errs := emitNode(c, state, flavor)
		if errs != nil {
			allErrs = append(allErrs, errs...)
			continue
		}
		sb.WriteString(text)
	}
	if allErrs != nil {
		return "", allErrs
	}
	return sb.String(), nil
}

func emitGroup(g *ast.Group, state *compileState, flavor Flavor) (string, []*Error) {
	inner, errs := emitChildren(g.Children, state, flavor)
	if errs != nil {
		return "", errs
	}
	switch g.Kind {
	case ast.GroupSequence:
		return inner, nil
	case ast.GroupPlain:
		return "(?:" + inner + ")", nil
	case ast.GroupCapturing:
		if g.Name == "" {
			return "(" + inner + ")", nil
		}
		return namedGroupOpen(flavor) + g.Name + ">" + inner + ")", nil
	case ast.GroupLookaheadKind:
		return "(?=" + inner + ")", nil
	case ast.GroupLookaheadNegKind:
		return "(?!" + inner + ")", nil
	case ast.GroupLookbehindKind:
		return "(?<=" + inner + ")", nil
	case ast.GroupLookbehindNegKind:
		return "(?<!" + inner + ")", nil
	default:
		return "", []*Error{{Kind: KindUnsupported, Sp: g.Sp, Feature: "unknown group kind", Flavor: flavor}}
	}
}

func namedGroupOpen(flavor Flavor) string {
	if flavor == Python {
		return "(?P<"
	}
	return "(?<"
}

func backrefSyntax(flavor Flavor, name string) string {
	if flavor == Python {
		return "(?P=" + name + ")"
	}
	return `\k<` + name + `>`
}

func emitAlternation(a *ast.Alternation, state *compileState, flavor Flavor) (string, []*Error) {
	parts := make([]string, len(a.Children))
	var allErrs []*Error
	for i, c := range a.Children {
		text, errs := emitNode(c, state, flavor)
		if errs != nil {
			allErrs = append(allErrs, errs...)
			continue
		}
		parts[i] = text
	}
	if allErrs != nil {
		return "", allErrs
	}
	return strings.Join(parts, "|"), nil
}

func emitBoundary(b *ast.Boundary) string {
	switch b.Kind {
	case ast.Start:
		return "^"
	case ast.End:
		return "$"
	case ast.Word:
		return `\b`
	case ast.NotWord:
		return `\B`
	default:
		return ""
	}
}

// needsParensBeforeRepetition reports whether child must be wrapped in a
// non-capturing group before a quantifier can be applied to it. Only
// multi-part constructs need it: everything else (char classes, groups,
// boundaries, backreferences, graphemes) already renders as a single regex
// atom. A multi-rune literal can be a parsed repetition child directly
// (`'ab'*`), and `let` inlining can also put an Alternation or a
// multi-atom sequence in that place, so all three are checked here.
func needsParensBeforeRepetition(child ast.Node) bool {
	switch n := child.(type) {
	case *ast.Alternation:
		return true
	case *ast.Group:
		return n.Kind == ast.GroupSequence && len(n.Children) > 1
	case *ast.Literal:
		return len([]rune(n.Text)) > 1
	default:
		return false
	}
}

func emitRepetition(r *ast.Repetition, state *compileState, flavor Flavor) (string, []*Error) {
	childText, errs := emitNode(r.Child, state, flavor)
	if errs != nil {
		return "", errs
	}
	if needsParensBeforeRepetition(r.Child) {
		childText = "(?:" + childText + ")"
	}

	quantifier, isExactCount := repetitionQuantifier(r.Lower, r.Upper)
	if !isExactCount && r.Greedy == ast.GreedyNo {
		quantifier += "?"
	}
	return childText + quantifier, nil
}

// repetitionQuantifier canonicalizes {lower,upper} into the shortest
// regex-native quantifier: {0,1}->?, {0,}->*, {1,}->+, {n,}, {n,n}->{n},
// {0,m}->{,m}, else {n,m}. The second return reports whether the result is
// an exact count ({n}), for which a trailing lazy `?` would be meaningless.
func repetitionQuantifier(lower uint32, upper *uint32) (string, bool) {
	if upper == nil {
		switch lower {
		case 0:
			return "*", false
		case 1:
			return "+", false
		default:
			return "{" + strconv.FormatUint(uint64(lower), 10) + ",}", false
		}
	}
	hi := *upper
	switch {
	case lower == 0 && hi == 1:
		return "?", false
	case lower == hi:
		return "{" + strconv.FormatUint(uint64(lower), 10) + "}", true
	case lower == 0:
		return "{," + strconv.FormatUint(uint64(hi), 10) + "}", false
	default:
		return "{" + strconv.FormatUint(uint64(lower), 10) + "," + strconv.FormatUint(uint64(hi), 10) + "}", false
	}
}

var namedClassAliases = map[string]string{
	"word":  "w",
	"digit": "d",
	"space": "s",
}

// perlShorthand is universally portable across every supported flavor.
var perlShorthand = map[string]string{"w": `\w`, "d": `\d`, "s": `\s`}

// asciiOnlyShorthand is widely supported but not by every flavor's regex
// engine (notably JavaScript's), so it's gated per flavor.
var asciiOnlyShorthand = map[string]string{"h": `\h`, "v": `\v`}

func emitNamedClass(name string, flavor Flavor, sp span.Span) (string, []*Error) {
	if alias, ok := namedClassAliases[name]; ok {
		name = alias
	}
	if esc, ok := perlShorthand[name]; ok {
		return esc, nil
	}
	if esc, ok := asciiOnlyShorthand[name]; ok {
		if flavor == Pcre || flavor == Ruby {
			return esc, nil
		}
		return "", []*Error{{Kind: KindUnsupported, Sp: sp, Feature: "named class `" + name + "`", Flavor: flavor}}
	}
	if name == "n" {
		return `\n`, nil
	}
	if name == "r" {
		return `\r`, nil
	}
	// Unicode script/category name: pass through for the target engine to
	// resolve, e.g. `\p{L}`.
	return `\p{` + name + `}`, nil
}

func emitCharClass(c *ast.CharClass, flavor Flavor) (string, []*Error) {
	if len(c.Items) == 1 && !c.Negated {
		if named, ok := c.Items[0].(ast.NamedClassItem); ok {
			return emitNamedClass(string(named), flavor, c.Sp)
		}
	}

	var body strings.Builder
	var allErrs []*Error
	for _, item := range c.Items {
		switch it := item.(type) {
		case ast.CodePointItem:
			body.WriteString(escapeClassChar(rune(it)))
		case ast.RangeItem:
			body.WriteString(escapeClassChar(it.Lo))
			body.WriteByte('-')
			body.WriteString(escapeClassChar(it.Hi))
		case ast.NamedClassItem:
			text, errs := emitNamedClass(string(it), flavor, c.Sp)
			if errs != nil {
				allErrs = append(allErrs, errs...)
				continue
			}
			body.WriteString(text)
		case ast.NestedItem:
			if it.Class.Negated {
				allErrs = append(allErrs, &Error{Kind: KindUnsupported, Sp: c.Sp, Feature: "negated class nested in a union", Flavor: flavor})
				continue
			}
			nested, errs := emitCharClassBody(it.Class, flavor)
			if errs != nil {
				allErrs = append(allErrs, errs...)
				continue
			}
			body.WriteString(nested)
		}
	}
	if allErrs != nil {
		return "", allErrs
	}

	prefix := ""
	if c.Negated {
		prefix = "^"
	}
	return "[" + prefix + body.String() + "]", nil
}

// emitCharClassBody renders just the bracket contents, for splicing a
// nested union's items into their parent's brackets.
func emitCharClassBody(c *ast.CharClass, flavor Flavor) (string, []*Error) {
	full, errs := emitCharClass(c, flavor)
	if errs != nil {
		return "", errs
	}
	return strings.TrimSuffix(strings.TrimPrefix(full, "["), "]"), nil
}

func escapeClassChar(r rune) string {
	switch r {
	case '\\', ']', '^', '-':
		return `\` + string(r)
	default:
		return string(r)
	}
}

func suggestGroupName(name string, groupNames map[string]bool) (string, bool) {
	if len(groupNames) == 0 {
		return "", false
	}
	candidates := make([]string, 0, len(groupNames))
	for k := range groupNames {
		candidates = append(candidates, k)
	}
	sort.Strings(candidates)
	ranked := fuzzy.RankFindFold(name, candidates)
	if len(ranked) == 0 {
		return "", false
	}
	sort.Sort(ranked)
	return ranked[0].Target, true
}
