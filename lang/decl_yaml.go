package lang

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/goccy/go-yaml"
)

// RulesDocument is the YAML form of a set of declarations.
//
//	sentinel: eager_1
//	macros:
//	  - name: add
//	    eager: true
//	    doc: ["adds two expressions"]
//	    rules:
//	      - pattern: "($a:expr, $b:expr)"
//	        template: "$a + $b"
//
// A pattern written as a single group is matched against the group contents,
// so `($a:expr, $b:expr)` and `$a:expr, $b:expr` are equivalent. Templates
// are used as written.
type RulesDocument struct {
	Sentinel string          `yaml:"sentinel,omitempty"`
	Macros   []MacroDocument `yaml:"macros"`
}

// MacroDocument is the YAML form of a [Declaration].
type MacroDocument struct {
	Name  string         `yaml:"name"`
	Doc   []string       `yaml:"doc,omitempty"`
	Attrs []string       `yaml:"attrs,omitempty"`
	Rules []RuleDocument `yaml:"rules"`
	Eager bool           `yaml:"eager"`
}

// RuleDocument is the YAML form of a [Rule].
type RuleDocument struct {
	Pattern  string `yaml:"pattern"`
	Template string `yaml:"template"`
}

// ParseDeclarationsYAML decodes a [RulesDocument] and returns its
// declarations and sentinel.
func ParseDeclarationsYAML(ctx context.Context, data []byte) ([]Declaration, string, error) {
	var doc RulesDocument

	if err := yaml.UnmarshalContext(ctx, data, &doc, yaml.DisallowUnknownField()); err != nil {
		return nil, "", ErrDeclaration.Wrap(err).With(slog.String("format", "yaml"))
	}

	decls := make([]Declaration, 0, len(doc.Macros))

	for _, m := range doc.Macros {
		d, err := m.declaration(ctx, doc.Sentinel)
		if err != nil {
			return nil, "", err
		}

		decls = append(decls, d)
	}

	return decls, doc.Sentinel, nil
}

func (m MacroDocument) declaration(ctx context.Context, sentinel string) (Declaration, error) {
	d := Declaration{Name: m.Name, Eager: m.Eager}
	if m.Eager {
		d.Sentinel = sentinel
	}

	for _, line := range m.Doc {
		d.Meta = append(d.Meta, docAttr(line)...)
	}

	for _, attr := range m.Attrs {
		body, err := Scan(ctx, attr)
		if err != nil {
			return Declaration{}, WrapError(err).With(
				slog.String("name", m.Name),
				slog.String("attr", attr),
			)
		}

		d.Meta = append(d.Meta, Token{Kind: KindPunct, Text: "#", Joint: true}, Group(DelimSquare, body...))
	}

	for i, r := range m.Rules {
		pattern, err := Scan(ctx, r.Pattern)
		if err == nil && len(pattern) == 1 && pattern[0].IsGroup() {
			pattern = pattern[0].Tokens
		}

		var template []Token
		if err == nil {
			template, err = Scan(ctx, r.Template)
		}

		if err != nil {
			return Declaration{}, WrapError(err).With(
				slog.String("name", m.Name),
				slog.Int("rule", i),
			)
		}

		d.Rules = append(d.Rules, Rule{Pattern: pattern, Template: template})
	}

	return d, nil
}

// Document returns the YAML form of the declarations of macros.
func Document(sentinel string, macros []*Macro) RulesDocument {
	doc := RulesDocument{Sentinel: sentinel}

	for _, m := range macros {
		md := MacroDocument{Name: m.Name(), Eager: m.Eager(), Doc: m.Doc()}

		for _, attr := range splitAttrs(m.Meta()) {
			if len(docLines(attr)) > 0 || attrWidth(attr) == 0 {
				continue
			}

			md.Attrs = append(md.Attrs, String(attr[1].Tokens))
		}

		for _, r := range m.Rules() {
			md.Rules = append(md.Rules, RuleDocument{
				Pattern:  Group(DelimRound, r.Pattern...).String(),
				Template: String(r.Template),
			})
		}

		doc.Macros = append(doc.Macros, md)
	}

	return doc
}

// Marshal encodes doc with the given indent.
func (doc RulesDocument) Marshal(ctx context.Context, indent int) ([]byte, error) {
	return yaml.MarshalContext(ctx, doc, yaml.Indent(max(indent, 1)))
}

func docAttr(text string) []Token {
	return []Token{
		{Kind: KindPunct, Text: "#", Joint: true},
		Group(DelimSquare, Ident("doc"), Punct("="), Literal(strconv.Quote(text))),
	}
}
