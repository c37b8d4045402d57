package view

import (
	"bytes"
	"regexp"

	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// NarrativeConverter renders section markdown. Two shorthands link the copy
// to the explorer:
//
//	`Texas`  a code span naming a state becomes a link selecting that state
//	@2019    becomes a link changing the year
type NarrativeConverter struct {
	states   map[string]bool
	goldmark goldmark.Markdown
}

func NewNarrativeConverter(regions dataset.RegionLookup) *NarrativeConverter {
	nc := &NarrativeConverter{states: make(map[string]bool, len(regions))}
	for _, name := range regions {
		nc.states[name] = true
	}
	nc.goldmark = goldmark.New(goldmark.WithExtensions(&narrativeExtension{nc: nc}))
	return nc
}

func (nc *NarrativeConverter) ConvertToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := nc.goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type narrativeExtension struct {
	nc *NarrativeConverter
}

func (e *narrativeExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(&narrativeTransformer{nc: e.nc}, 100),
		),
	)
}

type narrativeTransformer struct {
	nc *NarrativeConverter
}

var yearRefRegex = regexp.MustCompile(`@((?:19|20)[0-9]{2})\b`)

func stateLink(state string) *ast.Link {
	link := ast.NewLink()
	link.Destination = []byte("#state=" + state)
	link.SetAttributeString("class", []byte("state-link"))
	link.SetAttributeString("data-state", []byte(state))
	link.AppendChild(link, ast.NewString([]byte(state)))
	return link
}

func yearLink(year string) *ast.Link {
	link := ast.NewLink()
	link.Destination = []byte("#year=" + year)
	link.SetAttributeString("class", []byte("year-link"))
	link.SetAttributeString("data-year", []byte(year))
	link.AppendChild(link, ast.NewString([]byte(year)))
	return link
}

func (t *narrativeTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	// Nodes are replaced after the walk.
	var codeSpans, texts []ast.Node
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeSpan:
			codeSpans = append(codeSpans, n)
			return ast.WalkSkipChildren, nil
		case ast.KindText:
			texts = append(texts, n)
		}
		return ast.WalkContinue, nil
	})

	src := reader.Source()
	for _, n := range codeSpans {
		var name bytes.Buffer
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if txt, ok := c.(*ast.Text); ok {
				name.Write(txt.Segment.Value(src))
			}
		}
		if t.nc.states[name.String()] {
			n.Parent().ReplaceChild(n.Parent(), n, stateLink(name.String()))
		}
	}

	for _, n := range texts {
		txt := n.(*ast.Text)
		content := string(txt.Segment.Value(src))
		matches := yearRefRegex.FindAllStringSubmatchIndex(content, -1)
		if len(matches) == 0 {
			continue
		}
		parent := n.Parent()
		lastIndex := 0
		for _, m := range matches {
			if m[0] > lastIndex {
				parent.InsertBefore(parent, n, ast.NewString([]byte(content[lastIndex:m[0]])))
			}
			parent.InsertBefore(parent, n, yearLink(content[m[2]:m[3]]))
			lastIndex = m[1]
		}
		rest := ast.NewString([]byte(content[lastIndex:]))
		if txt.SoftLineBreak() {
			rest.Value = append(rest.Value, '\n')
		}
		parent.InsertBefore(parent, n, rest)
		parent.RemoveChild(parent, n)
	}
}
