package main

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Release is one version section of the changelog.
type Release struct {
	Version string
	Date    string
	Body    string
}

// Notes is a parsed Keep a Changelog file.
type Notes struct {
	Releases []Release
	Links    map[string]string
}

// Find returns the release for a version, tolerating a leading "v".
func (n *Notes) Find(version string) *Release {
	version = strings.TrimPrefix(version, "v")
	for i := range n.Releases {
		if strings.TrimPrefix(n.Releases[i].Version, "v") == version {
			return &n.Releases[i]
		}
	}
	return nil
}

// Latest returns the newest released version, skipping Unreleased.
func (n *Notes) Latest() *Release {
	for i := range n.Releases {
		if !strings.EqualFold(n.Releases[i].Version, "unreleased") {
			return &n.Releases[i]
		}
	}
	return nil
}

// ParseNotes splits a Keep a Changelog markdown file into per-version
// releases using the goldmark AST. Level-2 headings delimit versions; body
// text is sliced between heading positions.
func ParseNotes(source []byte) (*Notes, error) {
	md := goldmark.New()
	ctx := parser.NewContext()
	doc := md.Parser().Parse(text.NewReader(source), parser.WithContext(ctx))

	notes := &Notes{Links: make(map[string]string)}
	for _, ref := range ctx.References() {
		notes.Links[string(ref.Label())] = string(ref.Destination())
	}

	type section struct {
		version string
		date    string
		start   int // offset of the heading line
		body    int // offset just past the heading line
	}
	var sections []section

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}

		version, date := splitHeading(headingText(heading, source))
		sec := section{version: version, date: date}
		if lines := heading.Lines(); lines.Len() > 0 {
			sec.start = lines.At(0).Start
			sec.body = lines.At(lines.Len() - 1).Stop
		}
		sections = append(sections, sec)
		return ast.WalkContinue, nil
	})

	for i, sec := range sections {
		end := len(source)
		if i+1 < len(sections) {
			end = sections[i+1].start
		}
		body := ""
		if sec.body < end {
			body = strings.TrimSpace(string(source[sec.body:end]))
		}
		notes.Releases = append(notes.Releases, Release{
			Version: sec.version,
			Date:    sec.date,
			Body:    body,
		})
	}
	return notes, nil
}

func headingText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			if textNode, ok := child.(*ast.Text); ok {
				buf.Write(textNode.Segment.Value(source))
				continue
			}
			walk(child)
		}
	}
	walk(node)
	return buf.String()
}

// splitHeading parses "[1.2.0] - 2026-01-15" and the unbracketed
// "1.2.0 - 2026-01-15" forms.
func splitHeading(heading string) (version, date string) {
	heading = strings.TrimSpace(strings.TrimPrefix(heading, "["))
	if idx := strings.Index(heading, "]"); idx != -1 {
		version = heading[:idx]
		rest := strings.TrimSpace(heading[idx+1:])
		date = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
		return version, date
	}
	if idx := strings.Index(heading, " - "); idx != -1 {
		return strings.TrimSpace(heading[:idx]), strings.TrimSpace(heading[idx+3:])
	}
	return heading, ""
}
