package model

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

// SourceFile is an immutable parsed source file. Two SourceFile values are
// "the same observed state" iff they are the identical reference; structural
// equality is never used for change detection.
type SourceFile interface {
	Tree

	Path() string
	WithPath(path string) SourceFile
	WithID(id uuid.UUID) SourceFile
	WithMarkers(ms Markers) SourceFile

	// MarkNode attaches m to the descendant node with the given id, or to
	// the file itself when nodeID is uuid.Nil or no such node exists.
	MarkNode(nodeID uuid.UUID, m Marker) SourceFile

	// Print writes the canonical, marker-free rendering of the file.
	Print(w io.Writer) error
}

// PrintString renders a file through its canonical printer.
func PrintString(f SourceFile) string {
	var b strings.Builder

	_ = f.Print(&b)

	return b.String()
}

// PlainText is the language-agnostic SourceFile the engine ships with. Its
// tree is the leading text plus an ordered list of snippets.
type PlainText struct {
	id       uuid.UUID
	path     string
	text     string
	markers  Markers
	snippets []*TextSnippet
}

// NewPlainText builds a plain-text source file with a fresh id.
func NewPlainText(path, text string) *PlainText {
	return &PlainText{id: uuid.New(), path: path, text: text}
}

// ID implements Tree.
func (p *PlainText) ID() uuid.UUID { return p.id }

// Markers implements Tree.
func (p *PlainText) Markers() Markers { return p.markers }

// Path implements SourceFile.
func (p *PlainText) Path() string { return p.path }

// Text returns the leading text of the file, excluding snippets.
func (p *PlainText) Text() string { return p.text }

// Snippets returns the file's snippet nodes.
func (p *PlainText) Snippets() []*TextSnippet { return p.snippets }

// WithID implements SourceFile.
func (p *PlainText) WithID(id uuid.UUID) SourceFile {
	if id == p.id {
		return p
	}

	out := *p
	out.id = id

	return &out
}

// WithPath implements SourceFile.
func (p *PlainText) WithPath(path string) SourceFile {
	if path == p.path {
		return p
	}

	out := *p
	out.path = path

	return &out
}

// WithMarkers implements SourceFile.
func (p *PlainText) WithMarkers(ms Markers) SourceFile {
	out := *p
	out.markers = ms

	return &out
}

// WithText returns a copy with the leading text replaced, or the receiver
// when the text is identical.
func (p *PlainText) WithText(text string) *PlainText {
	if text == p.text {
		return p
	}

	out := *p
	out.text = text

	return &out
}

// WithSnippets returns a copy with the snippet list replaced.
func (p *PlainText) WithSnippets(snippets []*TextSnippet) *PlainText {
	out := *p
	out.snippets = snippets

	return &out
}

// MarkNode implements SourceFile.
func (p *PlainText) MarkNode(nodeID uuid.UUID, m Marker) SourceFile {
	if nodeID != uuid.Nil {
		for i, s := range p.snippets {
			if s.ID() != nodeID {
				continue
			}

			snippets := make([]*TextSnippet, len(p.snippets))
			copy(snippets, p.snippets)
			snippets[i] = s.WithMarkers(s.Markers().With(m))

			return p.WithSnippets(snippets)
		}
	}

	return p.WithMarkers(p.markers.With(m))
}

// Print implements SourceFile. Markers never appear in printed output.
func (p *PlainText) Print(w io.Writer) error {
	if _, err := io.WriteString(w, p.text); err != nil {
		return err
	}

	for _, s := range p.snippets {
		if _, err := io.WriteString(w, s.Text()); err != nil {
			return err
		}
	}

	return nil
}

// TextSnippet is a marker-bearing span of text inside a PlainText file.
type TextSnippet struct {
	id      uuid.UUID
	text    string
	markers Markers
}

// NewTextSnippet builds a snippet node with a fresh id.
func NewTextSnippet(text string) *TextSnippet {
	return &TextSnippet{id: uuid.New(), text: text}
}

// ID implements Tree.
func (s *TextSnippet) ID() uuid.UUID { return s.id }

// Markers implements Tree.
func (s *TextSnippet) Markers() Markers { return s.markers }

// Text returns the snippet content.
func (s *TextSnippet) Text() string { return s.text }

// WithText returns a copy with the content replaced, or the receiver when
// the content is identical.
func (s *TextSnippet) WithText(text string) *TextSnippet {
	if text == s.text {
		return s
	}

	out := *s
	out.text = text

	return &out
}

// WithMarkers returns a copy carrying the given marker set.
func (s *TextSnippet) WithMarkers(ms Markers) *TextSnippet {
	out := *s
	out.markers = ms

	return &out
}
