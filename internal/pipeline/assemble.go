package pipeline

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/scribeflow/scribeflow/internal/types"
)

// Document is an article draft moving through the assembly chain.
type Document struct {
	Title    string
	Markdown string
	// Images are ready-made Markdown image links waiting to be placed.
	Images []string
}

// Transform rewrites a draft. Return nil to drop the document entirely.
type Transform interface {
	// Name returns the transform's identifier.
	Name() string

	// Apply transforms a document. Return nil to drop it.
	Apply(doc *Document) (*Document, error)
}

// Chain runs a document through transforms in order.
type Chain struct {
	transforms []Transform
	logger     *slog.Logger
}

// NewChain creates an empty assembly chain.
func NewChain(logger *slog.Logger) *Chain {
	return &Chain{logger: logger.With("component", "assembly")}
}

// Use appends a transform to the chain.
func (c *Chain) Use(t Transform) {
	c.transforms = append(c.transforms, t)
	c.logger.Debug("transform added", "name", t.Name(), "position", len(c.transforms))
}

// Apply runs the document through all transforms in order.
func (c *Chain) Apply(doc *Document) (*Document, error) {
	current := doc
	for _, t := range c.transforms {
		result, err := t.Apply(current)
		if err != nil {
			return nil, &types.AssemblyError{Stage: t.Name(), Err: err}
		}
		if result == nil {
			c.logger.Debug("document dropped", "stage", t.Name(), "title", doc.Title)
			return nil, nil
		}
		current = result
	}
	return current, nil
}

// DefaultChain builds the standard assembly: whitespace cleanup, chat
// residue removal, then image placement.
func DefaultChain(logger *slog.Logger) *Chain {
	c := NewChain(logger)
	c.Use(&TrimTransform{})
	c.Use(&ResidueTransform{})
	c.Use(&ImageTransform{})
	return c
}

// --- Built-in transforms ---

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// TrimTransform normalizes whitespace: no leading or trailing blank
// space, at most one blank line between blocks.
type TrimTransform struct{}

func (t *TrimTransform) Name() string { return "trim" }

func (t *TrimTransform) Apply(doc *Document) (*Document, error) {
	doc.Markdown = excessBlankLines.ReplaceAllString(strings.TrimSpace(doc.Markdown), "\n\n")
	return doc, nil
}

var residueLine = regexp.MustCompile(`(?m)^[ \t]*(\d{1,2}:\d{2}|Copy|复制|分享|重新生成)[ \t]*$\n?`)

// ResidueTransform drops chat-interface residue that survives into the
// Markdown when responses from several rounds are concatenated: bare
// timestamps and the text of action buttons.
type ResidueTransform struct{}

func (t *ResidueTransform) Name() string { return "residue" }

func (t *ResidueTransform) Apply(doc *Document) (*Document, error) {
	doc.Markdown = residueLine.ReplaceAllString(doc.Markdown, "")
	return doc, nil
}

// galleryHeading collects the images that found no section of their
// own.
const galleryHeading = "## 相关图片"

// ImageTransform places one image link after each second-level heading,
// in document order. Images left over when the headings run out are
// gathered under a trailing gallery heading. A document with no images
// passes through unchanged.
type ImageTransform struct{}

func (t *ImageTransform) Name() string { return "images" }

func (t *ImageTransform) Apply(doc *Document) (*Document, error) {
	if len(doc.Images) == 0 {
		return doc, nil
	}

	lines := strings.Split(doc.Markdown, "\n")
	var out []string
	next := 0
	for _, line := range lines {
		out = append(out, line)
		if next < len(doc.Images) && strings.HasPrefix(line, "## ") {
			out = append(out, "", doc.Images[next])
			next++
		}
	}

	if next < len(doc.Images) {
		out = append(out, "", galleryHeading, "")
		for _, img := range doc.Images[next:] {
			out = append(out, img, "")
		}
	}

	doc.Markdown = strings.TrimRight(strings.Join(out, "\n"), "\n")
	return doc, nil
}
