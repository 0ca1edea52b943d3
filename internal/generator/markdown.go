package generator

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// timestampText matches the bare HH:MM labels chat platforms render
// under each message.
var timestampText = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// timestampLine matches a timestamp that survived into the converted
// Markdown as a line of its own.
var timestampLine = regexp.MustCompile(`(?m)^[ \t]*\d{1,2}:\d{2}[ \t]*$\n?`)

// StripChatNoise removes platform chrome from a captured response:
// action buttons, inline icons, and the per-message timestamp labels.
// Malformed HTML is returned unchanged; the Markdown converter copes.
func StripChatNoise(rawHTML string) string {
	doc, err := htmlquery.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	for _, n := range htmlquery.Find(doc, "//button|//svg") {
		detach(n)
	}
	for _, n := range htmlquery.Find(doc, "//*[not(*)]") {
		if timestampText.MatchString(strings.TrimSpace(htmlquery.InnerText(n))) {
			detach(n)
		}
	}

	body := htmlquery.FindOne(doc, "//body")
	if body == nil {
		return rawHTML
	}
	var buf bytes.Buffer
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return rawHTML
		}
	}
	return buf.String()
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ToMarkdown converts a cleaned response fragment to Markdown and
// drops any timestamp lines the HTML pass missed.
func ToMarkdown(rawHTML string) (string, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(StripChatNoise(rawHTML))
	if err != nil {
		return "", err
	}
	markdown = timestampLine.ReplaceAllString(markdown, "")
	return strings.TrimSpace(markdown), nil
}

// WordCount counts non-whitespace runes. CJK prose has no word
// boundaries to split on, so characters are the unit the minimum-length
// gate is expressed in.
func WordCount(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}
