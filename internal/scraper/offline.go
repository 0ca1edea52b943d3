package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// extractOffline parses a full-page HTML snapshot with the same
// candidate selector lists the live path uses. It is the fallback when
// per-element lookups find nothing, which happens on pages that detach
// nodes faster than the protocol can query them. XPath candidates are
// skipped; this path only speaks CSS.
func extractOffline(rawHTML, pageURL string, sel config.SiteSelectors) *types.ScrapedArticle {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	title := offlineFirstText(doc, sel.Titles)
	content := offlineFirstText(doc, sel.Contents)
	if content == "" {
		return nil
	}

	return &types.ScrapedArticle{
		URL:     pageURL,
		Title:   title,
		Content: content,
		Images:  offlineImages(doc, sel.Images, pageURL),
	}
}

func offlineFirstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if isXPathSelector(selector) {
			continue
		}
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return CleanArticleText(text)
		}
	}
	return ""
}

func offlineImages(doc *goquery.Document, selectors []string, referer string) []types.ImageRef {
	for _, selector := range selectors {
		if isXPathSelector(selector) {
			continue
		}
		var images []types.ImageRef
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			src, ok := normalizeImageURL(s.AttrOr("src", ""))
			if !ok {
				return
			}
			images = append(images, types.ImageRef{URL: src, Referer: referer})
		})
		if len(images) > 0 {
			return images
		}
	}
	return nil
}

func isXPathSelector(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}
