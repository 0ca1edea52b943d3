package scraper

import (
	"regexp"
	"strings"
)

// Photo-attribution boilerplate that news sites inject between
// paragraphs. Each pattern consumes up to the next sentence boundary so
// the surrounding prose survives intact.
var attributionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`图片来源于网络[，。、]*[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`图片来源：[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`图源：[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`配图来源[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`（图片来源[^）]*）`),
	regexp.MustCompile(`\(图片来源[^)]*\)`),
	regexp.MustCompile(`【图片来源[^】]*】`),
	regexp.MustCompile(`图片版权归[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`图片仅供参考[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`图片与内容无关[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`图片为配图[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`网络配图[。！？]?`),
	regexp.MustCompile(`图片来自网络[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`图片素材来源[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`图片来源网络[^。！？\n]*[。！？]?`),
}

var (
	emptyBrackets = []*regexp.Regexp{
		regexp.MustCompile(`（\s*）`),
		regexp.MustCompile(`【\s*】`),
		regexp.MustCompile(`\(\s*\)`),
		regexp.MustCompile(`\[\s*\]`),
	}
	danglingParen = regexp.MustCompile(`([\p{Han}\w])（\s*([\p{Han}\w])`)
	punctRun      = regexp.MustCompile(`[，。、][ \t，。、]*([，。、])`)
	blankLines    = regexp.MustCompile(`\n\s*\n`)
	spaceRuns     = regexp.MustCompile(`[ \t]+`)
	leadingPunct  = regexp.MustCompile(`^[，。、\s]+`)
	trailingPunct = regexp.MustCompile(`[，。、\s]+$`)
)

// CleanArticleText strips photo-attribution boilerplate and repairs the
// punctuation damage the removal leaves behind.
func CleanArticleText(text string) string {
	cleaned := text
	for _, re := range attributionPatterns {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	for _, re := range emptyBrackets {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = danglingParen.ReplaceAllString(cleaned, "$1$2")

	// Removal leaves punctuation runs behind; a run collapses to its
	// final mark.
	cleaned = punctRun.ReplaceAllString(cleaned, "$1")

	cleaned = blankLines.ReplaceAllString(cleaned, "\n\n")
	cleaned = spaceRuns.ReplaceAllString(cleaned, " ")
	cleaned = leadingPunct.ReplaceAllString(cleaned, "")
	cleaned = trailingPunct.ReplaceAllString(cleaned, "")

	if cleaned != "" && !strings.HasSuffix(cleaned, "。") &&
		!strings.HasSuffix(cleaned, "！") && !strings.HasSuffix(cleaned, "？") {
		cleaned += "。"
	}
	return strings.TrimSpace(cleaned)
}
