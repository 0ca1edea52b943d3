package types

// ImageRef is an image URL paired with the page it was found on. The
// referer is required when downloading: the source CDN rejects requests
// without one.
type ImageRef struct {
	URL     string `json:"url"`
	Referer string `json:"referer"`
}

// ScrapedArticle is the extraction result for one article page. Held in
// memory for the duration of a single task.
type ScrapedArticle struct {
	URL     string     `json:"url"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Images  []ImageRef `json:"images"`
}

// GenerationResult is one completed generation round.
type GenerationResult struct {
	HTML      string
	Markdown  string
	WordCount int
}
