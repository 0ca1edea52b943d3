package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-rod/rod/lib/proto"

	"github.com/scribeflow/scribeflow/internal/browser"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/types"
)

// Scraper drives the shared browser session through a news-site search
// and harvests article text and image references.
type Scraper struct {
	session   *browser.Session
	cfg       config.ScraperConfig
	intervene Interventionist
	logger    *slog.Logger
}

func New(session *browser.Session, cfg config.ScraperConfig, intervene Interventionist, logger *slog.Logger) *Scraper {
	return &Scraper{
		session:   session,
		cfg:       cfg,
		intervene: intervene,
		logger:    logger.With("component", "scraper"),
	}
}

// Scrape searches the configured site for the keyword and returns up to
// article_count articles whose content clears the minimum length.
// Returns an error only for conditions that make scraping impossible:
// a dead home page or an unresolved verification challenge. Zero
// matching articles is a nil slice, not an error.
func (s *Scraper) Scrape(ctx context.Context, keyword string) ([]types.ScrapedArticle, error) {
	if !s.session.Navigate(s.cfg.HomeURL, s.cfg.ElementTimeout*2) {
		return nil, fmt.Errorf("home page %s unreachable", s.cfg.HomeURL)
	}
	if err := s.checkVerification(); err != nil {
		return nil, fmt.Errorf("home page verification: %w", err)
	}

	homeTab := s.session.CurrentTabID()
	resultsTab, opened, err := s.search(keyword)
	if err != nil {
		return nil, err
	}
	if opened {
		defer func() {
			s.session.CloseTab(resultsTab)
			s.session.SwitchTo(homeTab)
		}()
	}

	if err := s.checkVerification(); err != nil {
		return nil, fmt.Errorf("results page verification: %w", err)
	}

	if s.cfg.Selectors.NewsTab != "" {
		if s.session.ClickSelector(s.cfg.Selectors.NewsTab, s.cfg.ElementTimeout) {
			s.logger.Debug("switched to news results")
			time.Sleep(2 * time.Second)
		}
	}

	var articles []types.ScrapedArticle
	for pageNum := 1; pageNum <= s.cfg.MaxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return articles, err
		}
		s.logger.Info("scraping results page", "page", pageNum, "collected", len(articles))

		pageArticles := s.scrapeResultsPage(ctx, resultsTab, s.cfg.ArticleCount-len(articles))
		articles = append(articles, pageArticles...)
		if len(articles) >= s.cfg.ArticleCount {
			break
		}
		if !s.nextPage(pageNum + 1) {
			s.logger.Info("no further results pages", "page", pageNum)
			break
		}
	}

	s.logger.Info("scrape finished", "keyword", keyword, "articles", len(articles))
	return articles, nil
}

// search fills the search box and submits. The site opens results in a
// new tab; when none appears the current tab is assumed to hold them.
func (s *Scraper) search(keyword string) (proto.TargetTargetID, bool, error) {
	input := s.session.FindElement(s.cfg.Selectors.SearchInput, s.cfg.ElementTimeout)
	if input == nil {
		return "", false, fmt.Errorf("search input %s never appeared", s.cfg.Selectors.SearchInput)
	}
	if !s.session.TypeText(input, keyword, true) {
		return "", false, fmt.Errorf("typing keyword into %s failed", s.cfg.Selectors.SearchInput)
	}

	before := s.session.TabIDs()
	if !s.session.ClickSelector(s.cfg.Selectors.SearchButton, s.cfg.ElementTimeout) {
		return "", false, fmt.Errorf("search button %s not clickable", s.cfg.Selectors.SearchButton)
	}

	if id, ok := s.session.DiffNewTab(before, s.cfg.ElementTimeout); ok {
		s.logger.Debug("results opened in new tab", "target", id)
		return id, true, nil
	}
	s.logger.Debug("results loaded in place")
	return s.session.CurrentTabID(), false, nil
}

// scrapeResultsPage walks the article links on the current results page
// and opens each in its own tab. Links are re-located before every
// click; result lists re-render and stale handles go nowhere.
func (s *Scraper) scrapeResultsPage(ctx context.Context, resultsTab proto.TargetTargetID, need int) []types.ScrapedArticle {
	selector, count := s.firstLinkSelector()
	if selector == "" {
		s.logger.Warn("no article links found on results page")
		return nil
	}
	s.logger.Debug("article links located", "selector", selector, "count", count)

	var articles []types.ScrapedArticle
	for i := 0; i < count && len(articles) < need; i++ {
		if ctx.Err() != nil {
			break
		}
		links := s.session.FindElements(selector, s.cfg.ElementTimeout)
		if i >= len(links) {
			break
		}
		link := links[i]
		href := normalizeArticleURL(s.origin(), link.Attribute("href"))
		if href == "" {
			continue
		}

		link.ScrollIntoView()
		before := s.session.TabIDs()
		if !s.session.Click(link) {
			s.logger.Warn("article link not clickable", "index", i, "url", href)
			continue
		}

		articleTab, ok := s.session.DiffNewTab(before, 30*time.Second)
		if !ok {
			s.logger.Warn("article tab never opened", "url", href)
			continue
		}

		article := s.extractArticle()
		s.session.CloseTab(articleTab)
		s.session.SwitchTo(resultsTab)

		if article != nil {
			articles = append(articles, *article)
			s.logger.Info("article collected",
				"title", article.Title, "chars", utf8.RuneCountInString(article.Content),
				"images", len(article.Images))
		}
		time.Sleep(s.cfg.ArticleDelay)
	}
	return articles
}

// firstLinkSelector returns the first candidate selector that matches
// anything on the page, with its match count.
func (s *Scraper) firstLinkSelector() (string, int) {
	for _, selector := range s.cfg.Selectors.ArticleLinks {
		els := s.session.FindElements(selector, 5*time.Second)
		if len(els) > 0 {
			return selector, len(els)
		}
	}
	return "", 0
}

// extractArticle pulls title, content, and image references out of the
// currently active tab. Nil when the content is missing or too short to
// be a real article.
func (s *Scraper) extractArticle() *types.ScrapedArticle {
	time.Sleep(s.cfg.ArticleDelay)
	pageURL := s.session.CurrentURL()

	title := firstTextBySelectors(s.cfg.Selectors.Titles, s.lookupNode)
	content := firstTextBySelectors(s.cfg.Selectors.Contents, s.lookupNode)
	images := collectImages(s.cfg.Selectors.Images, pageURL, s.lookupAllNodes)

	if content == "" {
		// Some pages detach nodes before the protocol can read them.
		// Parse a one-shot HTML snapshot with the same selector lists.
		raw := s.session.Eval(`() => document.documentElement.outerHTML`).Str()
		if off := extractOffline(raw, pageURL, s.cfg.Selectors); off != nil {
			s.logger.Debug("offline extraction fallback used", "url", pageURL)
			if title == "" {
				title = off.Title
			}
			content = off.Content
			if len(images) == 0 {
				images = off.Images
			}
		}
	}

	if utf8.RuneCountInString(content) <= s.cfg.MinContentLength {
		s.logger.Debug("content too short, skipping", "url", pageURL)
		return nil
	}
	if title == "" {
		title = "无标题"
	}
	return &types.ScrapedArticle{
		URL:     pageURL,
		Title:   title,
		Content: content,
		Images:  images,
	}
}

// nextPage advances the results list. Selectors containing %d address
// an exact page-number control; the rest are generic next buttons.
func (s *Scraper) nextPage(page int) bool {
	for _, candidate := range s.cfg.Selectors.NextPage {
		selector := candidate
		if strings.Contains(candidate, "%d") {
			selector = fmt.Sprintf(candidate, page)
		}
		el := s.session.FindElement(selector, 3*time.Second)
		if el == nil || !el.Visible() {
			continue
		}
		if s.session.Click(el) {
			time.Sleep(3 * time.Second)
			return true
		}
	}
	return false
}

func (s *Scraper) origin() string {
	u, err := url.Parse(s.cfg.HomeURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(s.cfg.HomeURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

func (s *Scraper) lookupNode(selector string) node {
	el := s.session.FindElement(selector, 2*time.Second)
	if el == nil {
		return nil
	}
	return el
}

func (s *Scraper) lookupAllNodes(selector string) []node {
	els := s.session.FindElements(selector, 2*time.Second)
	nodes := make([]node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, el)
	}
	return nodes
}
