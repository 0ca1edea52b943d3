package scraper

import (
	"testing"
)

type stubNode struct {
	text    string
	attrs   map[string]string
	visible bool
}

func (s *stubNode) Text() string { return s.text }
func (s *stubNode) Attribute(name string) string {
	return s.attrs[name]
}
func (s *stubNode) Visible() bool { return s.visible }

func TestFirstTextBySelectorsFallbackOrder(t *testing.T) {
	dom := map[string]*stubNode{
		"article .content": {text: "正文内容在这里，长度足够。", visible: true},
		".fallback":        {text: "备用内容。", visible: true},
	}
	lookup := func(selector string) node {
		n, ok := dom[selector]
		if !ok {
			return nil
		}
		return n
	}

	got := firstTextBySelectors([]string{".missing", "article .content", ".fallback"}, lookup)
	if got != "正文内容在这里，长度足够。" {
		t.Errorf("expected first productive selector to win, got %q", got)
	}
}

func TestFirstTextBySelectorsSkipsInvisibleAndEmpty(t *testing.T) {
	dom := map[string]*stubNode{
		".hidden": {text: "看不见的内容。", visible: false},
		".empty":  {text: "   ", visible: true},
		".real":   {text: "真正的内容。", visible: true},
	}
	lookup := func(selector string) node {
		n, ok := dom[selector]
		if !ok {
			return nil
		}
		return n
	}

	got := firstTextBySelectors([]string{".hidden", ".empty", ".real"}, lookup)
	if got != "真正的内容。" {
		t.Errorf("expected hidden and empty candidates skipped, got %q", got)
	}
}

func TestFirstTextBySelectorsNoMatch(t *testing.T) {
	lookup := func(string) node { return nil }
	if got := firstTextBySelectors([]string{".a", ".b"}, lookup); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestCollectImagesFirstProductiveSelectorWins(t *testing.T) {
	dom := map[string][]*stubNode{
		".gallery img": {
			{attrs: map[string]string{"src": "https://img.example.com/a.jpg"}},
			{attrs: map[string]string{"src": "//img.example.com/b.jpg"}},
			{attrs: map[string]string{"src": "data:image/png;base64,xxxx"}},
		},
		"article img": {
			{attrs: map[string]string{"src": "https://img.example.com/other.jpg"}},
		},
	}
	lookupAll := func(selector string) []node {
		stubs := dom[selector]
		nodes := make([]node, 0, len(stubs))
		for _, s := range stubs {
			nodes = append(nodes, s)
		}
		return nodes
	}

	got := collectImages([]string{".missing img", ".gallery img", "article img"},
		"https://news.example.com/article/1", lookupAll)

	if len(got) != 2 {
		t.Fatalf("expected 2 fetchable images, got %d", len(got))
	}
	if got[0].URL != "https://img.example.com/a.jpg" {
		t.Errorf("image[0] = %q", got[0].URL)
	}
	if got[1].URL != "https://img.example.com/b.jpg" {
		t.Errorf("protocol-relative src not resolved: %q", got[1].URL)
	}
	for _, img := range got {
		if img.Referer != "https://news.example.com/article/1" {
			t.Errorf("missing referer on %q", img.URL)
		}
	}
}

func TestNormalizeArticleURL(t *testing.T) {
	tests := []struct {
		base string
		href string
		want string
	}{
		{"https://www.toutiao.com", "https://www.toutiao.com/article/1", "https://www.toutiao.com/article/1"},
		{"https://www.toutiao.com", "/article/2", "https://www.toutiao.com/article/2"},
		{"https://www.toutiao.com/", "/article/3", "https://www.toutiao.com/article/3"},
		{"https://www.toutiao.com", "article/4", "https://www.toutiao.com/article/4"},
		{"https://www.toutiao.com", "//cdn.example.com/a", "https://cdn.example.com/a"},
		{"https://www.toutiao.com", "", ""},
	}
	for _, tt := range tests {
		if got := normalizeArticleURL(tt.base, tt.href); got != tt.want {
			t.Errorf("normalizeArticleURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}
