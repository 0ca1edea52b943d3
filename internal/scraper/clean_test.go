package scraper

import (
	"strings"
	"testing"
)

func TestCleanArticleTextStripsAttribution(t *testing.T) {
	tests := []struct {
		name  string
		input string
		gone  string
	}{
		{
			name:  "inline source note",
			input: "这是一段正文。图片来源于网络，侵删。后面还有正文。",
			gone:  "图片来源",
		},
		{
			name:  "parenthesized note",
			input: "正文开始（图片来源：某网站）正文继续。",
			gone:  "图片来源",
		},
		{
			name:  "bracketed note",
			input: "正文开始【图片来源网络】正文继续。",
			gone:  "图片来源",
		},
		{
			name:  "bare filler",
			input: "第一段。网络配图。第二段。",
			gone:  "网络配图",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanArticleText(tt.input)
			if strings.Contains(got, tt.gone) {
				t.Errorf("CleanArticleText(%q) = %q, still contains %q", tt.input, got, tt.gone)
			}
			if !strings.Contains(got, "正文") && !strings.Contains(got, "段") {
				t.Errorf("CleanArticleText(%q) = %q, lost surrounding prose", tt.input, got)
			}
		})
	}
}

func TestCleanArticleTextCollapsesPunctuationRuns(t *testing.T) {
	got := CleanArticleText("第一句，，。第二句。")
	if strings.Contains(got, "，。") || strings.Contains(got, "，，") {
		t.Errorf("punctuation run survived: %q", got)
	}
}

func TestCleanArticleTextTerminalPunctuation(t *testing.T) {
	got := CleanArticleText("没有结尾标点的句子")
	if !strings.HasSuffix(got, "。") {
		t.Errorf("expected trailing period, got %q", got)
	}

	got = CleanArticleText("已经有结尾了！")
	if strings.HasSuffix(got, "！。") {
		t.Errorf("period appended after existing terminal mark: %q", got)
	}
}

func TestCleanArticleTextPreservesParagraphBreaks(t *testing.T) {
	got := CleanArticleText("第一段。\n\n\n第二段。")
	if !strings.Contains(got, "\n\n") {
		t.Errorf("paragraph break lost: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank lines not collapsed: %q", got)
	}
}

func TestCleanArticleTextEmpty(t *testing.T) {
	if got := CleanArticleText(""); got != "" {
		t.Errorf("CleanArticleText(\"\") = %q, want empty", got)
	}
	if got := CleanArticleText("，，。"); got != "" {
		t.Errorf("punctuation-only input should clean to empty, got %q", got)
	}
}
