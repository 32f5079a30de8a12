package report

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var thinkPattern = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// ExtractAnalysisSteps returns the content of the first <think>...</think> pair, or "".
func ExtractAnalysisSteps(narrative string) string {
	m := thinkPattern.FindStringSubmatch(narrative)
	if m == nil {
		return ""
	}
	return m[1]
}

// RemoveThinkContent drops the first <think>...</think> pair and keeps everything else
func RemoveThinkContent(narrative string) string {
	loc := thinkPattern.FindStringIndex(narrative)
	if loc == nil {
		return narrative
	}
	return narrative[:loc[0]] + narrative[loc[1]:]
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.TaskList),
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// PlainText converts markdown to HTML and then to plain text with tags removed
// and entities decoded. Block boundaries become newlines.
func PlainText(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}

	var html bytes.Buffer
	if err := markdown.Convert([]byte(source), &html); err != nil {
		return strings.TrimSpace(source)
	}

	doc, err := goquery.NewDocumentFromReader(&html)
	if err != nil {
		return strings.TrimSpace(source)
	}

	// list items and table cells run together otherwise
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	doc.Find("td, th").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	doc.Find("br").ReplaceWithHtml("\n")

	text := strings.ReplaceAll(doc.Text(), "\r", "")
	return strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n\n"))
}
