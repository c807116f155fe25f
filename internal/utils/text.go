package utils

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// PlainText 去除 HTML 标签（含 script/style 内容），返回纯文本
func PlainText(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return strings.TrimSpace(input)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return strings.TrimSpace(input)
	}
	doc.Find("script, style, iframe").Remove()
	return strings.TrimSpace(doc.Text())
}

// Slugify 生成 URL 友好的 slug，保留中文等字母字符
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}

// NormalizeGenres 规范化逗号分隔的类型列表：去空格、小写、去重
func NormalizeGenres(s string) string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range strings.Split(s, ",") {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return strings.Join(out, ",")
}
