package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kitbuilder587/gnews-go/pkg/gnews"
)

// MaxMessageLength - лимит Telegram на длину одного сообщения
const MaxMessageLength = 4096

const maxDescriptionLength = 200

func FormatArticles(title string, resp gnews.Response) string {
	articles := resp.Articles()
	if len(articles) == 0 {
		return "Ничего не найдено."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n\n", html.EscapeString(title)))

	for i, a := range articles {
		headline := html.EscapeString(stringField(a, "title"))
		if headline == "" {
			headline = "Без заголовка"
		}

		if link := stringField(a, "url"); link != "" {
			sb.WriteString(fmt.Sprintf("%d. <a href=\"%s\">%s</a>\n", i+1, html.EscapeString(link), headline))
		} else {
			sb.WriteString(fmt.Sprintf("%d. <b>%s</b>\n", i+1, headline))
		}

		if meta := articleMeta(a); meta != "" {
			sb.WriteString(fmt.Sprintf("   <i>%s</i>\n", html.EscapeString(meta)))
		}
		if desc := stringField(a, "description"); desc != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", html.EscapeString(truncate(desc, maxDescriptionLength))))
		}
		sb.WriteString("\n")
	}

	total := resp.TotalArticles()
	if total < len(articles) {
		total = len(articles)
	}
	sb.WriteString(fmt.Sprintf("Показано %d из %d", len(articles), total))
	return sb.String()
}

func searchTitle(query string) string {
	return fmt.Sprintf("Новости по запросу «%s»", query)
}

func headlinesTitle(params gnews.Params) string {
	if category, ok := params[gnews.ParamCategory].(string); ok && category != "" {
		return "Главные новости: " + category
	}
	return "Главные новости"
}

// источник · дата
func articleMeta(a map[string]any) string {
	var parts []string
	if source, ok := a["source"].(map[string]any); ok {
		if name := stringField(source, "name"); name != "" {
			parts = append(parts, name)
		}
	}
	if published := stringField(a, "publishedAt"); published != "" {
		parts = append(parts, formatPublished(published))
	}
	return strings.Join(parts, " · ")
}

func formatPublished(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.UTC().Format("02.01.2006 15:04 UTC")
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// SplitMessage режет текст на части не длиннее maxLen символов.
// Режем по строкам, длинную строку - по последнему пробелу вне HTML-тега.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var (
		parts  []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > maxLen {
			flush()
		}
		if n <= maxLen {
			cur.WriteString(line)
			curLen += n
			continue
		}

		chunks := splitLine([]rune(line), maxLen)
		parts = append(parts, chunks[:len(chunks)-1]...)
		last := chunks[len(chunks)-1]
		cur.WriteString(last)
		curLen = utf8.RuneCountInString(last)
	}
	flush()

	return parts
}

func splitLine(r []rune, maxLen int) []string {
	var chunks []string
	for len(r) > maxLen {
		cut := lastSafeCut(r, maxLen)
		chunks = append(chunks, string(r[:cut]))
		r = r[cut:]
	}
	return append(chunks, string(r))
}

// сначала пробел вне тега, потом любая граница вне тега
func lastSafeCut(r []rune, maxLen int) int {
	for i := maxLen - 1; i > 0; i-- {
		if r[i] == ' ' && !isInsideHTMLTag(r, i) {
			return i + 1
		}
	}
	for cut := maxLen; cut > 0; cut-- {
		if !isInsideHTMLTag(r, cut-1) || r[cut-1] == '>' {
			return cut
		}
	}
	// тег длиннее maxLen
	return maxLen
}

func isInsideHTMLTag(r []rune, pos int) bool {
	if pos < 0 || pos >= len(r) {
		return false
	}
	for i := pos; i >= 0; i-- {
		switch r[i] {
		case '>':
			return i == pos
		case '<':
			return true
		}
	}
	return false
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
