// Package markdown рендерит подмножество Markdown, используемое в
// поле text элементов контента: заголовки, списки, блоки кода и
// строчные выделения. Построчный конечный автомат с тремя
// состояниями: обычный текст, список, преформатированный блок.
package markdown

import (
	"html"
	"regexp"
	"strings"
)

type state int

const (
	stateNormal state = iota
	stateList
	statePre
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`([^`]+)`")
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
)

// Render преобразует текст в HTML. Вход считается доверенным
// контентом автора, но экранируется перед подстановками.
func Render(src string) string {
	var out strings.Builder
	st := stateNormal

	flushList := func() {
		if st == stateList {
			out.WriteString("</ul>\n")
			st = stateNormal
		}
	}

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if st == statePre {
				out.WriteString("</code></pre>\n")
				st = stateNormal
				continue
			}
			flushList()
			out.WriteString("<pre><code>")
			st = statePre
			continue
		}
		if st == statePre {
			out.WriteString(html.EscapeString(line))
			out.WriteString("\n")
			continue
		}

		switch {
		case trimmed == "":
			flushList()
		case strings.HasPrefix(trimmed, "### "):
			flushList()
			out.WriteString("<h3>" + inline(strings.TrimPrefix(trimmed, "### ")) + "</h3>\n")
		case strings.HasPrefix(trimmed, "## "):
			flushList()
			out.WriteString("<h2>" + inline(strings.TrimPrefix(trimmed, "## ")) + "</h2>\n")
		case strings.HasPrefix(trimmed, "# "):
			flushList()
			out.WriteString("<h1>" + inline(strings.TrimPrefix(trimmed, "# ")) + "</h1>\n")
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			if st != stateList {
				out.WriteString("<ul>\n")
				st = stateList
			}
			out.WriteString("<li>" + inline(trimmed[2:]) + "</li>\n")
		default:
			flushList()
			out.WriteString("<p>" + inline(trimmed) + "</p>\n")
		}
	}

	if st == statePre {
		out.WriteString("</code></pre>\n")
	}
	if st == stateList {
		out.WriteString("</ul>\n")
	}
	return out.String()
}

// inline применяет строчные подстановки к экранированному тексту.
func inline(s string) string {
	s = html.EscapeString(s)
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = linkRe.ReplaceAllString(s, `<a href="$2">$1</a>`)
	return s
}
