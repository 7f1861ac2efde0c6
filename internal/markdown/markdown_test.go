package markdown

import (
	"strings"
	"testing"
)

func TestRenderHeadingsAndParagraphs(t *testing.T) {
	got := Render("# Título\n\nTexto simples")
	if !strings.Contains(got, "<h1>Título</h1>") {
		t.Fatalf("заголовок не отрендерен: %q", got)
	}
	if !strings.Contains(got, "<p>Texto simples</p>") {
		t.Fatalf("абзац не отрендерен: %q", got)
	}
}

func TestRenderList(t *testing.T) {
	got := Render("- um\n- dois\n\ndepois")
	if !strings.Contains(got, "<ul>\n<li>um</li>\n<li>dois</li>\n</ul>") {
		t.Fatalf("список не отрендерен: %q", got)
	}
	if strings.Index(got, "</ul>") > strings.Index(got, "<p>depois</p>") {
		t.Fatalf("список должен закрыться до абзаца: %q", got)
	}
}

func TestRenderPreBlockKeepsMarkup(t *testing.T) {
	got := Render("```\n**não é negrito**\n- não é lista\n```")
	if !strings.Contains(got, "<pre><code>") || !strings.Contains(got, "</code></pre>") {
		t.Fatalf("блок кода не отрендерен: %q", got)
	}
	if strings.Contains(got, "<strong>") || strings.Contains(got, "<li>") {
		t.Fatalf("внутри pre подстановки не применяются: %q", got)
	}
}

func TestRenderUnclosedPreBlock(t *testing.T) {
	got := Render("```\nsem fechamento")
	if !strings.HasSuffix(got, "</code></pre>\n") {
		t.Fatalf("незакрытый блок должен закрываться в конце: %q", got)
	}
}

func TestRenderInline(t *testing.T) {
	got := Render("**forte** e *suave* com `codigo` e [link](https://example.com)")
	for _, want := range []string{
		"<strong>forte</strong>",
		"<em>suave</em>",
		"<code>codigo</code>",
		`<a href="https://example.com">link</a>`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("нет %q в %q", want, got)
		}
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	got := Render("<script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Fatalf("HTML должен экранироваться: %q", got)
	}
}
