package cmark_test

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/hesusruiz/cmark/cmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func render(t *testing.T, md string, hopts cmark.HTMLOptions) string {
	t.Helper()
	p := cmark.NewParser(cmark.Options{Logger: zaptest.NewLogger(t).Sugar()})
	hopts.Logger = zaptest.NewLogger(t).Sugar()
	return cmark.NewHTMLRenderer(hopts).RenderString(p.ParseString(md))
}

func TestHTMLSafe(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{
			"html block",
			"<div>\nx\n</div>\n",
			"<!-- raw HTML omitted -->\n",
		},
		{
			"inline html",
			"a <b>x</b>\n",
			"<p>a <!-- raw HTML omitted -->x<!-- raw HTML omitted --></p>\n",
		},
		{
			"javascript link",
			"[a](javascript:alert(1))\n",
			"<p><a>a</a></p>\n",
		},
		{
			"upper case scheme",
			"[a](JAVASCRIPT:x)\n",
			"<p><a>a</a></p>\n",
		},
		{
			"unsafe image",
			"![x](vbscript:y)\n",
			`<p><img src="" alt="x" /></p>` + "\n",
		},
		{
			"safe data image",
			"![x](data:image/png;base64,AAA)\n",
			`<p><img src="data:image/png;base64,AAA" alt="x" /></p>` + "\n",
		},
		{
			"unsafe data",
			"[a](data:text/html;base64,AAA)\n",
			"<p><a>a</a></p>\n",
		},
		{
			"scheme not at start",
			"[a](/x?javascript:y)\n",
			`<p><a href="/x?javascript:y">a</a></p>` + "\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.in, cmark.HTMLOptions{Safe: true}))
		})
	}

	// Without safe mode everything is kept
	assert.Equal(t, `<p><a href="javascript:alert(1)">a</a></p>`+"\n",
		render(t, "[a](javascript:alert(1))\n", cmark.HTMLOptions{}))
}

func TestHTMLSourcePos(t *testing.T) {
	md := "# Hi\n\npara *em*\n\n- a\n- b\n"
	want := `<h1 data-sourcepos="1:1-1:4">Hi</h1>` + "\n" +
		`<p data-sourcepos="3:1-3:9">para <em>em</em></p>` + "\n" +
		`<ul data-sourcepos="5:1-6:3">` + "\n" +
		`<li data-sourcepos="5:1-5:3">a</li>` + "\n" +
		`<li data-sourcepos="6:1-6:3">b</li>` + "\n" +
		"</ul>\n"
	assert.Equal(t, want, render(t, md, cmark.HTMLOptions{SourcePos: true}))
}

func TestHTMLSoftbreak(t *testing.T) {
	assert.Equal(t, "<p>a<br />\nb</p>\n", render(t, "a\nb\n", cmark.HTMLOptions{Softbreak: "<br />\n"}))
	assert.Equal(t, "<p>a b</p>\n", render(t, "a\nb\n", cmark.HTMLOptions{Softbreak: " "}))
	assert.Equal(t, "<p>a\nb</p>\n", render(t, "a\nb\n", cmark.HTMLOptions{}))
}

func TestHTMLCustomEscape(t *testing.T) {
	upper := func(s string) string { return strings.ToUpper(s) }
	assert.Equal(t, "<p>HELLO</p>\n", render(t, "hello\n", cmark.HTMLOptions{Escape: upper}))
}

func TestHTMLRegisterRenderer(t *testing.T) {
	p := cmark.NewParser(cmark.Options{})
	r := cmark.NewHTMLRenderer(cmark.HTMLOptions{})
	r.RegisterRenderer(cmark.EmphNode, func(r *cmark.HTMLRenderer, n *cmark.Node, entering bool) {
		if entering {
			r.Tag("i", nil, false)
		} else {
			r.Tag("/i", nil, false)
		}
	})
	r.RegisterRenderer(cmark.CodeNode, func(r *cmark.HTMLRenderer, n *cmark.Node, entering bool) {
		r.Tag("kbd", [][2]string{{"class", r.Esc(`a"b`)}}, false)
		r.Out(n.Literal)
		r.Tag("/kbd", nil, false)
	})

	got := r.RenderString(p.ParseString("*x* `<y>`\n"))
	assert.Equal(t, `<p><i>x</i> <kbd class="a&quot;b">&lt;y&gt;</kbd></p>`+"\n", got)
}

func TestHTMLCustomNodes(t *testing.T) {
	doc := cmark.NewNode(cmark.DocumentNode, [2][2]int{{1, 1}, {1, 1}})
	section := cmark.NewNode(cmark.CustomBlockNode, [2][2]int{{1, 1}, {1, 1}})
	section.OnEnter = `<section class="note">`
	section.OnExit = "</section>"
	doc.AppendChild(section)

	para := cmark.NewNode(cmark.ParagraphNode, [2][2]int{{1, 1}, {1, 1}})
	section.AppendChild(para)

	mark := cmark.NewNode(cmark.CustomInlineNode, [2][2]int{{-1, -1}, {-1, -1}})
	mark.OnEnter = "<mark>"
	mark.OnExit = "</mark>"
	para.AppendChild(mark)

	text := cmark.NewNode(cmark.TextNode, [2][2]int{{-1, -1}, {-1, -1}})
	text.Literal = "x & y"
	mark.AppendChild(text)

	got := cmark.NewHTMLRenderer(cmark.HTMLOptions{}).RenderString(doc)
	assert.Equal(t, `<section class="note">`+"\n<p><mark>x &amp; y</mark></p>\n</section>\n", got)
}

func TestHTMLImageAltText(t *testing.T) {
	got := render(t, `![a *b* [c](/d) `+"`e`"+`](/img.png "T")`+"\n", cmark.HTMLOptions{})
	assert.Equal(t, `<p><img src="/img.png" alt="a b c e" title="T" /></p>`+"\n", got)
}

func TestHTMLRendererReuse(t *testing.T) {
	p := cmark.NewParser(cmark.Options{})
	r := cmark.NewHTMLRenderer(cmark.HTMLOptions{})

	first := r.Render(p.ParseString("# one\n"))
	second := r.Render(p.ParseString("two\n"))
	assert.Equal(t, "<h1>one</h1>\n", string(first))
	assert.Equal(t, "<p>two</p>\n", string(second))
}

func TestHTMLHighlight(t *testing.T) {
	md := "```go\nfunc main() {}\n```\n"
	got := render(t, md, cmark.HTMLOptions{Highlight: true})
	assert.True(t, strings.HasPrefix(got, `<pre><code class="language-go">`), got)
	assert.Contains(t, got, "<span")
	assert.Contains(t, got, "main")
	assert.True(t, strings.HasSuffix(got, "</code></pre>\n"), got)

	// Unknown languages are written as plain text
	md = "```nosuchlang\n<x>\n```\n"
	got = render(t, md, cmark.HTMLOptions{Highlight: true})
	assert.Equal(t, `<pre><code class="language-nosuchlang">&lt;x&gt;`+"\n</code></pre>\n", got)
}

func TestHighlightNoLexer(t *testing.T) {
	var b strings.Builder
	err := cmark.Highlight(&b, "nosuchlang", "x", "github")
	assert.ErrorIs(t, err, cmark.ErrNoLexer)
	assert.Zero(t, b.Len())
}

func TestHTMLDiagram(t *testing.T) {
	if testing.Short() {
		t.Skip("diagram layout is slow")
	}

	md := "```d2\nx -> y\n```\n"
	got := render(t, md, cmark.HTMLOptions{Diagrams: true, SourcePos: true})
	assert.Regexp(t, regexp.MustCompile(`^<figure data-sourcepos="1:1-3:3" class="diagram">`), got)
	assert.Contains(t, got, "<svg")
	assert.True(t, strings.HasSuffix(got, "</figure>\n"), got)

	// Without the option the source is kept
	got = render(t, md, cmark.HTMLOptions{})
	assert.Equal(t, `<pre><code class="language-d2">x -&gt; y`+"\n</code></pre>\n", got)
}

func TestHTMLDiagramFallback(t *testing.T) {
	got := render(t, "```d2\n```\n", cmark.HTMLOptions{Diagrams: true})
	assert.Equal(t, `<pre><code class="language-d2"></code></pre>`+"\n", got)

	_, err := cmark.RenderDiagram(context.Background(), "  \n")
	require.ErrorIs(t, err, cmark.ErrNoContent)
}

func TestInlineHandler(t *testing.T) {
	reMention := regexp.MustCompile(`^@[A-Za-z0-9_]+`)
	mention := func(p *cmark.InlineParser, block *cmark.Node) bool {
		m, ok := p.Match(reMention)
		if !ok {
			return false
		}
		link := cmark.NewNode(cmark.LinkNode, [2][2]int{{-1, -1}, {-1, -1}})
		link.Destination = "/users/" + m[1:]
		block.AppendChild(link)
		p.AppendText(link, m)
		return true
	}

	parser := cmark.NewParser(cmark.Options{
		InlineHandlers: map[rune]cmark.InlineHandler{'@': mention},
	})
	r := cmark.NewHTMLRenderer(cmark.HTMLOptions{})

	got := r.RenderString(parser.ParseString("hi @bob and @ alone, `@code`\n"))
	assert.Equal(t, `<p>hi <a href="/users/bob">@bob</a> and @ alone, <code>@code</code></p>`+"\n", got)
}

func TestCachedDiagram(t *testing.T) {
	dir := t.TempDir()
	source := "a -> b\n"
	cached := filepath.Join(dir, fmt.Sprintf("d2_%x.svg", md5.Sum([]byte(source))))
	require.NoError(t, os.WriteFile(cached, []byte("<svg>cached</svg>"), 0664))

	svg, err := cmark.CachedDiagram(context.Background(), dir, source)
	require.NoError(t, err)
	assert.Equal(t, "<svg>cached</svg>", string(svg))

	md := "```d2\n" + source + "```\n"
	got := render(t, md, cmark.HTMLOptions{Diagrams: true, DiagramCacheDir: dir})
	assert.Equal(t, `<figure class="diagram"><svg>cached</svg></figure>`+"\n", got)

	_, err = cmark.CachedDiagram(context.Background(), dir, "")
	assert.ErrorIs(t, err, cmark.ErrNoContent)
}
