package cmark

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	reUnsafeProtocol   = regexp.MustCompile(`(?i)^(?:javascript|vbscript|file|data):`)
	reSafeDataProtocol = regexp.MustCompile(`(?i)^data:image/(?:png|gif|jpeg|webp)`)
)

// potentiallyUnsafe reports whether url uses a scheme that safe mode drops.
func potentiallyUnsafe(url string) bool {
	return reUnsafeProtocol.MatchString(url) && !reSafeDataProtocol.MatchString(url)
}

// HTMLOptions configure an HTMLRenderer.
type HTMLOptions struct {
	// Safe replaces raw HTML with a comment and drops unsafe link and image URLs.
	Safe bool

	// SourcePos adds data-sourcepos attributes to block elements.
	SourcePos bool

	// Softbreak is written for soft line breaks. Empty means "\n".
	Softbreak string

	// Types describes the node kinds. Nil means DefaultTypes.
	Types *TypeTable

	// Escape replaces EscapeXML for text and attribute values.
	Escape func(string) string

	// Highlight formats fenced code with a known language through chroma,
	// using HighlightStyle ("github" when empty).
	Highlight      bool
	HighlightStyle string

	// Diagrams renders code blocks with the "d2" info string as inline SVG.
	// The SVG files are kept in DiagramCacheDir when it is set.
	Diagrams        bool
	DiagramCacheDir string

	Logger *zap.SugaredLogger
}

// NodeRenderFunc renders one event of the walk. Leaves are only visited
// entering.
type NodeRenderFunc func(r *HTMLRenderer, n *Node, entering bool)

// HTMLRenderer turns a document tree into HTML.
type HTMLRenderer struct {
	ByteRenderer
	opts        HTMLOptions
	types       *TypeTable
	esc         func(string) string
	log         *zap.SugaredLogger
	renderers   map[NodeType]NodeRenderFunc
	disableTags int
}

// NewHTMLRenderer returns a renderer configured with opts.
func NewHTMLRenderer(opts HTMLOptions) *HTMLRenderer {
	r := &HTMLRenderer{
		opts:  opts,
		types: opts.Types,
		esc:   opts.Escape,
		log:   opts.Logger,
	}
	if r.opts.Softbreak == "" {
		r.opts.Softbreak = "\n"
	}
	if r.opts.HighlightStyle == "" {
		r.opts.HighlightStyle = "github"
	}
	if r.types == nil {
		r.types = DefaultTypes()
	}
	if r.esc == nil {
		r.esc = EscapeXML
	}
	if r.log == nil {
		r.log = zap.NewNop().Sugar()
	}

	r.renderers = map[NodeType]NodeRenderFunc{
		TextNode:          renderText,
		SoftbreakNode:     renderSoftbreak,
		LinebreakNode:     renderLinebreak,
		LinkNode:          renderLink,
		ImageNode:         renderImage,
		EmphNode:          renderTagPair("em"),
		StrongNode:        renderTagPair("strong"),
		ParagraphNode:     renderParagraph,
		HeadingNode:       renderHeading,
		CodeNode:          renderCode,
		CodeBlockNode:     renderCodeBlock,
		ThematicBreakNode: renderThematicBreak,
		BlockQuoteNode:    renderBlockQuote,
		ListNode:          renderList,
		ItemNode:          renderItem,
		HTMLInlineNode:    renderHTMLInline,
		HTMLBlockNode:     renderHTMLBlock,
		CustomInlineNode:  renderCustomInline,
		CustomBlockNode:   renderCustomBlock,
	}
	return r
}

// RegisterRenderer sets the function rendering kind t, replacing the
// built-in one if any.
func (r *HTMLRenderer) RegisterRenderer(t NodeType, fn NodeRenderFunc) {
	r.renderers[t] = fn
}

// Render returns the HTML for the tree rooted at root.
func (r *HTMLRenderer) Render(root *Node) []byte {
	r.Reset()
	r.disableTags = 0

	w := NewWalker(root, r.types)
	for node, entering := w.Next(); node != nil; node, entering = w.Next() {
		if !entering && !r.types.IsContainer(node) {
			continue
		}
		if fn, ok := r.renderers[node.Type]; ok {
			fn(r, node, entering)
		}
	}
	return r.CloneBytes()
}

// RenderString is Render returning a string.
func (r *HTMLRenderer) RenderString(root *Node) string {
	return string(r.Render(root))
}

// Out writes s escaped.
func (r *HTMLRenderer) Out(s string) {
	r.Lit(r.esc(s))
}

// Esc escapes s with the configured function.
func (r *HTMLRenderer) Esc(s string) string {
	return r.esc(s)
}

// Attrs returns the attributes common to every element of n.
func (r *HTMLRenderer) Attrs(n *Node) [][2]string {
	if !r.opts.SourcePos || !hasSourcePos(n) {
		return nil
	}
	return [][2]string{{"data-sourcepos", sourcePosAttr(n)}}
}

// Tag writes an HTML tag. Attribute values must be already escaped.
// Nothing is written inside the alt text of an image.
func (r *HTMLRenderer) Tag(name string, attrs [][2]string, selfClosing bool) {
	if r.disableTags > 0 {
		return
	}
	r.buf.WriteByte('<')
	r.buf.WriteString(name)
	for _, a := range attrs {
		r.buf.WriteString(" " + a[0] + `="` + a[1] + `"`)
	}
	if selfClosing {
		r.buf.WriteString(" /")
	}
	r.buf.WriteByte('>')
	r.lastOut = ">"
}

func renderText(r *HTMLRenderer, n *Node, entering bool) {
	r.Out(n.Literal)
}

func renderSoftbreak(r *HTMLRenderer, n *Node, entering bool) {
	r.Lit(r.opts.Softbreak)
}

func renderLinebreak(r *HTMLRenderer, n *Node, entering bool) {
	r.Tag("br", nil, true)
	r.CR()
}

func renderLink(r *HTMLRenderer, n *Node, entering bool) {
	if !entering {
		r.Tag("/a", nil, false)
		return
	}
	attrs := r.Attrs(n)
	if !(r.opts.Safe && potentiallyUnsafe(n.Destination)) {
		attrs = append(attrs, [2]string{"href", r.esc(n.Destination)})
	}
	if n.Title != "" {
		attrs = append(attrs, [2]string{"title", r.esc(n.Title)})
	}
	r.Tag("a", attrs, false)
}

// renderImage writes the children of the image as the alt text, with
// their tags disabled.
func renderImage(r *HTMLRenderer, n *Node, entering bool) {
	if entering {
		if r.disableTags == 0 {
			if r.opts.Safe && potentiallyUnsafe(n.Destination) {
				r.Lit(`<img src="" alt="`)
			} else {
				r.Lit(`<img src="` + r.esc(n.Destination) + `" alt="`)
			}
		}
		r.disableTags++
		return
	}

	r.disableTags--
	if r.disableTags == 0 {
		if n.Title != "" {
			r.Lit(`" title="` + r.esc(n.Title))
		}
		r.Lit(`" />`)
	}
}

func renderTagPair(name string) NodeRenderFunc {
	return func(r *HTMLRenderer, n *Node, entering bool) {
		if entering {
			r.Tag(name, nil, false)
		} else {
			r.Tag("/"+name, nil, false)
		}
	}
}

func renderParagraph(r *HTMLRenderer, n *Node, entering bool) {
	// Paragraphs of tight lists are not wrapped
	if n.Parent != nil {
		if grandparent := n.Parent.Parent; grandparent != nil &&
			grandparent.Type == ListNode && grandparent.ListData.Tight {
			return
		}
	}
	if entering {
		r.CR()
		r.Tag("p", r.Attrs(n), false)
	} else {
		r.Tag("/p", nil, false)
		r.CR()
	}
}

func renderHeading(r *HTMLRenderer, n *Node, entering bool) {
	tagName := "h" + strconv.Itoa(n.Level)
	if entering {
		r.CR()
		r.Tag(tagName, r.Attrs(n), false)
	} else {
		r.Tag("/"+tagName, nil, false)
		r.CR()
	}
}

func renderCode(r *HTMLRenderer, n *Node, entering bool) {
	r.Tag("code", nil, false)
	r.Out(n.Literal)
	r.Tag("/code", nil, false)
}

func renderCodeBlock(r *HTMLRenderer, n *Node, entering bool) {
	lang := ""
	if words := strings.Fields(n.Info); len(words) > 0 {
		lang = words[0]
	}

	if r.opts.Diagrams && lang == "d2" && r.renderDiagram(n) {
		return
	}

	attrs := r.Attrs(n)
	if lang != "" {
		attrs = append(attrs, [2]string{"class", "language-" + r.esc(lang)})
	}
	r.CR()
	r.Tag("pre", nil, false)
	r.Tag("code", attrs, false)
	if !(r.opts.Highlight && lang != "" && r.highlightCode(n, lang)) {
		r.Out(n.Literal)
	}
	r.Tag("/code", nil, false)
	r.Tag("/pre", nil, false)
	r.CR()
}

// highlightCode writes the literal of n formatted by chroma. It reports
// false when nothing was written.
func (r *HTMLRenderer) highlightCode(n *Node, lang string) bool {
	var b bytes.Buffer
	err := Highlight(&b, lang, n.Literal, r.opts.HighlightStyle)
	if errors.Is(err, ErrNoLexer) {
		return false
	}
	if err != nil {
		r.log.Warnw("code highlighting failed", "lang", lang, "line", n.SourcePos[0][0], "error", err)
		return false
	}
	r.Lit(b.String())
	return true
}

// renderDiagram writes the d2 diagram of n as an SVG figure. It reports
// false when the diagram could not be built.
func (r *HTMLRenderer) renderDiagram(n *Node) bool {
	svg, err := CachedDiagram(context.Background(), r.opts.DiagramCacheDir, n.Literal)
	if err != nil {
		r.log.Warnw("diagram rendering failed", "line", n.SourcePos[0][0], "error", err)
		return false
	}
	attrs := append(r.Attrs(n), [2]string{"class", "diagram"})
	r.CR()
	r.Tag("figure", attrs, false)
	r.Lit(string(svg))
	r.Tag("/figure", nil, false)
	r.CR()
	return true
}

func renderThematicBreak(r *HTMLRenderer, n *Node, entering bool) {
	r.CR()
	r.Tag("hr", r.Attrs(n), true)
	r.CR()
}

func renderBlockQuote(r *HTMLRenderer, n *Node, entering bool) {
	r.CR()
	if entering {
		r.Tag("blockquote", r.Attrs(n), false)
	} else {
		r.Tag("/blockquote", nil, false)
	}
	r.CR()
}

func renderList(r *HTMLRenderer, n *Node, entering bool) {
	tagName := "ol"
	if n.ListData.Type == BulletList {
		tagName = "ul"
	}

	r.CR()
	if entering {
		attrs := r.Attrs(n)
		if n.ListData.Type == OrderedList && n.ListData.Start != 1 {
			attrs = append(attrs, [2]string{"start", strconv.Itoa(n.ListData.Start)})
		}
		r.Tag(tagName, attrs, false)
	} else {
		r.Tag("/"+tagName, nil, false)
	}
	r.CR()
}

func renderItem(r *HTMLRenderer, n *Node, entering bool) {
	if entering {
		r.Tag("li", r.Attrs(n), false)
	} else {
		r.Tag("/li", nil, false)
		r.CR()
	}
}

func renderHTMLInline(r *HTMLRenderer, n *Node, entering bool) {
	if r.opts.Safe {
		r.Lit("<!-- raw HTML omitted -->")
	} else {
		r.Lit(n.Literal)
	}
}

func renderHTMLBlock(r *HTMLRenderer, n *Node, entering bool) {
	r.CR()
	renderHTMLInline(r, n, entering)
	r.CR()
}

func renderCustomInline(r *HTMLRenderer, n *Node, entering bool) {
	if entering && n.OnEnter != "" {
		r.Lit(n.OnEnter)
	} else if !entering && n.OnExit != "" {
		r.Lit(n.OnExit)
	}
}

func renderCustomBlock(r *HTMLRenderer, n *Node, entering bool) {
	r.CR()
	renderCustomInline(r, n, entering)
	r.CR()
}
