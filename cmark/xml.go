package cmark

import (
	"strconv"
	"strings"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
	`<!DOCTYPE document SYSTEM "CommonMark.dtd">` + "\n"

// XMLOptions configure an XMLRenderer.
type XMLOptions struct {
	// SourcePos adds sourcepos attributes to block elements.
	SourcePos bool

	// Types describes the node kinds. Nil means DefaultTypes.
	Types *TypeTable

	// Escape replaces EscapeXML for text and attribute values.
	Escape func(string) string
}

// XMLRenderer writes a tree in the CommonMark XML format, one element per
// line, indented by nesting depth.
type XMLRenderer struct {
	ByteRenderer
	opts        XMLOptions
	types       *TypeTable
	esc         func(string) string
	indentLevel int
}

// NewXMLRenderer returns a renderer configured with opts.
func NewXMLRenderer(opts XMLOptions) *XMLRenderer {
	r := &XMLRenderer{
		opts:  opts,
		types: opts.Types,
		esc:   opts.Escape,
	}
	if r.types == nil {
		r.types = DefaultTypes()
	}
	if r.esc == nil {
		r.esc = EscapeXML
	}
	return r
}

// CR starts a new indented line unless the last output ended one.
func (r *XMLRenderer) CR() {
	if r.lastOut != "\n" {
		r.buf.WriteByte('\n')
		r.buf.WriteString(strings.Repeat("  ", r.indentLevel))
		r.lastOut = "\n"
	}
}

// Render returns the XML for the tree rooted at root.
func (r *XMLRenderer) Render(root *Node) []byte {
	r.Reset()
	r.indentLevel = 0
	r.buf.WriteString(xmlHeader)

	w := NewWalker(root, r.types)
	for node, entering := w.Next(); node != nil; node, entering = w.Next() {
		container := r.types.IsContainer(node)
		if !entering && !container {
			// Leaves are closed when entered
			continue
		}

		tagName := node.Type.String()
		if !entering {
			r.indentLevel--
			r.CR()
			r.Lit(r.tag("/"+tagName, nil, false))
			continue
		}

		selfClosing := node.Type == ThematicBreakNode || node.Type == LinebreakNode ||
			node.Type == SoftbreakNode

		r.CR()
		r.Lit(r.tag(tagName, r.attrs(node), selfClosing))
		if container {
			r.indentLevel++
		} else if !selfClosing {
			if node.Literal != "" {
				r.Lit(r.esc(node.Literal))
			}
			r.Lit(r.tag("/"+tagName, nil, false))
		}
	}

	r.buf.WriteByte('\n')
	return r.CloneBytes()
}

// RenderString is Render returning a string.
func (r *XMLRenderer) RenderString(root *Node) string {
	return string(r.Render(root))
}

func (r *XMLRenderer) attrs(n *Node) [][2]string {
	var attrs [][2]string

	switch n.Type {
	case DocumentNode:
		attrs = append(attrs, [2]string{"xmlns", "http://commonmark.org/xml/1.0"})
	case ListNode:
		ld := n.ListData
		attrs = append(attrs, [2]string{"type", ld.Type.String()})
		if ld.Type == OrderedList {
			attrs = append(attrs, [2]string{"start", strconv.Itoa(ld.Start)})
		}
		attrs = append(attrs, [2]string{"tight", strconv.FormatBool(ld.Tight)})
		if ld.Type == OrderedList {
			delim := "paren"
			if ld.Delimiter == '.' {
				delim = "period"
			}
			attrs = append(attrs, [2]string{"delimiter", delim})
		}
	case CodeBlockNode:
		if n.Info != "" {
			attrs = append(attrs, [2]string{"info", n.Info})
		}
	case HeadingNode:
		attrs = append(attrs, [2]string{"level", strconv.Itoa(n.Level)})
	case LinkNode, ImageNode:
		attrs = append(attrs, [2]string{"destination", n.Destination}, [2]string{"title", n.Title})
	case CustomInlineNode, CustomBlockNode:
		attrs = append(attrs, [2]string{"on_enter", n.OnEnter}, [2]string{"on_exit", n.OnExit})
	}

	if r.opts.SourcePos && hasSourcePos(n) {
		attrs = append(attrs, [2]string{"sourcepos", sourcePosAttr(n)})
	}
	return attrs
}

// tag builds an XML tag, escaping the attribute values.
func (r *XMLRenderer) tag(name string, attrs [][2]string, selfClosing bool) string {
	var b strings.Builder
	b.WriteString("<" + name)
	for _, a := range attrs {
		b.WriteString(" " + a[0] + `="` + r.esc(a[1]) + `"`)
	}
	if selfClosing {
		b.WriteString(" /")
	}
	b.WriteString(">")
	return b.String()
}
