package cmark_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hesusruiz/cmark/cmark"
	"github.com/stretchr/testify/assert"
)

const xmlPrologue = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
	`<!DOCTYPE document SYSTEM "CommonMark.dtd">` + "\n"

func renderXML(md string, opts cmark.XMLOptions) string {
	p := cmark.NewParser(cmark.Options{})
	return cmark.NewXMLRenderer(opts).RenderString(p.ParseString(md))
}

func TestXML(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{
			"empty",
			"",
			xmlPrologue +
				`<document xmlns="http://commonmark.org/xml/1.0">` + "\n" +
				`</document>` + "\n",
		},
		{
			"heading with emphasis",
			"# Hi *x*\n",
			xmlPrologue +
				`<document xmlns="http://commonmark.org/xml/1.0">` + "\n" +
				`  <heading level="1">` + "\n" +
				`    <text>Hi </text>` + "\n" +
				`    <emph>` + "\n" +
				`      <text>x</text>` + "\n" +
				`    </emph>` + "\n" +
				`  </heading>` + "\n" +
				`</document>` + "\n",
		},
		{
			"ordered list",
			"3) a\n4) b\n",
			xmlPrologue +
				`<document xmlns="http://commonmark.org/xml/1.0">` + "\n" +
				`  <list type="ordered" start="3" tight="true" delimiter="paren">` + "\n" +
				`    <item>` + "\n" +
				`      <paragraph>` + "\n" +
				`        <text>a</text>` + "\n" +
				`      </paragraph>` + "\n" +
				`    </item>` + "\n" +
				`    <item>` + "\n" +
				`      <paragraph>` + "\n" +
				`        <text>b</text>` + "\n" +
				`      </paragraph>` + "\n" +
				`    </item>` + "\n" +
				`  </list>` + "\n" +
				`</document>` + "\n",
		},
		{
			"bullet list, breaks and links",
			"- x\\\n  [a](/u \"t\")\n\n---\n",
			xmlPrologue +
				`<document xmlns="http://commonmark.org/xml/1.0">` + "\n" +
				`  <list type="bullet" tight="true">` + "\n" +
				`    <item>` + "\n" +
				`      <paragraph>` + "\n" +
				`        <text>x</text>` + "\n" +
				`        <linebreak />` + "\n" +
				`        <link destination="/u" title="t">` + "\n" +
				`          <text>a</text>` + "\n" +
				`        </link>` + "\n" +
				`      </paragraph>` + "\n" +
				`    </item>` + "\n" +
				`  </list>` + "\n" +
				`  <thematic_break />` + "\n" +
				`</document>` + "\n",
		},
		{
			"code and escaping",
			"```go x\na < b\n```\n",
			xmlPrologue +
				`<document xmlns="http://commonmark.org/xml/1.0">` + "\n" +
				`  <code_block info="go x">a &lt; b` + "\n" +
				`</code_block>` + "\n" +
				`</document>` + "\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderXML(tt.in, cmark.XMLOptions{})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("XML mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestXMLSourcePos(t *testing.T) {
	got := renderXML("> a\n", cmark.XMLOptions{SourcePos: true})
	want := xmlPrologue +
		`<document xmlns="http://commonmark.org/xml/1.0" sourcepos="1:1-1:3">` + "\n" +
		`  <block_quote sourcepos="1:1-1:3">` + "\n" +
		`    <paragraph sourcepos="1:3-1:3">` + "\n" +
		`      <text>a</text>` + "\n" +
		`    </paragraph>` + "\n" +
		`  </block_quote>` + "\n" +
		`</document>` + "\n"
	assert.Equal(t, want, got)
}

func TestXMLCustomNodes(t *testing.T) {
	doc := cmark.NewNode(cmark.DocumentNode, [2][2]int{{1, 1}, {1, 1}})
	custom := cmark.NewNode(cmark.CustomBlockNode, [2][2]int{{1, 1}, {1, 1}})
	custom.OnEnter = "<aside>"
	custom.OnExit = "</aside>"
	doc.AppendChild(custom)

	got := cmark.NewXMLRenderer(cmark.XMLOptions{}).RenderString(doc)
	want := xmlPrologue +
		`<document xmlns="http://commonmark.org/xml/1.0">` + "\n" +
		`  <custom_block on_enter="&lt;aside&gt;" on_exit="&lt;/aside&gt;">` + "\n" +
		`  </custom_block>` + "\n" +
		`</document>` + "\n"
	assert.Equal(t, want, got)
}
