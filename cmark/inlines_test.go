package cmark

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func inlineHTML(md string) string {
	p := NewParser(Options{})
	return NewHTMLRenderer(HTMLOptions{}).RenderString(p.ParseString(md))
}

func TestInlines(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"rule of three", "*foo**bar**baz*", "<p><em>foo<strong>bar</strong>baz</em></p>\n"},
		{"multiple of three", "foo***bar***baz", "<p>foo<em><strong>bar</strong></em>baz</p>\n"},
		{"unicode whitespace", "*\u00a0a\u00a0*", "<p>*\u00a0a\u00a0*</p>\n"},
		{"next line is not whitespace", "*\u0085a\u0085*", "<p><em>\u0085a\u0085</em></p>\n"},
		{"intraword underscore", "snake_case_name", "<p>snake_case_name</p>\n"},
		{"punctuation flanking", "*(*foo*)*", "<p><em>(<em>foo</em>)</em></p>\n"},
		{"link in link text", "[a [b](/b) c](/a)", "<p>[a <a href=\"/b\">b</a> c](/a)</p>\n"},
		{"image in link", "[![i](/i.png)](/a)", "<p><a href=\"/a\"><img src=\"/i.png\" alt=\"i\" /></a></p>\n"},
		{"title kinds", `[a](/u 'x') [b](/u (y))`, "<p><a href=\"/u\" title=\"x\">a</a> <a href=\"/u\" title=\"y\">b</a></p>\n"},
		{"escaped destination", `[a](/u\)v)`, "<p><a href=\"/u)v\">a</a></p>\n"},
		{"entity in destination", "[a](/&auml;)", "<p><a href=\"/%C3%A4\">a</a></p>\n"},
		{"unbalanced destination", "[a](/u(v)", "<p>[a](/u(v)</p>\n"},
		{"backticks unmatched", "``a`", "<p>``a`</p>\n"},
		{"code strips one space", "`  a  `", "<p><code> a </code></p>\n"},
		{"code all spaces", "`  `", "<p><code>  </code></p>\n"},
		{"entity in code", "`&amp;`", "<p><code>&amp;amp;</code></p>\n"},
		{"email autolink", "<a.b@c.d>", "<p><a href=\"mailto:a.b@c.d\">a.b@c.d</a></p>\n"},
		{"uri autolink escaped", "<http://a/b[c]>", "<p><a href=\"http://a/b%5Bc%5D\">http://a/b[c]</a></p>\n"},
		{"raw html", "a <span class=\"x\">b</span>", "<p>a <span class=\"x\">b</span></p>\n"},
		{"not html", "a < b > c", "<p>a &lt; b &gt; c</p>\n"},
		{"final backslash", "a\\", "<p>a\\</p>\n"},
		{"bang alone", "hi!", "<p>hi!</p>\n"},
		{"entity", "&copy; &#x41; &bogus;", "<p>© A &amp;bogus;</p>\n"},
		{"trailing spaces trimmed", "a   ", "<p>a</p>\n"},
		{"soft break strips spaces", "a  \n   b", "<p>a<br />\nb</p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inlineHTML(tt.in+"\n"))
		})
	}
}

func TestLinkLabelLimit(t *testing.T) {
	ok := strings.Repeat("a", 999)
	md := "[" + ok + "]\n\n[" + ok + "]: /u\n"
	assert.Equal(t, `<p><a href="/u">`+ok+"</a></p>\n", inlineHTML(md))

	long := strings.Repeat("a", 1000)
	md = "[" + long + "]\n\n[" + long + "]: /u\n"
	assert.Equal(t, "<p>["+long+"]</p>\n<p>["+long+"]: /u</p>\n", inlineHTML(md))

	// The limit counts characters, not bytes
	wide := strings.Repeat("\U0001F600", 999)
	md = "[" + wide + "]\n\n[" + wide + "]: /u\n"
	assert.Equal(t, `<p><a href="/u">`+wide+"</a></p>\n", inlineHTML(md))

	wide += "\U0001F600"
	md = "[" + wide + "]\n\n[" + wide + "]: /u\n"
	assert.Equal(t, "<p>["+wide+"]</p>\n<p>["+wide+"]: /u</p>\n", inlineHTML(md))

	// An escaped character counts two
	escaped := strings.Repeat("a", 997) + `\!`
	md = "[" + escaped + "]\n\n[" + escaped + "]: /u\n"
	assert.Equal(t, `<p><a href="/u">`+strings.Repeat("a", 997)+"!</a></p>\n", inlineHTML(md))
}

func TestScanDelims(t *testing.T) {
	tests := []struct {
		subject  string
		pos      int
		c        byte
		num      int
		canOpen  bool
		canClose bool
	}{
		{"*a", 0, '*', 1, true, false},
		{"a*", 1, '*', 1, false, true},
		{"a**b", 1, '*', 2, true, true},
		{"a__b", 1, '_', 2, false, false},
		{" _ ", 1, '_', 1, false, false},
		{"(_a", 1, '_', 1, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			p := newInlineParser(Options{})
			p.subject = tt.subject
			p.pos = tt.pos
			num, canOpen, canClose := p.scanDelims(tt.c)
			assert.Equal(t, tt.num, num)
			assert.Equal(t, tt.canOpen, canOpen)
			assert.Equal(t, tt.canClose, canClose)
			assert.Equal(t, tt.pos, p.pos, "scanDelims moves the position")
		})
	}
}
