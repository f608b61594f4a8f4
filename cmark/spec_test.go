package cmark_test

import (
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/hesusruiz/cmark/cmark"
	"github.com/hesusruiz/cmark/spectest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func toHTML(t *testing.T, opts cmark.Options) func(string) string {
	opts.Logger = zaptest.NewLogger(t).Sugar()
	p := cmark.NewParser(opts)
	r := cmark.NewHTMLRenderer(cmark.HTMLOptions{})
	return func(md string) string {
		return r.RenderString(p.ParseString(md))
	}
}

func TestSpecExamples(t *testing.T) {
	color.NoColor = true

	data, err := os.ReadFile("testdata/spec_sample.txt")
	require.NoError(t, err)
	examples := spectest.Extract(data)
	require.NotEmpty(t, examples)

	convert := toHTML(t, cmark.Options{})
	for _, ex := range examples {
		ex := ex
		t.Run(strings.ReplaceAll(ex.Section, " ", "_"), func(t *testing.T) {
			assert.Equal(t, ex.HTML, convert(ex.Markdown), "example %d:\n%s", ex.Number, spectest.ShowSpaces(ex.Markdown))
		})
	}
}

func TestSpecRunner(t *testing.T) {
	color.NoColor = true

	data, err := os.ReadFile("testdata/spec_sample.txt")
	require.NoError(t, err)

	var out strings.Builder
	runner := &spectest.Runner{
		Convert: toHTML(t, cmark.Options{}),
		Out:     &out,
		Log:     zaptest.NewLogger(t).Sugar(),
	}
	res := runner.Run(spectest.Extract(data))
	assert.Zero(t, res.Failed, out.String())
}

func TestSmartPunctuation(t *testing.T) {
	convert := toHTML(t, cmark.Options{Smart: true})
	tests := []struct {
		name, in, want string
	}{
		{"double quotes", `"Hello," said the spider.`, "<p>\u201cHello,\u201d said the spider.</p>\n"},
		{"single quotes", "'this' isn't", "<p>\u2018this\u2019 isn\u2019t</p>\n"},
		{"apostrophe", "Were you alive in the 70's?", "<p>Were you alive in the 70\u2019s?</p>\n"},
		{"en dash", "1--2", "<p>1\u20132</p>\n"},
		{"em dash", "a---b", "<p>a\u2014b</p>\n"},
		{"dash runs", "a----b a-----b", "<p>a\u2013\u2013b a\u2014\u2013b</p>\n"},
		{"ellipsis", "Wait...", "<p>Wait\u2026</p>\n"},
		{"escaped", `\"not smart\"`, "<p>&quot;not smart&quot;</p>\n"},
		{"code untouched", "`\"x\"`", "<p><code>&quot;x&quot;</code></p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convert(tt.in+"\n"))
		})
	}
}

func TestPathological(t *testing.T) {
	if testing.Short() {
		t.Skip("slow inputs")
	}
	convert := toHTML(t, cmark.Options{})
	for _, c := range spectest.Pathological() {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expected, convert(c.Input))
		})
	}
}
