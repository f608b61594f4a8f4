package spectest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fence = strings.Repeat("`", 32)

func sample() string {
	return "# Introduction\r\n" +
		"Some prose.\r\n" +
		"## Tabs\n" +
		fence + " example\n" +
		"→foo\n" +
		".\n" +
		"<pre><code>foo\n" +
		"</code></pre>\n" +
		fence + "\n" +
		"\n" +
		"## Emphasis\r" +
		fence + " example\n" +
		"*a*\n" +
		".\n" +
		"<p><em>a</em></p>\n" +
		fence + "\n" +
		fence + " example\n" +
		"x\n" +
		".\n" +
		fence + "\n" +
		"<!-- END TESTS -->\n" +
		fence + " example\n" +
		"ignored\n" +
		".\n" +
		"ignored\n" +
		fence + "\n"
}

func TestExtract(t *testing.T) {
	got := Extract([]byte(sample()))
	want := []Example{
		{Number: 1, Section: "Tabs", Markdown: "\tfoo\n", HTML: "<pre><code>foo\n</code></pre>\n"},
		{Number: 2, Section: "Emphasis", Markdown: "*a*\n", HTML: "<p><em>a</em></p>\n"},
		{Number: 3, Section: "Emphasis", Markdown: "x\n", HTML: ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, Extract([]byte("# Only a heading\n")))
}

func TestRunner(t *testing.T) {
	color.NoColor = true

	examples := []Example{
		{Number: 1, Section: "Echo", Markdown: "same", HTML: "same"},
		{Number: 2, Section: "Echo", Markdown: "a b", HTML: "a\tb"},
	}

	var out bytes.Buffer
	r := &Runner{
		Convert: func(s string) string { return s },
		Out:     &out,
		Verbose: true,
		Log:     zaptest.NewLogger(t).Sugar(),
	}
	res := r.Run(examples)

	assert.Equal(t, Result{Passed: 1, Failed: 1}, res)
	assert.Equal(t, "1 tests passed, 1 failed.", res.String())
	assert.Contains(t, out.String(), "Echo ✓")
	assert.Contains(t, out.String(), "✘ Example 2")
	assert.Contains(t, out.String(), "=== expected ===============\na→b")
	assert.Contains(t, out.String(), "=== got ====================\na␣b")
}

func TestRunCases(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	r := &Runner{Convert: strings.ToUpper, Out: &out}
	res := r.RunCases([]Case{
		{Name: "upper", Input: "abc", Expected: "ABC"},
		{Name: "lower", Input: "abc", Expected: "abc"},
	})

	assert.Equal(t, Result{Passed: 1, Failed: 1}, res)
	assert.Contains(t, out.String(), "upper ✓")
	assert.Contains(t, out.String(), "lower ✘")
}

func TestResultAdd(t *testing.T) {
	var total Result
	total.Add(Result{Passed: 3, Failed: 1})
	total.Add(Result{Passed: 2})
	assert.Equal(t, Result{Passed: 5, Failed: 1}, total)
}

func TestShowSpaces(t *testing.T) {
	assert.Equal(t, "a␣→b", ShowSpaces("a \tb"))
}

func TestDiff(t *testing.T) {
	color.NoColor = true
	d := Diff("abc", "abd")
	assert.Contains(t, d, "ab")
	assert.Equal(t, "abc", Diff("abc", "abc"))
}

func TestPathological(t *testing.T) {
	cases := Pathological()
	require.NotEmpty(t, cases)

	names := map[string]bool{}
	for _, c := range cases {
		assert.False(t, names[c.Name], "duplicate case %q", c.Name)
		names[c.Name] = true
		assert.NotEmpty(t, c.Input)
		assert.True(t, strings.HasSuffix(c.Expected, "\n"), c.Name)
	}
	assert.True(t, names["#172 (10000)"])
	assert.True(t, names["backslashes in unclosed link title (10)"])
	assert.True(t, names["[]( deep (10000)"])
}
