// Package spectest reads test examples written in the format of the
// CommonMark specification and checks a Markdown converter against them.
package spectest

import (
	"regexp"

	"github.com/hesusruiz/cmark/sliceedit"
)

// Example is a Markdown input with its expected HTML.
type Example struct {
	Number   int
	Section  string
	Markdown string
	HTML     string
}

var (
	reEndTests = regexp.MustCompile(`(?m)^<!-- END TESTS -->`)
	reExample  = regexp.MustCompile("(?m)^`{32} example\n([\\s\\S]*?)^\\.\n([\\s\\S]*?)^`{32}$|^#{1,6} *(.*)$")
)

// Extract returns the examples of a spec file, numbered from 1 in order of
// appearance. The section of an example is the last heading before it.
// Tab markers "→" are replaced by tabs.
func Extract(data []byte) []Example {
	data = sliceedit.ReplaceAll(data, "\r\n", "\n")
	data = sliceedit.ReplaceAll(data, "\r", "\n")
	if loc := reEndTests.FindIndex(data); loc != nil {
		data = data[:loc[0]]
	}
	data = sliceedit.ReplaceAll(data, "→", "\t")
	text := string(data)

	var examples []Example
	section := ""
	for _, m := range reExample.FindAllStringSubmatchIndex(text, -1) {
		if m[6] >= 0 {
			section = text[m[6]:m[7]]
			continue
		}
		examples = append(examples, Example{
			Number:   len(examples) + 1,
			Section:  section,
			Markdown: text[m[2]:m[3]],
			HTML:     text[m[4]:m[5]],
		})
	}
	return examples
}
