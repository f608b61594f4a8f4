package cmark

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Reference is the target of a link reference definition.
type Reference struct {
	Destination string
	Title       string
}

// RefMap maps normalized labels to their definitions. It lives for one parse.
type RefMap map[string]Reference

var reWhitespaceRun = regexp.MustCompile(`[ \t\r\n]+`)

// NormalizeReference turns a bracketed label like "[Foo  Bar]" into the key
// used in a RefMap: brackets removed, trimmed, inner whitespace collapsed
// and Unicode case folded.
func NormalizeReference(label string) string {
	if len(label) >= 2 {
		label = label[1 : len(label)-1]
	}
	label = strings.Trim(label, " \t\r\n\f\v")
	label = reWhitespaceRun.ReplaceAllString(label, " ")
	return cases.Fold().String(label)
}

// add records a definition unless the label is already defined.
func (m RefMap) add(label string, ref Reference) {
	if _, ok := m[label]; !ok {
		m[label] = ref
	}
}
