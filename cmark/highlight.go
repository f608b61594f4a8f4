package cmark

import (
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	hlhtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ErrNoLexer is returned by Highlight for languages chroma does not know.
var ErrNoLexer = errors.New("no lexer for language")

// Highlight writes source as HTML spans coloured by chroma, for the language
// lang and the style named styleName. Unknown styles use the chroma fallback.
// No surrounding <pre> is written.
func Highlight(w io.Writer, lang, source, styleName string) error {
	l := lexers.Get(lang)
	if l == nil {
		return fmt.Errorf("%w: %s", ErrNoLexer, lang)
	}
	l = chroma.Coalesce(l)

	s := styles.Get(styleName)

	f := hlhtml.New(hlhtml.Standalone(false), hlhtml.PreventSurroundingPre(true))

	it, err := l.Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("tokenising %s: %w", lang, err)
	}

	if err := f.Format(w, s, it); err != nil {
		return fmt.Errorf("formatting %s: %w", lang, err)
	}
	return nil
}
