package cmark

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	entityRe        = `&(?:#x[a-f0-9]{1,6}|#[0-9]{1,7}|[a-z][a-z0-9]{1,31});`
	escapableRe     = `[!"#$%&'()*+,./:;<=>?@\[\\\]^_` + "`" + `{|}~-]`
	tagNameRe       = `[A-Za-z][A-Za-z0-9-]*`
	attributeNameRe = `[a-zA-Z_:][a-zA-Z0-9:._-]*`
	unquotedValueRe = "[^\"'=<>`\\x00-\\x20]+"
	singleQuotedRe  = `'[^']*'`
	doubleQuotedRe  = `"[^"]*"`
	attributeValRe  = `(?:` + unquotedValueRe + `|` + singleQuotedRe + `|` + doubleQuotedRe + `)`
	attributeSpecRe = `(?:\s*=\s*` + attributeValRe + `)`
	attributeRe     = `(?:\s+` + attributeNameRe + attributeSpecRe + `?)`
	openTagRe       = `<` + tagNameRe + attributeRe + `*\s*/?>`
	closeTagRe      = `</` + tagNameRe + `\s*[>]`
	htmlCommentRe   = `<!-->|<!--->|<!--(?:[^-]+|-[^-]|--[^>])*-->`
	procInstrRe     = `[<][?][\s\S]*?[?][>]`
	declarationRe   = `<![A-Z]+[^>]*>`
	cdataRe         = `<!\[CDATA\[[\s\S]*?\]\]>`
	htmlTagRe       = `(?:` + openTagRe + `|` + closeTagRe + `|` + htmlCommentRe + `|` +
		procInstrRe + `|` + declarationRe + `|` + cdataRe + `)`
)

var (
	reHTMLTag               = regexp.MustCompile(`^` + htmlTagRe)
	reEntityOrEscapedChar   = regexp.MustCompile(`(?i)\\` + escapableRe + `|` + entityRe)
	reEntityHere            = regexp.MustCompile(`(?i)^` + entityRe)
	xmlEscaper              = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	escapableChars          = "!\"#$%&'()*+,./:;<=>?@[\\]^_`{|}~-"
	uriSafeChars            = ";/?:@&=+$,-_.!~*'()#"
	upperHex                = "0123456789ABCDEF"
	replacementCharEncoding = "%EF%BF%BD"
)

// EscapeXML replaces the characters with a special meaning in XML and HTML.
func EscapeXML(s string) string {
	if !strings.ContainsAny(s, `&<>"`) {
		return s
	}
	return xmlEscaper.Replace(s)
}

// DecodeEntity decodes a single named or numeric character reference like
// "&amp;" or "&#x22;". Unknown references are returned unchanged.
func DecodeEntity(s string) string {
	decoded := html.UnescapeString(s)

	// html decodes the longest legacy prefix of an unknown name, like "&notit;".
	// Only complete references are accepted here.
	if len(s) > 1 && s[1] != '#' && decoded != ";" && strings.HasSuffix(decoded, ";") {
		return s
	}
	return decoded
}

// UnescapeString replaces backslash escapes and entity references with the
// characters they stand for. A nil decode uses DecodeEntity.
func UnescapeString(s string, decode func(string) string) string {
	if !strings.ContainsAny(s, `\&`) {
		return s
	}
	if decode == nil {
		decode = DecodeEntity
	}
	return reEntityOrEscapedChar.ReplaceAllStringFunc(s, func(m string) string {
		if m[0] == '\\' {
			return m[1:]
		}
		return decode(m)
	})
}

// NormalizeURI percent-encodes a link destination. Existing %XX escapes,
// reserved and unreserved characters are kept.
func NormalizeURI(uri string) string {
	var b strings.Builder
	b.Grow(len(uri))

	for i := 0; i < len(uri); {
		c := uri[i]
		switch {
		case c == '%' && i+2 < len(uri) && isHexDigit(uri[i+1]) && isHexDigit(uri[i+2]):
			b.WriteString(uri[i : i+3])
			i += 3
		case c < utf8.RuneSelf && (isAlnum(c) || strings.IndexByte(uriSafeChars, c) >= 0):
			b.WriteByte(c)
			i++
		case c < utf8.RuneSelf:
			writePercent(&b, c)
			i++
		default:
			r, size := utf8.DecodeRuneInString(uri[i:])
			if r == utf8.RuneError && size == 1 {
				b.WriteString(replacementCharEncoding)
			} else {
				for j := 0; j < size; j++ {
					writePercent(&b, uri[i+j])
				}
			}
			i += size
		}
	}
	return b.String()
}

func writePercent(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte(upperHex[c>>4])
	b.WriteByte(upperHex[c&0x0f])
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func isAlnum(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isEscapable(c byte) bool {
	return strings.IndexByte(escapableChars, c) >= 0
}

func isSpaceOrTab(c byte) bool {
	return c == ' ' || c == '\t'
}

// isASCIIPunct covers the ASCII punctuation characters of CommonMark.
func isASCIIPunct(c byte) bool {
	return isEscapable(c)
}

// isUnicodeWhitespace is used for delimiter flanking. NEL (U+0085) is not
// whitespace here, while the byte order mark is.
func isUnicodeWhitespace(r rune) bool {
	return r != '\u0085' && (unicode.IsSpace(r) || r == '\uFEFF')
}

// isUnicodePunct is used for delimiter flanking.
func isUnicodePunct(r rune) bool {
	if r < utf8.RuneSelf {
		return isASCIIPunct(byte(r))
	}
	return unicode.IsPunct(r)
}

// isBlank reports whether s only contains spaces, tabs and line endings.
func isBlank(s []byte) bool {
	for _, c := range s {
		switch c {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}
