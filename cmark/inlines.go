package cmark

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// InlineHandler parses an inline construct triggered by a rune. It returns
// false when nothing was recognized; the rune is then emitted as text.
type InlineHandler func(p *InlineParser, block *Node) bool

const escapedCharRe = `\\` + escapableRe

var (
	reLinkTitle = regexp.MustCompile(
		`^(?:"(?:` + escapedCharRe + `|\\[^\\]|[^\\"\x00])*"` +
			`|'(?:` + escapedCharRe + `|\\[^\\]|[^\\'\x00])*'` +
			`|\((?:` + escapedCharRe + `|\\[^\\]|[^\\()\x00])*\))`)
	reLinkDestinationBraces = regexp.MustCompile(`^(?:<(?:[^<>\n\\\x00]|\\.)*>)`)
	reEmailAutolink         = regexp.MustCompile("^<([a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*)>")
	reAutolink              = regexp.MustCompile(`(?i)^<[A-Za-z][A-Za-z0-9.+-]{1,31}:[^<>\x00-\x20]*>`)
	reSpnl                  = regexp.MustCompile(`^ *(?:\n *)?`)
	reInitialSpace          = regexp.MustCompile(`^ *`)
	reSpaceAtEndOfLine      = regexp.MustCompile(`^ *(?:\n|$)`)
	reDash                  = regexp.MustCompile(`--+`)
	reMain                  = regexp.MustCompile("^[^\n`\\[\\]\\\\!<&*_'\"]+")
)

// InlineParser turns the content of a paragraph or heading into inline
// nodes. Its subject and position are exposed to InlineHandlers.
type InlineParser struct {
	smart        bool
	decodeEntity func(string) string
	normalizeURI func(string) string
	handlers     map[rune]InlineHandler
	reMain       *regexp.Regexp

	subject    string
	pos        int
	delimiters *delimiter
	brackets   *bracket
	refmap     RefMap
}

func newInlineParser(opts Options) *InlineParser {
	p := &InlineParser{
		smart:        opts.Smart,
		decodeEntity: opts.DecodeEntity,
		normalizeURI: opts.NormalizeURI,
		handlers:     opts.InlineHandlers,
		reMain:       reMain,
		refmap:       RefMap{},
	}
	if p.decodeEntity == nil {
		p.decodeEntity = DecodeEntity
	}
	if p.normalizeURI == nil {
		p.normalizeURI = NormalizeURI
	}
	if len(p.handlers) > 0 {
		p.reMain = nonSpecialChars(p.handlers)
	}
	return p
}

// nonSpecialChars builds the plain text matcher with the trigger runes of
// the handlers excluded.
func nonSpecialChars(handlers map[rune]InlineHandler) *regexp.Regexp {
	var b strings.Builder
	for r := range handlers {
		fmt.Fprintf(&b, `\x{%x}`, r)
	}
	return regexp.MustCompile("^[^\n`\\[\\]\\\\!<&*_'\"" + b.String() + "]+")
}

// Subject returns the text being parsed.
func (p *InlineParser) Subject() string { return p.subject }

// Pos returns the current byte offset in the subject.
func (p *InlineParser) Pos() int { return p.pos }

func (p *InlineParser) SetPos(pos int) { p.pos = pos }

// Peek returns the rune at the current position, or -1 at the end.
func (p *InlineParser) Peek() rune {
	if p.pos >= len(p.subject) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(p.subject[p.pos:])
	return r
}

// Match tries re, which should be anchored with ^, at the current position.
// On success it advances past the match.
func (p *InlineParser) Match(re *regexp.Regexp) (string, bool) {
	loc := re.FindStringIndex(p.subject[p.pos:])
	if loc == nil {
		return "", false
	}
	m := p.subject[p.pos+loc[0] : p.pos+loc[1]]
	p.pos += loc[1]
	return m, true
}

// AppendText adds a text node with literal s to block.
func (p *InlineParser) AppendText(block *Node, s string) *Node {
	node := newText(s)
	block.AppendChild(node)
	return node
}

func (p *InlineParser) peekByte() int {
	if p.pos < len(p.subject) {
		return int(p.subject[p.pos])
	}
	return -1
}

// spnl skips spaces and at most one newline.
func (p *InlineParser) spnl() {
	p.Match(reSpnl)
}

// Parse replaces the content of block with inline children, resolving
// references against the map of the current document.
func (p *InlineParser) Parse(block *Node) {
	p.subject = strings.Trim(string(block.Content), " \t\n\r\f\v")
	p.pos = 0
	p.delimiters = nil
	p.brackets = nil
	for p.parseInline(block) {
	}
	block.Content = nil
	p.processEmphasis(nil)
}

// parseInline parses the next inline element and reports whether there
// was one.
func (p *InlineParser) parseInline(block *Node) bool {
	c := p.peekByte()
	if c == -1 {
		return false
	}

	res := false
	switch c {
	case '\n':
		res = p.parseNewline(block)
	case '\\':
		res = p.parseBackslash(block)
	case '`':
		res = p.parseBackticks(block)
	case '*', '_':
		res = p.handleDelim(byte(c), block)
	case '\'', '"':
		res = p.smart && p.handleDelim(byte(c), block)
	case '[':
		res = p.parseOpenBracket(block)
	case '!':
		res = p.parseBang(block)
	case ']':
		res = p.parseCloseBracket(block)
	case '<':
		res = p.parseAutolink(block) || p.parseHTMLTag(block)
	case '&':
		res = p.parseEntity(block)
	default:
		if h, ok := p.handlers[p.Peek()]; ok {
			res = h(p, block)
		} else {
			res = p.parseString(block)
		}
	}

	if !res {
		_, size := utf8.DecodeRuneInString(p.subject[p.pos:])
		p.AppendText(block, p.subject[p.pos:p.pos+size])
		p.pos += size
	}
	return true
}

func (p *InlineParser) parseNewline(block *Node) bool {
	p.pos++
	// Two trailing spaces make a hard break
	lastc := block.LastChild
	if lastc != nil && lastc.Type == TextNode && strings.HasSuffix(lastc.Literal, " ") {
		lit := lastc.Literal
		hardbreak := len(lit) >= 2 && lit[len(lit)-2] == ' '
		lastc.Literal = strings.TrimRight(lit, " ")
		if hardbreak {
			block.AppendChild(newInline(LinebreakNode))
		} else {
			block.AppendChild(newInline(SoftbreakNode))
		}
	} else {
		block.AppendChild(newInline(SoftbreakNode))
	}
	// Leading spaces of the next line are dropped
	p.Match(reInitialSpace)
	return true
}

func (p *InlineParser) parseBackslash(block *Node) bool {
	p.pos++
	switch {
	case p.peekByte() == '\n':
		p.pos++
		block.AppendChild(newInline(LinebreakNode))
	case p.pos < len(p.subject) && isEscapable(p.subject[p.pos]):
		p.AppendText(block, p.subject[p.pos:p.pos+1])
		p.pos++
	default:
		p.AppendText(block, `\`)
	}
	return true
}

// parseBackticks parses a code span, or a literal run of backticks when no
// closing run of the same length exists.
func (p *InlineParser) parseBackticks(block *Node) bool {
	start := p.pos
	for p.pos < len(p.subject) && p.subject[p.pos] == '`' {
		p.pos++
	}
	ticks := p.pos - start
	afterOpenTicks := p.pos

	for {
		i := strings.IndexByte(p.subject[p.pos:], '`')
		if i < 0 {
			break
		}
		runStart := p.pos + i
		p.pos = runStart
		for p.pos < len(p.subject) && p.subject[p.pos] == '`' {
			p.pos++
		}
		if p.pos-runStart != ticks {
			continue
		}

		contents := strings.ReplaceAll(p.subject[afterOpenTicks:runStart], "\n", " ")
		if len(contents) > 0 && strings.Trim(contents, " ") != "" &&
			contents[0] == ' ' && contents[len(contents)-1] == ' ' {
			contents = contents[1 : len(contents)-1]
		}
		node := newInline(CodeNode)
		node.Literal = contents
		block.AppendChild(node)
		return true
	}

	p.pos = afterOpenTicks
	p.AppendText(block, p.subject[start:afterOpenTicks])
	return true
}

func (p *InlineParser) parseAutolink(block *Node) bool {
	var dest, uri string
	if m, ok := p.Match(reEmailAutolink); ok {
		dest = m[1 : len(m)-1]
		uri = p.normalizeURI("mailto:" + dest)
	} else if m, ok := p.Match(reAutolink); ok {
		dest = m[1 : len(m)-1]
		uri = p.normalizeURI(dest)
	} else {
		return false
	}

	link := newInline(LinkNode)
	link.Destination = uri
	link.AppendChild(newText(dest))
	block.AppendChild(link)
	return true
}

func (p *InlineParser) parseHTMLTag(block *Node) bool {
	m, ok := p.Match(reHTMLTag)
	if !ok {
		return false
	}
	node := newInline(HTMLInlineNode)
	node.Literal = m
	block.AppendChild(node)
	return true
}

func (p *InlineParser) parseEntity(block *Node) bool {
	m, ok := p.Match(reEntityHere)
	if !ok {
		return false
	}
	p.AppendText(block, p.decodeEntity(m))
	return true
}

// parseString parses a run of ordinary characters.
func (p *InlineParser) parseString(block *Node) bool {
	m, ok := p.Match(p.reMain)
	if !ok {
		return false
	}
	if p.smart {
		m = strings.ReplaceAll(m, "...", "\u2026")
		m = reDash.ReplaceAllStringFunc(m, smartDashes)
	}
	p.AppendText(block, m)
	return true
}

// smartDashes converts a run of hyphens to em and en dashes, preferring em
// dashes and never mixing when the length allows it.
func smartDashes(chars string) string {
	n := len(chars)
	enCount, emCount := 0, 0
	switch {
	case n%3 == 0:
		emCount = n / 3
	case n%2 == 0:
		enCount = n / 2
	case n%3 == 2:
		enCount = 1
		emCount = (n - 2) / 3
	default:
		enCount = 2
		emCount = (n - 4) / 3
	}
	return strings.Repeat("\u2014", emCount) + strings.Repeat("\u2013", enCount)
}

func (p *InlineParser) parseOpenBracket(block *Node) bool {
	startpos := p.pos
	p.pos++
	node := p.AppendText(block, "[")
	p.addBracket(node, startpos, false)
	return true
}

// parseBang handles "![", the start of an image, or a lone "!".
func (p *InlineParser) parseBang(block *Node) bool {
	startpos := p.pos
	p.pos++
	if p.peekByte() != '[' {
		p.AppendText(block, "!")
		return true
	}
	p.pos++
	node := p.AppendText(block, "![")
	p.addBracket(node, startpos+1, true)
	return true
}

// parseCloseBracket matches a "]" with the innermost bracket opener and
// builds a link or image when a destination or a reference follows.
func (p *InlineParser) parseCloseBracket(block *Node) bool {
	p.pos++
	startpos := p.pos

	opener := p.brackets
	if opener == nil {
		p.AppendText(block, "]")
		return true
	}
	if !opener.active {
		p.AppendText(block, "]")
		p.removeBracket()
		return true
	}

	isImage := opener.image
	savepos := p.pos
	matched := false
	var dest, title string

	// Inline link
	if p.peekByte() == '(' {
		p.pos++
		p.spnl()
		if d, ok := p.parseLinkDestination(); ok {
			dest = d
			p.spnl()
			// The title must be separated by whitespace
			if isWhitespaceChar(p.subject[p.pos-1]) {
				if t, ok := p.parseLinkTitle(); ok {
					title = t
				}
			}
			p.spnl()
			if p.peekByte() == ')' {
				p.pos++
				matched = true
			}
		}
		if !matched {
			p.pos = savepos
		}
	}

	// Full, collapsed or shortcut reference
	if !matched {
		beforeLabel := p.pos
		n := p.parseLinkLabel()
		var reflabel string
		if n > 2 {
			reflabel = p.subject[beforeLabel : beforeLabel+n]
		} else if !opener.bracketAfter {
			// The reference is the text of the opener, which has no brackets
			reflabel = p.subject[opener.index:startpos]
		}
		if n == 0 {
			// Shortcut reference, rewind before the skipped spaces
			p.pos = savepos
		}

		if reflabel != "" {
			if ref, ok := p.refmap[NormalizeReference(reflabel)]; ok {
				dest = ref.Destination
				title = ref.Title
				matched = true
			}
		}
	}

	if !matched {
		p.removeBracket()
		p.pos = startpos
		p.AppendText(block, "]")
		return true
	}

	t := LinkNode
	if isImage {
		t = ImageNode
	}
	node := newInline(t)
	node.Destination = dest
	node.Title = title

	for tmp := opener.node.NextSibling; tmp != nil; {
		next := tmp.NextSibling
		node.AppendChild(tmp)
		tmp = next
	}
	block.AppendChild(node)
	p.processEmphasis(opener.previousDelimiter)
	p.removeBracket()
	opener.node.Unlink()

	// No links in links
	if !isImage {
		for b := p.brackets; b != nil; b = b.previous {
			if !b.image {
				b.active = false
			}
		}
	}
	return true
}

// parseLinkDestination parses an inline link destination, either in angle
// brackets or as a run with balanced parentheses.
func (p *InlineParser) parseLinkDestination() (string, bool) {
	if m, ok := p.Match(reLinkDestinationBraces); ok {
		return p.normalizeURI(UnescapeString(m[1:len(m)-1], p.decodeEntity)), true
	}
	if p.peekByte() == '<' {
		return "", false
	}

	savepos := p.pos
	openParens := 0
	c := p.peekByte()
	for ; c != -1; c = p.peekByte() {
		if c == '\\' && p.pos+1 < len(p.subject) && isEscapable(p.subject[p.pos+1]) {
			p.pos += 2
		} else if c == '(' {
			p.pos++
			openParens++
		} else if c == ')' {
			if openParens < 1 {
				break
			}
			p.pos++
			openParens--
		} else if isWhitespaceChar(byte(c)) {
			break
		} else {
			p.pos++
		}
	}

	if p.pos == savepos && c != ')' {
		return "", false
	}
	if openParens != 0 {
		return "", false
	}
	return p.normalizeURI(UnescapeString(p.subject[savepos:p.pos], p.decodeEntity)), true
}

// parseLinkTitle parses a quoted or parenthesized title, returned without
// its delimiters and unescaped.
func (p *InlineParser) parseLinkTitle() (string, bool) {
	m, ok := p.Match(reLinkTitle)
	if !ok {
		return "", false
	}
	return UnescapeString(m[1:len(m)-1], p.decodeEntity), true
}

// maxLinkLabel is the longest allowed content of a link label.
const maxLinkLabel = 999

// parseLinkLabel parses a bracketed link label and returns its length
// including the brackets, or 0. Nested unescaped brackets are not allowed.
func (p *InlineParser) parseLinkLabel() int {
	s := p.subject[p.pos:]
	if len(s) == 0 || s[0] != '[' {
		return 0
	}

	chars := 0
	for i := 1; i < len(s) && chars <= maxLinkLabel; {
		switch s[i] {
		case ']':
			p.pos += i + 1
			return i + 1
		case '[':
			return 0
		case '\\':
			if i+1 >= len(s) {
				return 0
			}
			_, size := utf8.DecodeRuneInString(s[i+1:])
			i += 1 + size
			chars += 2
		default:
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			chars++
		}
	}
	return 0
}

func (p *InlineParser) addBracket(node *Node, index int, image bool) {
	if p.brackets != nil {
		p.brackets.bracketAfter = true
	}
	p.brackets = &bracket{
		node:              node,
		previous:          p.brackets,
		previousDelimiter: p.delimiters,
		index:             index,
		image:             image,
		active:            true,
	}
}

func (p *InlineParser) removeBracket() {
	if p.brackets != nil {
		p.brackets = p.brackets.previous
	}
}

// ParseReference parses a link reference definition at the start of s and
// records it in refmap. It returns the number of bytes consumed, or 0.
func (p *InlineParser) ParseReference(s string, refmap RefMap) int {
	p.subject = s
	p.pos = 0
	startpos := p.pos

	n := p.parseLinkLabel()
	if n == 0 {
		return 0
	}
	rawLabel := s[:n]

	if p.peekByte() != ':' {
		p.pos = startpos
		return 0
	}
	p.pos++

	p.spnl()
	dest, ok := p.parseLinkDestination()
	if !ok {
		p.pos = startpos
		return 0
	}

	beforeTitle := p.pos
	p.spnl()
	title, hasTitle := "", false
	if p.pos != beforeTitle {
		title, hasTitle = p.parseLinkTitle()
	}
	if !hasTitle {
		p.pos = beforeTitle
	}

	// Only spaces may follow on the line
	_, atLineEnd := p.Match(reSpaceAtEndOfLine)
	if !atLineEnd && title != "" {
		// Without the title the definition may still end the line
		title = ""
		p.pos = beforeTitle
		_, atLineEnd = p.Match(reSpaceAtEndOfLine)
	}
	if !atLineEnd {
		p.pos = startpos
		return 0
	}

	label := NormalizeReference(rawLabel)
	if label == "" {
		p.pos = startpos
		return 0
	}

	refmap.add(label, Reference{Destination: dest, Title: title})
	return p.pos - startpos
}

// isWhitespaceChar matches the whitespace that ends a link destination.
func isWhitespaceChar(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
