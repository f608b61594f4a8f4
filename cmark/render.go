package cmark

import (
	"bytes"
	"fmt"
	"strconv"
)

// ByteRenderer accumulates rendered output. The zero value is ready to use.
type ByteRenderer struct {
	buf     bytes.Buffer
	lastOut string
}

// Reset empties the buffer. The output is considered to start on a new line.
func (br *ByteRenderer) Reset() {
	br.buf.Reset()
	br.lastOut = "\n"
}

// Lit writes s verbatim.
func (br *ByteRenderer) Lit(s string) {
	br.buf.WriteString(s)
	br.lastOut = s
}

// CR writes a newline unless the last output was one.
func (br *ByteRenderer) CR() {
	if br.lastOut != "\n" {
		br.Lit("\n")
	}
}

// Render writes its arguments without separators.
func (br *ByteRenderer) Render(args ...any) {
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			br.Lit(v)
		case []byte:
			br.buf.Write(v)
			br.lastOut = string(v)
		case byte:
			br.Lit(string(v))
		case rune:
			br.Lit(string(v))
		case int:
			br.Lit(strconv.Itoa(v))
		default:
			br.Lit(fmt.Sprint(v))
		}
	}
}

// Renderln is Render followed by a newline.
func (br *ByteRenderer) Renderln(args ...any) {
	br.Render(args...)
	br.Lit("\n")
}

// Bytes returns the output so far. It is only valid until the next write.
func (br *ByteRenderer) Bytes() []byte {
	return br.buf.Bytes()
}

// CloneBytes returns a copy of the output so far.
func (br *ByteRenderer) CloneBytes() []byte {
	return bytes.Clone(br.buf.Bytes())
}

func (br *ByteRenderer) String() string {
	return br.buf.String()
}

// hasSourcePos is false for inline nodes, which have no recorded position.
func hasSourcePos(n *Node) bool {
	return n.SourcePos[0][0] > 0
}

// sourcePosAttr formats a source position as "l:c-l:c".
func sourcePosAttr(n *Node) string {
	pos := n.SourcePos
	return strconv.Itoa(pos[0][0]) + ":" + strconv.Itoa(pos[0][1]) + "-" +
		strconv.Itoa(pos[1][0]) + ":" + strconv.Itoa(pos[1][1])
}
