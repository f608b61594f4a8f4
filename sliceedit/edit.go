// Copyright 2023 Jesus Ruiz. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package sliceedit queues edits on a byte slice with rsc.io/edit and
// applies them all at once, with a single allocation for the result.
// The Markdown parser uses it to sanitise its input.
package sliceedit

import (
	"bytes"

	"rsc.io/edit"
)

// A Buffer is a queue of edits to apply to a given byte slice.
// Offsets always refer to the original data, and queued edits must not overlap.
type Buffer struct {
	ed  *edit.Buffer
	buf []byte
}

// NewBuffer returns a new buffer to accumulate changes to an initial data slice.
// The returned buffer maintains a reference to the data, so the caller must ensure
// the data is not modified until after the Buffer is done being used.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{
		ed:  edit.NewBuffer(buf),
		buf: buf,
	}
}

// FindAll returns the offsets of all non-overlapping instances of item in buf.
func FindAll(buf []byte, item string) []int {
	found := []int{}
	if len(item) == 0 {
		return found
	}

	sep := []byte(item)
	for offset := 0; ; {
		i := bytes.Index(buf[offset:], sep)
		if i < 0 {
			return found
		}
		found = append(found, offset+i)
		offset += i + len(sep)
	}
}

// Insert inserts s at pos in the original data.
func (b *Buffer) Insert(pos int, s string) {
	b.ed.Insert(pos, s)
}

// Replace replaces the original bytes from start to end with s.
func (b *Buffer) Replace(start, end int, s string) {
	b.ed.Replace(start, end, s)
}

// DeleteAllString deletes every instance of s.
func (b *Buffer) DeleteAllString(s string) {
	for _, hit := range FindAll(b.buf, s) {
		b.ed.Delete(hit, hit+len(s))
	}
}

// ReplaceAllString replaces every instance of old with new.
// It returns the number of replacements queued.
func (b *Buffer) ReplaceAllString(old string, new string) int {
	hits := FindAll(b.buf, old)
	for _, hit := range hits {
		b.ed.Replace(hit, hit+len(old), new)
	}
	return len(hits)
}

// Bytes returns a new byte slice containing the original data
// with the queued edits applied.
func (b *Buffer) Bytes() []byte {
	return b.ed.Bytes()
}

// String returns a string containing the original data
// with the queued edits applied.
func (b *Buffer) String() string {
	return string(b.ed.Bytes())
}

// ReplaceAll returns a copy of buf with every instance of old replaced by new.
// buf itself is returned when old does not occur.
func ReplaceAll(buf []byte, old, new string) []byte {
	b := NewBuffer(buf)
	if b.ReplaceAllString(old, new) == 0 {
		return buf
	}
	return b.Bytes()
}
