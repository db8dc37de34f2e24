// Package sentence converts an incremental text stream into complete
// sentences as soon as their boundaries are seen.
//
// A sentence ends at '.', '?' or '!' followed by whitespace; whatever text
// remains unterminated when the stream ends is flushed as a final sentence.
// Concatenating all emitted sentences (modulo the separating whitespace)
// reproduces the input.
package sentence

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"google.golang.org/api/iterator"
)

// Splitter is an incremental sentence splitter. The zero value is ready to
// use. It is not safe for concurrent use.
type Splitter struct {
	buf []byte
}

// Feed appends a fragment and returns every sentence completed by it, in
// order. A single fragment may complete several sentences, or none.
func (s *Splitter) Feed(fragment string) []string {
	s.buf = append(s.buf, fragment...)

	var out []string
	for {
		idx := boundaryIndex(s.buf)
		if idx < 0 {
			break
		}
		if sent := strings.TrimSpace(string(s.buf[:idx])); sent != "" {
			out = append(out, sent)
		}
		rest := s.buf[idx:]
		for len(rest) > 0 {
			r, size := utf8.DecodeRune(rest)
			if !unicode.IsSpace(r) {
				break
			}
			rest = rest[size:]
		}
		s.buf = append(s.buf[:0], rest...)
	}
	return out
}

// Flush returns the unterminated remainder, if any, and resets the
// splitter. Call once at end of stream.
func (s *Splitter) Flush() (string, bool) {
	rem := strings.TrimSpace(string(s.buf))
	s.buf = s.buf[:0]
	return rem, rem != ""
}

// boundaryIndex returns the byte index just past the first sentence
// terminator that is followed by whitespace, or -1 if the buffer holds no
// confirmed boundary. A terminator at the very end of the buffer is not a
// confirmed boundary: the next fragment decides.
func boundaryIndex(b []byte) int {
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '.', '?', '!':
		default:
			continue
		}
		if i+1 >= len(b) {
			return -1
		}
		r, _ := utf8.DecodeRune(b[i+1:])
		if unicode.IsSpace(r) {
			return i + 1
		}
	}
	return -1
}

// Iterator yields sentences from a text stream in the order they complete.
// It consumes the underlying reader and is not restartable.
type Iterator struct {
	r       io.Reader
	sp      Splitter
	pending []string
	eof     bool
	err     error
}

// Stream returns an iterator over the sentences of r.
func Stream(r io.Reader) *Iterator {
	return &Iterator{r: r}
}

// Next returns the next sentence. It returns iterator.Done after the last
// sentence, including the flushed remainder.
func (it *Iterator) Next() (string, error) {
	for {
		if len(it.pending) > 0 {
			s := it.pending[0]
			it.pending = it.pending[1:]
			return s, nil
		}
		if it.err != nil {
			return "", it.err
		}
		if it.eof {
			it.err = iterator.Done
			if rem, ok := it.sp.Flush(); ok {
				return rem, nil
			}
			return "", it.err
		}

		var buf [512]byte
		n, err := it.r.Read(buf[:])
		if n > 0 {
			it.pending = it.sp.Feed(string(buf[:n]))
		}
		if err == io.EOF {
			it.eof = true
		} else if err != nil {
			it.err = err
		}
	}
}
