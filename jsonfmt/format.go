/*
Package jsonfmt rewrites JSON documents in an indented canonical form.

Only whitespace and string escaping change: key order, duplicate keys and number
literals are written back exactly as they were read.
*/
package jsonfmt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/go-json-experiment/json/jsontext"
)

var (
	ErrInvalidJSON = errors.New("invalid JSON document")
)

const (
	indent = "  "
	hex    = "0123456789ABCDEF"
	// htmlSensitive runes are escaped in ASCII mode along with everything above '~'.
	htmlSensitive = "<>&'\"+`"
)

// Format reads a whole JSON document from r and writes its canonical form to w.
//
// With ascii set, non-ASCII and HTML-sensitive characters are written as '\uXXXX' escapes.
// Otherwise only quotes, backslashes and control characters are escaped.
func Format(w io.Writer, r io.Reader, ascii bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read the document: %w", err)
	}

	b, err := format(data, ascii)
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

// format rejects invalid UTF-8 and unpaired surrogate escapes rather than replacing them.
func format(data []byte, ascii bool) ([]byte, error) {
	d := jsontext.NewDecoder(bytes.NewReader(data), jsontext.AllowDuplicateNames(true))

	f := formatter{dec: d, ascii: ascii}
	f.buf.Grow(len(data) + len(data)/4)
	if err := f.value(0); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	// The decoder accepts a stream of values, a document holds exactly one.
	if _, err := d.ReadToken(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("unexpected data after the top-level value at offset %d", d.InputOffset())
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	return f.buf.Bytes(), nil
}

// formatter re-serializes the decoder token stream.
type formatter struct {
	dec   *jsontext.Decoder
	buf   bytes.Buffer
	ascii bool
}

func (f *formatter) value(depth int) error {
	t, err := f.dec.ReadToken()
	if err != nil {
		return err
	}

	switch t.Kind() {
	case '{':
		return f.object(depth)
	case '[':
		return f.array(depth)
	case '"':
		f.writeString(t.String())
	default:
		// Literals and numbers are written back as they were read.
		f.buf.WriteString(t.String())
	}
	return nil
}

func (f *formatter) object(depth int) error {
	f.buf.WriteByte('{')

	n := 0
	for f.dec.PeekKind() != '}' {
		if n > 0 {
			f.buf.WriteByte(',')
		}
		f.newline(depth + 1)

		name, err := f.dec.ReadToken()
		if err != nil {
			return err
		}
		f.writeString(name.String())
		f.buf.WriteString(": ")

		if err := f.value(depth + 1); err != nil {
			return err
		}
		n++
	}

	if _, err := f.dec.ReadToken(); err != nil {
		return err
	}
	if n > 0 {
		f.newline(depth)
	}
	f.buf.WriteByte('}')
	return nil
}

func (f *formatter) array(depth int) error {
	f.buf.WriteByte('[')

	n := 0
	for f.dec.PeekKind() != ']' {
		if n > 0 {
			f.buf.WriteByte(',')
		}
		f.newline(depth + 1)

		if err := f.value(depth + 1); err != nil {
			return err
		}
		n++
	}

	if _, err := f.dec.ReadToken(); err != nil {
		return err
	}
	if n > 0 {
		f.newline(depth)
	}
	f.buf.WriteByte(']')
	return nil
}

func (f *formatter) newline(depth int) {
	f.buf.WriteByte('\n')
	f.buf.WriteString(strings.Repeat(indent, depth))
}

func (f *formatter) writeString(s string) {
	f.buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\':
			f.buf.WriteString(`\\`)
		case r == '"' && !f.ascii:
			f.buf.WriteString(`\"`)
		case r < 0x20:
			f.writeControl(r)
		case f.ascii && (r > '~' || strings.ContainsRune(htmlSensitive, r)):
			if r > 0xFFFF {
				hi, lo := utf16.EncodeRune(r)
				f.writeEscape(hi)
				f.writeEscape(lo)
			} else {
				f.writeEscape(r)
			}
		default:
			f.buf.WriteRune(r)
		}
	}
	f.buf.WriteByte('"')
}

func (f *formatter) writeControl(r rune) {
	switch r {
	case '\b':
		f.buf.WriteString(`\b`)
	case '\f':
		f.buf.WriteString(`\f`)
	case '\n':
		f.buf.WriteString(`\n`)
	case '\r':
		f.buf.WriteString(`\r`)
	case '\t':
		f.buf.WriteString(`\t`)
	default:
		f.writeEscape(r)
	}
}

// writeEscape writes a single UTF-16 code unit as '\uXXXX' with uppercase hex digits.
func (f *formatter) writeEscape(r rune) {
	f.buf.WriteString(`\u`)
	f.buf.WriteByte(hex[r>>12&0xF])
	f.buf.WriteByte(hex[r>>8&0xF])
	f.buf.WriteByte(hex[r>>4&0xF])
	f.buf.WriteByte(hex[r&0xF])
}
