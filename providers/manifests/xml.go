package manifests

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// fieldMatcher maps an element path (lowercased local names, root first) to the name
// of the field it holds, or returns an empty string.
type fieldMatcher func(path []string) string

// scanXML walks the whole document and returns the text of the first element matched
// for every field. Element text includes the text of its descendants.
//
// The document must be well-formed with a single root element.
func scanXML(b []byte, match fieldMatcher) (map[string]string, error) {
	d := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(b, utf8BOM)))
	// Older project files declare 'iso-8859-1' or 'windows-1252'.
	d.CharsetReader = charset.NewReaderLabel

	found := map[string]string{}
	var (
		path     []string
		roots    int
		field    string
		fieldLvl int
		text     strings.Builder
	)

	for {
		t, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch tok := t.(type) {
		case xml.StartElement:
			if len(path) == 0 {
				if roots++; roots > 1 {
					return nil, errors.New("document has more than one root element")
				}
			}
			path = append(path, strings.ToLower(tok.Name.Local))
			if field != "" {
				continue
			}
			if f := match(path); f != "" {
				if _, ok := found[f]; !ok {
					field, fieldLvl = f, len(path)
					text.Reset()
				}
			}
		case xml.EndElement:
			if field != "" && len(path) == fieldLvl {
				found[field] = text.String()
				field = ""
			}
			path = path[:len(path)-1]
		case xml.CharData:
			if len(path) == 0 {
				if len(bytes.TrimSpace(tok)) != 0 {
					return nil, errors.New("text found outside of the root element")
				}
				continue
			}
			if field != "" {
				text.Write(tok)
			}
		}
	}

	if roots == 0 {
		return nil, errors.New("document has no root element")
	}
	return found, nil
}
