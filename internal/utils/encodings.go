package utils

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var ErrInvalidByteSequence = errors.New("invalid byte sequence")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encoding is one decode attempt in the roster fallback sequence.
type Encoding struct {
	Name   string
	decode func([]byte) (string, error)
	table  encoding.Encoding
}

func (e Encoding) Decode(data []byte) (string, error) {
	return e.decode(data)
}

func decodeUTF8(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", ErrInvalidByteSequence
	}
	return string(data), nil
}

// strict turns an x/text encoding into a decoder that fails instead of
// substituting U+FFFD. NUL in the output is also a failure: it is what a
// UTF-16 roster looks like through a single-byte table.
func strict(enc encoding.Encoding) func([]byte) (string, error) {
	return func(data []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidByteSequence, err)
		}
		if bytes.ContainsRune(out, utf8.RuneError) || bytes.IndexByte(out, 0) >= 0 {
			return "", ErrInvalidByteSequence
		}
		return string(bytes.TrimPrefix(out, utf8BOM)), nil
	}
}

// NewEncoder writes text in this encoding. UTF-16 output carries a BOM.
func (e Encoding) NewEncoder() *encoding.Encoder {
	return e.table.NewEncoder()
}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

var knownEncodings = map[string]Encoding{
	"utf-8":        {decode: decodeUTF8, table: unicode.UTF8},
	"iso-8859-1":   {decode: strict(charmap.ISO8859_1), table: charmap.ISO8859_1},
	"windows-1252": {decode: strict(charmap.Windows1252), table: charmap.Windows1252},
	"utf-16":       {decode: strict(utf16LE), table: utf16LE},
}

func LookupEncoding(name string) (Encoding, error) {
	enc, ok := knownEncodings[name]
	if !ok {
		return Encoding{}, fmt.Errorf("unsupported encoding %q", name)
	}
	enc.Name = name
	return enc, nil
}

// Encodings resolves names in order.
func Encodings(names []string) ([]Encoding, error) {
	encodings := make([]Encoding, 0, len(names))
	for _, name := range names {
		enc, err := LookupEncoding(name)
		if err != nil {
			return nil, err
		}
		encodings = append(encodings, enc)
	}
	return encodings, nil
}
