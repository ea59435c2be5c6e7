// Package charset is the decode(bytes, encoding) -> text collaborator
// the core consumes (spec §1, §6): it never appears on the hot path of
// container or bytecode parsing except through the reader.Encoding
// interface those packages accept as a constructor argument.
package charset

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding decodes raw bytes into text and encodes text back to raw
// bytes. It satisfies reader.Encoding on the decode side; the core only
// ever consumes that half, while the top-level orchestration layer uses
// Encode to write script text back out in the caller's chosen encoding
// (spec §6: "encoding chosen by the caller").
type Encoding interface {
	Decode(b []byte) (string, error)
	Encode(s string) ([]byte, error)
	Name() string
}

type utf8Encoding struct{}

func (utf8Encoding) Name() string { return "utf-8" }

func (utf8Encoding) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("charset: invalid utf-8 byte sequence: %q", b)
	}
	return string(b), nil
}

func (utf8Encoding) Encode(s string) ([]byte, error) {
	return []byte(s), nil
}

type cp932Encoding struct{}

func (cp932Encoding) Name() string { return "cp932" }

func (cp932Encoding) Decode(b []byte) (string, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("charset: cp932 decode: %w", err)
	}
	return string(out), nil
}

func (cp932Encoding) Encode(s string) ([]byte, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("charset: cp932 encode: %w", err)
	}
	return out, nil
}

// UTF8 decodes bytes as (already-valid) UTF-8.
var UTF8 Encoding = utf8Encoding{}

// CP932 decodes bytes as Shift-JIS / Windows code page 932, the
// encoding the vendor compiler and engine use by default.
var CP932 Encoding = cp932Encoding{}

// Lookup resolves a caller-supplied encoding name, case-insensitively.
// Unknown names are a hard error — there is no silent fallback encoding.
func Lookup(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cp932", "sjis", "shift-jis", "shiftjis", "shift_jis":
		return CP932, nil
	case "utf-8", "utf8":
		return UTF8, nil
	default:
		return nil, fmt.Errorf("charset: unknown encoding %q", name)
	}
}
