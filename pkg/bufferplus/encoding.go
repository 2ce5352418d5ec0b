package bufferplus

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is the text encoding used when none is specified.
const DefaultEncoding = "utf8"

type textKind uint8

const (
	textUTF8 textKind = iota
	textCodec
	textHex
	textBase64
)

// Encoding converts between Go strings and the bytes stored in a buffer.
// The zero value is UTF-8.
type Encoding struct {
	name  string
	kind  textKind
	codec encoding.Encoding
}

// UTF8 is the default text encoding. Strings are stored as their raw bytes.
var UTF8 = Encoding{name: DefaultEncoding}

var namedEncodings = map[string]Encoding{
	"utf8":     UTF8,
	"utf-8":    UTF8,
	"utf16le":  {name: "utf16le", kind: textCodec, codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"utf-16le": {name: "utf16le", kind: textCodec, codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"ucs2":     {name: "ucs2", kind: textCodec, codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"ucs-2":    {name: "ucs2", kind: textCodec, codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"latin1":   {name: "latin1", kind: textCodec, codec: charmap.ISO8859_1},
	"binary":   {name: "binary", kind: textCodec, codec: charmap.ISO8859_1},
	"ascii":    {name: "ascii", kind: textCodec, codec: charmap.ISO8859_1},
	"hex":      {name: "hex", kind: textHex},
	"base64":   {name: "base64", kind: textBase64},
}

// LookupEncoding resolves an encoding name. Names are case-insensitive; any
// IANA charset name supported by golang.org/x/text is accepted in addition to
// utf8, utf16le, ucs2, latin1, binary, ascii, hex and base64.
func LookupEncoding(name string) (Encoding, error) {
	if name == "" {
		return UTF8, nil
	}
	lower := strings.ToLower(name)
	if e, ok := namedEncodings[lower]; ok {
		return e, nil
	}
	codec, err := ianaindex.IANA.Encoding(lower)
	if err != nil || codec == nil {
		return Encoding{}, &BufferError{
			Op:      "encoding",
			Message: fmt.Sprintf("unknown encoding %q", name),
			Cause:   ErrConstruction,
		}
	}
	return Encoding{name: lower, kind: textCodec, codec: codec}, nil
}

// IsEncoding reports whether name is a supported text encoding.
func IsEncoding(name string) bool {
	_, err := LookupEncoding(name)
	return err == nil
}

// Name returns the canonical name of the encoding.
func (e Encoding) Name() string {
	if e.name == "" {
		return DefaultEncoding
	}
	return e.name
}

// Encode converts s into its byte representation. Characters the target
// charset cannot represent are replaced rather than rejected.
func (e Encoding) Encode(s string) ([]byte, error) {
	switch e.kind {
	case textCodec:
		out, err := encoding.ReplaceUnsupported(e.codec.NewEncoder()).String(s)
		if err != nil {
			return nil, NewEncodeError("encode "+e.Name()+" text", err)
		}
		return []byte(out), nil
	case textHex:
		out, err := hex.DecodeString(s)
		if err != nil {
			return nil, NewEncodeError("invalid hex string", fmt.Errorf("%w: %w", ErrTypeMismatch, err))
		}
		return out, nil
	case textBase64:
		out, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, NewEncodeError("invalid base64 string", fmt.Errorf("%w: %w", ErrTypeMismatch, err))
		}
		return out, nil
	default:
		return []byte(s), nil
	}
}

// Decode converts stored bytes back into a string.
func (e Encoding) Decode(p []byte) (string, error) {
	switch e.kind {
	case textCodec:
		out, err := e.codec.NewDecoder().Bytes(p)
		if err != nil {
			return "", fmt.Errorf("bufferplus: decode %s text: %w", e.Name(), err)
		}
		return string(out), nil
	case textHex:
		return hex.EncodeToString(p), nil
	case textBase64:
		return base64.StdEncoding.EncodeToString(p), nil
	default:
		return string(p), nil
	}
}

// ByteLength returns the number of bytes s occupies once encoded.
func (e Encoding) ByteLength(s string) (int, error) {
	if e.kind == textUTF8 {
		return len(s), nil
	}
	p, err := e.Encode(s)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
