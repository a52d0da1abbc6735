package transformcache

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Encoding describes how results are stored in cache files.
//
// Raw stores results verbatim. A text encoding treats results as UTF-8 text,
// converts them to the encoding when writing and back to UTF-8 when reading,
// so a cache hit returns the same text the transform produced. Both
// directions always use the same encoding.
//
// The zero value is Raw.
type Encoding struct {
	name string
	enc  encoding.Encoding // nil for Raw
}

var (
	// Raw stores and returns results byte for byte.
	Raw = Encoding{name: "raw"}

	// UTF8 is the default encoding. Results are already UTF-8, so they are
	// stored and returned unchanged, invalid sequences included.
	UTF8 = Encoding{name: "utf-8", enc: unicode.UTF8}
)

// Short names accepted on top of the WHATWG and IANA registries.
var encodingAliases = map[string]Encoding{
	"utf8":     UTF8,
	"utf-8":    UTF8,
	"utf16le":  {name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"utf-16le": {name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"ucs2":     {name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"ucs-2":    {name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"latin1":   {name: "iso-8859-1", enc: charmap.ISO8859_1},
	"binary":   {name: "iso-8859-1", enc: charmap.ISO8859_1},
}

// LookupEncoding resolves an encoding by name. "", "raw" and "buffer" name
// Raw; any other name is looked up case-insensitively among a few common
// short names ("utf8", "latin1", "utf16le", ...), then in the WHATWG
// encoding index and finally in the IANA registry.
func LookupEncoding(name string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "raw", "buffer":
		return Raw, nil
	}
	if enc, ok := encodingAliases[key]; ok {
		return enc, nil
	}

	if enc, err := htmlindex.Get(key); err == nil {
		canonical, err := htmlindex.Name(enc)
		if err != nil {
			canonical = key
		}
		return Encoding{name: canonical, enc: enc}, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return Encoding{}, fmt.Errorf("%w: unsupported encoding %q", ErrInvalidOption, name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = key
	}
	return Encoding{name: canonical, enc: enc}, nil
}

// MustLookupEncoding is LookupEncoding that panics on unknown names.
func MustLookupEncoding(name string) Encoding {
	enc, err := LookupEncoding(name)
	if err != nil {
		panic(err)
	}
	return enc
}

// Name returns the canonical name of the encoding.
func (e Encoding) Name() string {
	if e.enc == nil {
		return "raw"
	}
	return e.name
}

// IsRaw reports whether results are stored verbatim.
func (e Encoding) IsRaw() bool {
	return e.enc == nil
}

// String implements fmt.Stringer.
func (e Encoding) String() string {
	return e.Name()
}

// passthrough reports whether stored bytes equal the result bytes.
func (e Encoding) passthrough() bool {
	return e.enc == nil || e.enc == unicode.UTF8
}

// encode converts a result into the bytes written to disk.
func (e Encoding) encode(data []byte) ([]byte, error) {
	if e.passthrough() {
		return data, nil
	}
	out, err := e.enc.NewEncoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.name, err)
	}
	return out, nil
}

// decode converts bytes read from disk back into a result.
func (e Encoding) decode(data []byte) ([]byte, error) {
	if e.passthrough() {
		return data, nil
	}
	out, err := e.enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.name, err)
	}
	return out, nil
}
