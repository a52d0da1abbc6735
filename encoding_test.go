package transformcache

import (
	"errors"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestLookupEncoding(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		raw      bool
		wantErr  bool
	}{
		{name: "", expected: "raw", raw: true},
		{name: "raw", expected: "raw", raw: true},
		{name: "Buffer", expected: "raw", raw: true},
		{name: "utf8", expected: "utf-8"},
		{name: " UTF-8 ", expected: "utf-8"},
		{name: "latin1", expected: "iso-8859-1"},
		{name: "binary", expected: "iso-8859-1"},
		{name: "ucs2", expected: "utf-16le"},
		{name: "utf16le", expected: "utf-16le"},
		{name: "windows-1252", expected: "windows-1252"},
		{name: "shift_jis", expected: "shift_jis"},
		{name: "klingon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := LookupEncoding(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOption) {
					t.Fatalf("Expected ErrInvalidOption, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LookupEncoding(%q) failed: %v", tt.name, err)
			}
			if enc.Name() != tt.expected {
				t.Errorf("Expected name %q, got %q", tt.expected, enc.Name())
			}
			if enc.IsRaw() != tt.raw {
				t.Errorf("Expected IsRaw() %v, got %v", tt.raw, enc.IsRaw())
			}
		})
	}
}

func TestMustLookupEncodingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected a panic for an unknown encoding")
		}
	}()
	MustLookupEncoding("klingon")
}

func TestZeroEncodingIsRaw(t *testing.T) {
	var enc Encoding
	if !enc.IsRaw() || enc.String() != "raw" {
		t.Fatalf("Expected the zero Encoding to be raw, got %q", enc)
	}
}

func TestEncodingRoundTrip(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte("héllo bar"))
	if err != nil {
		t.Fatalf("Failed to encode expected content: %v", err)
	}
	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("héllo bar"))
	if err != nil {
		t.Fatalf("Failed to encode expected content: %v", err)
	}

	tests := []struct {
		name     string
		encoding Encoding
		onDisk   []byte
	}{
		{name: "utf-8", encoding: UTF8, onDisk: []byte("héllo bar")},
		{name: "utf-16le", encoding: MustLookupEncoding("utf16le"), onDisk: utf16},
		{name: "latin1", encoding: MustLookupEncoding("latin1"), onDisk: latin1},
		{name: "raw", encoding: Raw, onDisk: []byte("héllo bar")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, memFs, _, calls := setupTestTransformer(t, WithEncoding(tt.encoding))

			for i := 0; i < 2; i++ {
				out, err := tr.TransformString("héllo", nil)
				if err != nil {
					t.Fatalf("Transform %d failed: %v", i, err)
				}
				if out != "héllo bar" {
					t.Fatalf("Transform %d: expected %q, got %q", i, "héllo bar", out)
				}
			}
			assertCalls(t, calls, 1, "for a repeated input")

			path, err := tr.Path([]byte("héllo"), nil)
			if err != nil {
				t.Fatalf("Path failed: %v", err)
			}
			assertFileContent(t, memFs, path, tt.onDisk)
		})
	}
}

func TestRawKeepsBinary(t *testing.T) {
	tr, memFs, _, _ := setupTestTransformer(t, WithEncoding(Raw))
	input := []byte{0xff, 0x00, 0xfe, 0x80}
	expected := append(append([]byte{}, input...), " bar"...)

	first, err := tr.Transform(input, nil)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	assertBytesEqual(t, first, expected, "Computed result")

	second, err := tr.Transform(input, nil)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	assertBytesEqual(t, second, expected, "Cached result")

	path, _ := tr.Path(input, nil)
	assertFileContent(t, memFs, path, expected)
}

func TestDefaultEncodingKeepsBytes(t *testing.T) {
	tr, memFs, _, _ := setupTestTransformer(t)
	input := []byte{0xff, 'a'}
	expected := []byte("\xffa bar")

	miss, err := tr.Transform(input, nil)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	assertBytesEqual(t, miss, expected, "Computed result")

	hit, err := tr.Transform(input, nil)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	assertBytesEqual(t, hit, miss, "Cached result")

	path, _ := tr.Path(input, nil)
	assertFileContent(t, memFs, path, expected)

	if stats := tr.Stats(); stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("Expected one miss and one hit, got %+v", stats)
	}
}

func TestUnrepresentableResult(t *testing.T) {
	tr, memFs, cacheDir, _ := setupTestTransformer(t, WithEncoding(MustLookupEncoding("latin1")))

	if _, err := tr.TransformString("€", nil); err == nil {
		t.Fatal("Expected an error for a result latin1 cannot represent")
	}
	if files := listDir(t, memFs, cacheDir); len(files) != 0 {
		t.Fatalf("Expected no cache file, got %v", files)
	}
}
