package ingest

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Warning is a non-fatal ingestion condition reported alongside the result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarnEncodingFallback   = "encoding_fallback"
	WarnDelimiterAmbiguous = "delimiter_ambiguous"
	WarnMalformedRows      = "malformed_rows"
	WarnRaggedRows         = "ragged_rows"
)

// detectSampleSize caps the bytes fed to the statistical detector.
const detectSampleSize = 10 * 1024

// minDetectorConfidence is chardet's 0..100 scale.
const minDetectorConfidence = 80

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// decoders for charsets the detector may report.
var charsetDecoders = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"windows-1251": charmap.Windows1251,
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
}

// fallbackStrategy is one entry of the ordered safe-encoding chain tried
// when the statistical detector is not confident enough.
type fallbackStrategy struct {
	name   string
	decode func([]byte) ([]byte, bool)
}

var fallbackChain = []fallbackStrategy{
	{"utf-8", func(b []byte) ([]byte, bool) {
		if utf8.Valid(b) {
			return b, true
		}
		return nil, false
	}},
	{"utf-8-bom", func(b []byte) ([]byte, bool) {
		if bytes.HasPrefix(b, bomUTF8) && utf8.Valid(b[3:]) {
			return b[3:], true
		}
		return nil, false
	}},
	{"latin-1", decodeWith(charmap.ISO8859_1)},
	{"windows-1252", decodeWith(charmap.Windows1252)},
	{"iso-8859-1", decodeWith(charmap.ISO8859_1)},
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

func decodeWith(enc encoding.Encoding) func([]byte) ([]byte, bool) {
	return func(b []byte) ([]byte, bool) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return nil, false
		}
		return out, true
	}
}

// DecodeBytes detects the byte encoding of raw input and returns the
// UTF-8 decoded bytes plus the encoding name. The statistical guess is
// accepted only above minDetectorConfidence; otherwise the ordered
// fallback chain is walked and the first full decode wins. The chain
// cannot be exhausted (latin-1 accepts any byte), so decoding never
// fails; low-confidence paths are reported as warnings, not errors.
func DecodeBytes(data []byte) (decoded []byte, encodingName string, warnings []Warning) {
	if len(data) == 0 {
		return data, "utf-8", nil
	}

	// A UTF-8 BOM is unambiguous; skip the detector.
	if bytes.HasPrefix(data, bomUTF8) && utf8.Valid(data[3:]) {
		return data[3:], "utf-8-bom", nil
	}

	// Pure ASCII decodes identically under every supported encoding;
	// the detector adds nothing.
	if isASCII(data) {
		return data, "utf-8", nil
	}

	sample := data
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}

	if det, err := chardet.NewTextDetector().DetectBest(sample); err == nil && det != nil &&
		det.Confidence >= minDetectorConfidence {
		cs := strings.ToLower(det.Charset)
		if enc, ok := charsetDecoders[cs]; ok {
			if out, err := enc.NewDecoder().Bytes(data); err == nil && utf8.Valid(out) {
				return out, cs, nil
			}
		}
	}

	for _, st := range fallbackChain {
		if out, ok := st.decode(data); ok {
			var w []Warning
			if st.name != "utf-8" && st.name != "utf-8-bom" {
				w = append(w, Warning{
					Code:    WarnEncodingFallback,
					Message: "encoding detector not confident; decoded as " + st.name,
				})
			}
			return out, st.name, w
		}
	}

	// Unreachable: latin-1 maps every byte. Kept as a guard.
	out, _ := decodeWith(charmap.ISO8859_1)(data)
	return out, "latin-1", []Warning{{
		Code:    WarnEncodingFallback,
		Message: "fallback chain exhausted; decoded as latin-1",
	}}
}
