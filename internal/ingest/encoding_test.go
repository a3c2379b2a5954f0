package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeBytesASCII(t *testing.T) {
	data := []byte("name,qty\nalpha,1\nbeta,2\n")
	out, enc, warns := DecodeBytes(data)
	assert.Equal(t, data, out)
	assert.Equal(t, "utf-8", enc)
	assert.Empty(t, warns)
}

func TestDecodeBytesUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\nJosé\n")...)
	out, enc, warns := DecodeBytes(data)
	assert.Equal(t, "utf-8-bom", enc)
	assert.Equal(t, "name\nJosé\n", string(out))
	assert.Empty(t, warns)
}

func TestDecodeBytesUTF8Multibyte(t *testing.T) {
	data := []byte("name\nZoë,Müller\n")
	out, enc, _ := DecodeBytes(data)
	assert.Equal(t, "utf-8", enc)
	assert.Equal(t, string(data), string(out))
}

func TestDecodeBytesLatin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as a standalone UTF-8 byte.
	data := []byte("name\nJos\xe9\n")
	out, enc, _ := DecodeBytes(data)
	assert.Contains(t, string(out), "José")
	assert.Contains(t, []string{"latin-1", "iso-8859-1", "windows-1252"}, enc)
}

func TestDecodeBytesEmpty(t *testing.T) {
	out, enc, warns := DecodeBytes(nil)
	assert.Empty(t, out)
	assert.Equal(t, "utf-8", enc)
	assert.Empty(t, warns)
}
