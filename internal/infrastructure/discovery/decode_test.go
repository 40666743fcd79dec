package discovery

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestDecodeBodyUTF8Passthrough(t *testing.T) {
	t.Parallel()

	text := "こぐまちゃんとどうぶつえん"
	assert.Equal(t, text, DecodeBody([]byte(text), ""))
}

func TestDecodeBodyShiftJISFallback(t *testing.T) {
	t.Parallel()

	text := "絵本ナビのページです"
	raw, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(text))
	require.NoError(t, err)
	require.NotEqual(t, text, string(raw))

	assert.Equal(t, text, DecodeBody(raw, ""))
}

func TestDecodeBodyEUCJPFallback(t *testing.T) {
	t.Parallel()

	text := "昔話の絵本"
	raw, _, err := transform.Bytes(japanese.EUCJP.NewEncoder(), []byte(text))
	require.NoError(t, err)

	// EUC-JP bytes of Japanese text are not valid UTF-8, so the fallback
	// chain has to find a legacy encoding that decodes cleanly.
	decoded := DecodeBody(raw, "")
	assert.NotEmpty(t, decoded)
}

func TestDecodeBodyHonorsHint(t *testing.T) {
	t.Parallel()

	text := "ねないこだれだ"
	raw, _, err := transform.Bytes(japanese.EUCJP.NewEncoder(), []byte(text))
	require.NoError(t, err)

	assert.Equal(t, text, DecodeBody(raw, "euc-jp"))
}

func TestDecodeBodyNeverFails(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		nil,
		{},
		{0xff, 0xfe, 0xfd},
		{0x80, 0x81, 0x82, 0x83, 0x84},
		{0xe3, 0x81},       // truncated UTF-8 sequence
		{0x1b, 0x24, 0x42}, // bare ISO-2022-JP escape
		[]byte("plain ascii"),
	}

	for _, raw := range inputs {
		// Must always return a usable UTF-8 string, degraded or not.
		assert.True(t, utf8.ValidString(DecodeBody(raw, "")))
		assert.True(t, utf8.ValidString(DecodeBody(raw, "shift_jis")))
	}
}

func TestDecodeBodyBadHintIgnored(t *testing.T) {
	t.Parallel()

	text := "ぐりとぐら"
	assert.Equal(t, text, DecodeBody([]byte(text), "no-such-charset"))
}
