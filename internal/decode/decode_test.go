package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexDump(t *testing.T) {
	assert.Equal(t, "01 00 FF 80", HexDump([]byte{0x01, 0x00, 0xFF, 0x80}))
	assert.Equal(t, "", HexDump(nil))
}

func TestBinDump(t *testing.T) {
	assert.Equal(t, "00000001 11111111", BinDump([]byte{0x01, 0xFF}))
}

func TestASCIIRepr(t *testing.T) {
	assert.Equal(t, "OK!.", ASCIIRepr([]byte("OK!\n")))
	assert.Equal(t, "....", ASCIIRepr([]byte{0x00, 0x1F, 0x7F, 0xFF}))
	assert.Equal(t, " ~", ASCIIRepr([]byte{0x20, 0x7E}))
}

func TestUTF8Text(t *testing.T) {
	s, ok := UTF8Text([]byte("  hello \n"))
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = UTF8Text([]byte{0xFF, 0xFE})
	assert.False(t, ok, "invalid UTF-8 has no text reading")

	_, ok = UTF8Text([]byte("   \n\t"))
	assert.False(t, ok, "whitespace-only trims to nothing")
}

func TestIntViews_Widths(t *testing.T) {
	// One byte: only the 8-bit readings.
	views := IntViews([]byte{0xFF})
	require.Len(t, views, 4)
	assert.Equal(t, View{"uint8_LE", "255"}, views[0])
	assert.Equal(t, View{"int8_LE", "-1"}, views[2])

	// Two bytes add the 16-bit readings.
	views = IntViews([]byte{0x01, 0x02})
	require.Len(t, views, 8)
	assert.Equal(t, View{"uint16_LE", "513"}, views[4])
	assert.Equal(t, View{"uint16_BE", "258"}, views[5])

	// Three bytes fit no new width.
	assert.Len(t, IntViews([]byte{1, 2, 3}), 8)

	// Four and eight bytes complete the set.
	assert.Len(t, IntViews([]byte{1, 2, 3, 4}), 12)
	assert.Len(t, IntViews([]byte{1, 2, 3, 4, 5, 6, 7, 8}), 16)

	assert.Empty(t, IntViews(nil))
}

func TestIntViews_SignedNegative(t *testing.T) {
	views := IntViews([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	byLabel := make(map[string]string, len(views))
	for _, v := range views {
		byLabel[v.Label] = v.Value
	}
	assert.Equal(t, "4294967295", byLabel["uint32_LE"])
	assert.Equal(t, "-1", byLabel["int32_LE"])
	assert.Equal(t, "-1", byLabel["int32_BE"])
}

func TestFloatViews(t *testing.T) {
	// 0x3F800000 is 1.0 as a big-endian float32.
	views := FloatViews([]byte{0x3F, 0x80, 0x00, 0x00})
	require.Len(t, views, 2)
	assert.Equal(t, View{"float32_BE", "1"}, views[1])

	assert.Empty(t, FloatViews([]byte{1, 2, 3}))

	views = FloatViews([]byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F})
	require.Len(t, views, 4)
	// 0x3FF0000000000000 little-endian is 1.0 as a float64.
	assert.Equal(t, View{"float64_LE", "1"}, views[2])
}

func TestSeparator(t *testing.T) {
	s := Separator('═')
	assert.Len(t, []rune(s), 70)
}
