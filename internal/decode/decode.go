// Package decode renders every common interpretation of a received
// byte buffer: hex and binary dumps, ASCII and UTF-8 text, and all
// fixed-width integer and IEEE-754 float readings in both byte
// orders. Formatting is stateless; a buffer in, strings out.
package decode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// View is one labelled interpretation of a byte buffer.
type View struct {
	Label string
	Value string
}

// HexDump renders data as space-separated uppercase hex octets.
func HexDump(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// BinDump renders data as space-separated 8-bit binary groups.
func BinDump(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%08b", b)
	}
	return sb.String()
}

// ASCIIRepr renders printable ASCII characters, replacing everything
// else with '.'.
func ASCIIRepr(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b >= 32 && b < 127 {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// UTF8Text attempts a UTF-8 reading of data. Returns false when the
// buffer is not valid UTF-8 or trims to nothing.
func UTF8Text(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", false
	}
	return s, true
}

// IntViews decodes the leading bytes of data as every standard
// integer width that fits, unsigned and signed, little- and
// big-endian. Order is fixed for deterministic rendering.
func IntViews(data []byte) []View {
	var views []View

	add := func(width int, uLE, uBE uint64, sLE, sBE int64) {
		views = append(views,
			View{fmt.Sprintf("uint%d_LE", width), fmt.Sprintf("%d", uLE)},
			View{fmt.Sprintf("uint%d_BE", width), fmt.Sprintf("%d", uBE)},
			View{fmt.Sprintf("int%d_LE", width), fmt.Sprintf("%d", sLE)},
			View{fmt.Sprintf("int%d_BE", width), fmt.Sprintf("%d", sBE)},
		)
	}

	if len(data) >= 1 {
		u := uint64(data[0])
		s := int64(int8(data[0]))
		add(8, u, u, s, s)
	}
	if len(data) >= 2 {
		le := binary.LittleEndian.Uint16(data)
		be := binary.BigEndian.Uint16(data)
		add(16, uint64(le), uint64(be), int64(int16(le)), int64(int16(be)))
	}
	if len(data) >= 4 {
		le := binary.LittleEndian.Uint32(data)
		be := binary.BigEndian.Uint32(data)
		add(32, uint64(le), uint64(be), int64(int32(le)), int64(int32(be)))
	}
	if len(data) >= 8 {
		le := binary.LittleEndian.Uint64(data)
		be := binary.BigEndian.Uint64(data)
		add(64, le, be, int64(le), int64(be))
	}

	return views
}

// FloatViews decodes the leading bytes as 32- and 64-bit IEEE-754
// floats in both byte orders, where the buffer is long enough.
func FloatViews(data []byte) []View {
	var views []View

	if len(data) >= 4 {
		le := math.Float32frombits(binary.LittleEndian.Uint32(data))
		be := math.Float32frombits(binary.BigEndian.Uint32(data))
		views = append(views,
			View{"float32_LE", fmt.Sprintf("%.6g", le)},
			View{"float32_BE", fmt.Sprintf("%.6g", be)},
		)
	}
	if len(data) >= 8 {
		le := math.Float64frombits(binary.LittleEndian.Uint64(data))
		be := math.Float64frombits(binary.BigEndian.Uint64(data))
		views = append(views,
			View{"float64_LE", fmt.Sprintf("%.6g", le)},
			View{"float64_BE", fmt.Sprintf("%.6g", be)},
		)
	}

	return views
}
