package decode

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Packet is one received chunk with reception metadata.
type Packet struct {
	Num  int
	At   time.Time
	Data []byte
}

const sepWidth = 70

// Separator returns a horizontal rule of the given character.
func Separator(ch rune) string {
	return strings.Repeat(string(ch), sepWidth)
}

// Render pretty-prints every interpretation of a packet.
func Render(w io.Writer, p Packet) {
	fmt.Fprintln(w, Separator('─'))
	fmt.Fprintf(w, "  Packet #%6d  |  %s  |  %d byte(s)\n",
		p.Num, p.At.Format("15:04:05"), len(p.Data))
	fmt.Fprintln(w, Separator('─'))

	fmt.Fprintf(w, "  HEX    : %s\n", HexDump(p.Data))
	fmt.Fprintf(w, "  BINARY : %s\n", BinDump(p.Data))
	fmt.Fprintf(w, "  ASCII  : %s\n", ASCIIRepr(p.Data))

	if txt, ok := UTF8Text(p.Data); ok {
		fmt.Fprintf(w, "  UTF-8  : %q\n", txt)
	}

	if ints := IntViews(p.Data); len(ints) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  ── Integer interpretations ─────────────────")
		for _, v := range ints {
			fmt.Fprintf(w, "    %-12s: %s\n", v.Label, v.Value)
		}
	}

	if floats := FloatViews(p.Data); len(floats) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  ── Float interpretations ───────────────────")
		for _, v := range floats {
			fmt.Fprintf(w, "    %-12s: %s\n", v.Label, v.Value)
		}
	}

	fmt.Fprintln(w)
}
