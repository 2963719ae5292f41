package decode

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
)

func renderGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRender_Golden(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

	cases := []struct {
		name string
		pkt  Packet
	}{
		{
			// The first transmission in replicate-to-all-lanes mode.
			name: "counter_all_first",
			pkt:  Packet{Num: 1, At: at, Data: []byte{0x01, 0x01, 0x01, 0x01}},
		},
		{
			name: "ascii_text",
			pkt:  Packet{Num: 2, At: at, Data: []byte("OK!\n")},
		},
		{
			// Eight bytes exercise every integer and float width.
			name: "full_width",
			pkt:  Packet{Num: 3, At: at, Data: []byte("ABCDEFGH")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			Render(&buf, tc.pkt)
			renderGoldie(t).Assert(t, tc.name, buf.Bytes())
		})
	}
}
