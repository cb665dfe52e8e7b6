package shape

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Planet and ring tones.
var (
	SaturnBody = mustHex("#f4a460")
	RingInner  = mustHex("#d4a574")
	RingOuter  = mustHex("#8b7355")
)

// Heart tones, from the deep base to the pale highlight.
var (
	HeartDeep  = mustHex("#ff1744")
	HeartMid   = mustHex("#ff6b9d")
	HeartLight = mustHex("#ffc1cc")
)

// Background is the clear color used by every renderer; fog fades toward it.
var Background = mustHex("#05050a")

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("shape: bad palette color %q: %v", s, err))
	}
	return c
}
