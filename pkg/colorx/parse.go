// Package colorx parses colors given in configs and on the command line.
package colorx

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"
)

var named = map[string]color.RGBA{
	"black":       {A: 0xff},
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"transparent": {},
}

// Parse accepts a color name or a hex value in forms "rgb", "rrggbb"
// and "rrggbbaa" (optionally prefixed with '#').
func Parse(s string) (color.RGBA, error) {
	if len(s) == 0 {
		return color.RGBA{}, fmt.Errorf("empty string")
	}
	if c, ok := named[strings.ToLower(s)]; ok {
		return c, nil
	}
	return ParseHex(strings.TrimPrefix(s, "#"))
}

func ParseHex(s string) (color.RGBA, error) {
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("unable to decode '%s': %w", s, err)
	}
	switch len(b) {
	case 3:
		return color.RGBA{R: b[0], G: b[1], B: b[2], A: 0xff}, nil
	case 4:
		return color.RGBA{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
	}
	return color.RGBA{}, fmt.Errorf("unexpected length: %d", len(s))
}

// Format is the inverse of Parse for colors without a name.
func Format(c color.RGBA) string {
	if c.A == 0xff {
		return "#" + hex.EncodeToString([]byte{c.R, c.G, c.B})
	}
	return "#" + hex.EncodeToString([]byte{c.R, c.G, c.B, c.A})
}
