package scene

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// RGB converts 8-bit channels to a linear 0..1 color.
func RGB(r, g, b uint8) mgl32.Vec3 {
	return mgl32.Vec3{float32(r) / 255, float32(g) / 255, float32(b) / 255}
}

// CMYK converts cyan, magenta, yellow and key fractions in 0..1.
func CMYK(c, m, y, k float32) mgl32.Vec3 {
	return mgl32.Vec3{(1 - c) * (1 - k), (1 - m) * (1 - k), (1 - y) * (1 - k)}
}

// Hex parses "#rrggbb", "rrggbb", "#rgb" or "rgb".
func Hex(s string) (mgl32.Vec3, error) {
	digits := strings.TrimPrefix(s, "#")
	if len(digits) == 3 {
		digits = string([]byte{
			digits[0], digits[0],
			digits[1], digits[1],
			digits[2], digits[2],
		})
	}
	if len(digits) != 6 {
		return mgl32.Vec3{}, errors.Newf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return mgl32.Vec3{}, errors.Wrapf(err, "invalid hex color %q", s)
	}
	return HexInt(uint32(v)), nil
}

// HexInt converts 0xRRGGBB. Bits above the low 24 are ignored.
func HexInt(v uint32) mgl32.Vec3 {
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v))
}

var (
	White   = HexInt(0xffffff)
	Black   = HexInt(0x000000)
	Pink    = HexInt(0xffc0cb)
	Magenta = HexInt(0xff00ff)
	Red     = HexInt(0xff0000)
	Brown   = HexInt(0xa52a2a)
	Orange  = HexInt(0xffa500)
	Yellow  = HexInt(0xffff00)
	Lime    = HexInt(0x00ff00)
	Green   = HexInt(0x008000)
	Olive   = HexInt(0x808000)
	Teal    = HexInt(0x008080)
	Cyan    = HexInt(0x00ffff)
	Blue    = HexInt(0x0000ff)
	Indigo  = HexInt(0x4b0082)
	Violet  = HexInt(0xee82ee)
	Purple  = HexInt(0x800080)
)

// Rainbow is the palette of the demo's ring of lights.
var Rainbow = []mgl32.Vec3{
	Pink, Magenta, Red, Brown, Orange, Yellow, Lime, Green,
	Olive, Teal, Cyan, Blue, Indigo, Violet, Purple,
}
