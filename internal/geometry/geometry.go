// Package geometry converts relative placement specifications into absolute
// pixel coordinates.
//
// It covers three concerns, all pure functions with no I/O:
//
//   - Offsets: overlay placement values that may be literal pixels or
//     percentages of a reference dimension, with negative values anchoring
//     from the far edge.
//   - Ratios: integer percentages in [0, 100] given in literal string form.
//   - Bounding boxes: fractional face boxes clamped into [0, 1] and
//     converted to absolute crop rectangles with optional padding.
package geometry

import (
	"strconv"
	"strings"
)

// OffsetKind discriminates the two offset representations.
type OffsetKind int

const (
	// Pixels is a literal pixel offset.
	Pixels OffsetKind = iota

	// Percent is a percentage of the reference dimension.
	Percent
)

// Offset is a parsed placement offset along one axis.
type Offset struct {
	Kind  OffsetKind
	Value float64
}

// ParseOffset parses a raw offset string. A trailing "%" marks a
// percentage; anything else must be an integer pixel value. The boolean is
// false when the input is not a valid offset, in which case the caller is
// expected to drop the offset and let the compositor default it.
func ParseOffset(raw string) (Offset, bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
		if err != nil {
			return Offset{}, false
		}
		return Offset{Kind: Percent, Value: pct}, true
	}
	px, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Offset{}, false
	}
	return Offset{Kind: Pixels, Value: float64(px)}, true
}

// Resolve converts an offset into an absolute pixel coordinate.
//
// refDim is the reference image dimension along this axis and overlayDim
// the overlay's dimension along the same axis. Negative values anchor the
// overlay's trailing edge relative to the far edge of the reference:
//
//	Percent >= 0:  refDim * pct/100
//	Percent < 0:   refDim + refDim*pct/100 - overlayDim
//	Pixels  >= 0:  value as-is
//	Pixels  < 0:   refDim + value - overlayDim
func (o Offset) Resolve(refDim, overlayDim int) int {
	switch o.Kind {
	case Percent:
		if o.Value < 0 {
			return int(float64(refDim) + float64(refDim)*o.Value/100 - float64(overlayDim))
		}
		return int(float64(refDim) * o.Value / 100)
	default:
		if o.Value < 0 {
			return refDim + int(o.Value) - overlayDim
		}
		return int(o.Value)
	}
}

// ParseRatio validates a scaling ratio given in literal string form.
// Only the string form of an integer 0-100 is accepted; anything else
// (signs, decimals, stray characters, out-of-range values) is rejected.
func ParseRatio(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > 3 {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n > 100 {
		return 0, false
	}
	return n, true
}

// Box is a fractional bounding box relative to the top-left origin.
// All fields are fractions of the image dimensions.
type Box struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// FullFrame is the box covering an entire image.
func FullFrame() Box {
	return Box{Left: 0, Top: 0, Width: 1, Height: 1}
}

// Clamp forces the box into the unit square. Each field is clamped to
// [0, 1] first; then Width and Height are shrunk so that Left+Width and
// Top+Height do not exceed 1. After clamping the invariants
// 0 <= Left,Top <= 1, Left+Width <= 1 and Top+Height <= 1 hold.
func (b Box) Clamp() Box {
	b.Left = clamp01(b.Left)
	b.Top = clamp01(b.Top)
	b.Width = clamp01(b.Width)
	b.Height = clamp01(b.Height)
	if b.Left+b.Width > 1 {
		b.Width = 1 - b.Left
	}
	if b.Top+b.Height > 1 {
		b.Height = 1 - b.Top
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CropArea is an absolute pixel rectangle within a source image.
type CropArea struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// CropFromBox converts a fractional box into an absolute crop area over an
// imgWidth x imgHeight image, expanding it by padding pixels on every side.
// Fractional results are truncated toward zero.
func CropFromBox(b Box, imgWidth, imgHeight, padding int) CropArea {
	return CropArea{
		Left:   int(b.Left*float64(imgWidth)) - padding,
		Top:    int(b.Top*float64(imgHeight)) - padding,
		Width:  int(b.Width*float64(imgWidth)) + 2*padding,
		Height: int(b.Height*float64(imgHeight)) + 2*padding,
	}
}

// Within reports whether the crop area lies entirely inside an
// imgWidth x imgHeight image.
func (c CropArea) Within(imgWidth, imgHeight int) bool {
	return c.Left >= 0 && c.Top >= 0 &&
		c.Width > 0 && c.Height > 0 &&
		c.Left+c.Width <= imgWidth && c.Top+c.Height <= imgHeight
}
