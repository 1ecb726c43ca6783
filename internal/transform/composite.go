package transform

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Overlay composites src over the image at the given position. opacity
// scales the overlay's alpha uniformly: 1.0 leaves it untouched, 0.0 makes
// it invisible. Pixels falling outside the image are clipped.
func (im *Image) Overlay(src image.Image, at image.Point, opacity float64) {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	im.nrgba = imaging.Overlay(im.nrgba, src, at, opacity)
}

// MaskDestIn applies a destination-in blend: each pixel keeps its color
// but its alpha is scaled by the mask's alpha at the same position.
// Pixels outside the mask's bounds become fully transparent.
func (im *Image) MaskDestIn(mask *image.NRGBA) {
	b := im.nrgba.Bounds()
	mb := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := im.nrgba.PixOffset(x, y)
			var ma uint32
			if (image.Point{x, y}).In(mb) {
				ma = uint32(mask.Pix[mask.PixOffset(x, y)+3])
			}
			a := uint32(im.nrgba.Pix[i+3])
			im.nrgba.Pix[i+3] = uint8(a * ma / 255)
		}
	}
}

// EllipseMask builds a w x h mask image that is fully opaque inside the
// ellipse centered at (cx, cy) with radii (rx, ry) and fully transparent
// outside it.
func EllipseMask(w, h, cx, cy, rx, ry int) *image.NRGBA {
	mask := image.NewNRGBA(image.Rect(0, 0, w, h))
	if rx <= 0 || ry <= 0 {
		return mask
	}
	fcx, fcy := float64(cx), float64(cy)
	frx, fry := float64(rx), float64(ry)
	opaque := color.NRGBA{255, 255, 255, 255}
	for y := 0; y < h; y++ {
		dy := (float64(y) + 0.5 - fcy) / fry
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - fcx) / frx
			if dx*dx+dy*dy <= 1 {
				mask.SetNRGBA(x, y, opaque)
			}
		}
	}
	return mask
}

// TrimTransparent crops away uniform fully-transparent margins. An image
// with no opaque pixels at all is left unchanged.
func (im *Image) TrimTransparent() {
	b := im.nrgba.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if im.nrgba.Pix[im.nrgba.PixOffset(x, y)+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if minX > maxX || minY > maxY {
		return
	}
	r := image.Rect(minX, minY, maxX+1, maxY+1)
	if r == b {
		return
	}
	im.nrgba = imaging.Crop(im.nrgba, r)
}
