// Package transform wraps the underlying image codec and compositing
// libraries behind the capability set the edit pipeline needs: decode and
// re-encode, metadata introspection, resize, rotate, blur, composite,
// extract and trim primitives, and format conversion.
//
// The package owns a mutable working image threaded through the edit
// pipeline. It is not safe for concurrent use; one Image belongs to one
// request.
package transform

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/pixeldrift/imagehandler/internal/apperr"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWEBP Format = "webp"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat normalizes a codec name. The boolean is false for names no
// encoder is registered for.
func ParseFormat(name string) (Format, bool) {
	switch name {
	case "jpeg", "jpg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "gif":
		return FormatGIF, true
	case "webp":
		return FormatWEBP, true
	case "bmp":
		return FormatBMP, true
	case "tiff", "tif":
		return FormatTIFF, true
	}
	return "", false
}

// Image is the mutable in-progress image state. It wraps the decoded
// pixels plus cached source metadata (format, EXIF orientation).
type Image struct {
	nrgba       *image.NRGBA
	format      Format
	orientation int
}

// DecodeOptions controls decode-time behavior.
type DecodeOptions struct {
	// AutoOrient applies the source's EXIF orientation to the pixels at
	// decode time. When false the orientation is only recorded, so an
	// explicit auto-orient edit can apply it later.
	AutoOrient bool
}

// Decode opens raw image bytes as a working image. JPEG, PNG, GIF, BMP,
// TIFF and WebP sources are supported.
func Decode(data []byte, opts DecodeOptions) (*Image, error) {
	if isWebP(data) {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, apperr.Wrap(fmt.Errorf("decoding webp image: %w", err), "DecodeError")
		}
		return &Image{nrgba: imaging.Clone(img), format: FormatWEBP, orientation: 1}, nil
	}

	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.New(400, "DecodeError", fmt.Sprintf("unsupported or corrupt image: %v", err))
	}
	format, ok := ParseFormat(name)
	if !ok {
		return nil, apperr.Newf(400, "DecodeError", "unsupported image format %q", name)
	}

	orientation := readOrientation(data)

	var img image.Image
	if opts.AutoOrient {
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, apperr.New(400, "DecodeError", fmt.Sprintf("decoding image: %v", err))
	}

	return &Image{nrgba: imaging.Clone(img), format: format, orientation: orientation}, nil
}

// Width returns the current width in pixels.
func (im *Image) Width() int { return im.nrgba.Bounds().Dx() }

// Height returns the current height in pixels.
func (im *Image) Height() int { return im.nrgba.Bounds().Dy() }

// Format returns the source codec the image was decoded from.
func (im *Image) Format() Format { return im.format }

// NRGBA exposes the current pixel buffer. Callers must not retain it
// across further edits.
func (im *Image) NRGBA() *image.NRGBA { return im.nrgba }

// AutoOrient bakes the recorded EXIF orientation into the pixels. It is a
// no-op when the source carried no orientation tag or the tag was already
// applied at decode time.
func (im *Image) AutoOrient() {
	switch im.orientation {
	case 2:
		im.nrgba = imaging.FlipH(im.nrgba)
	case 3:
		im.nrgba = imaging.Rotate180(im.nrgba)
	case 4:
		im.nrgba = imaging.FlipV(im.nrgba)
	case 5:
		im.nrgba = imaging.Transpose(im.nrgba)
	case 6:
		im.nrgba = imaging.Rotate270(im.nrgba)
	case 7:
		im.nrgba = imaging.Transverse(im.nrgba)
	case 8:
		im.nrgba = imaging.Rotate90(im.nrgba)
	}
	im.orientation = 1
}

// Encode serializes the image in the given format. JPEG output is encoded
// at quality 95, WebP lossy at quality 90.
func (im *Image) Encode(format Format) ([]byte, error) {
	var buf bytes.Buffer

	if format == FormatWEBP {
		if err := webp.Encode(&buf, im.nrgba, &webp.Options{Quality: 90}); err != nil {
			return nil, fmt.Errorf("encoding webp image: %w", err)
		}
		return buf.Bytes(), nil
	}

	var f imaging.Format
	switch format {
	case FormatJPEG:
		f = imaging.JPEG
	case FormatPNG:
		f = imaging.PNG
	case FormatGIF:
		f = imaging.GIF
	case FormatBMP:
		f = imaging.BMP
	case FormatTIFF:
		f = imaging.TIFF
	default:
		return nil, apperr.Newf(400, "EncodeError", "unsupported output format %q", format)
	}

	if err := imaging.Encode(&buf, im.nrgba, f, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("encoding %s image: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Render serializes the current pixels as PNG. It is used to hand the
// working image to analysis collaborators that expect raw image bytes.
func (im *Image) Render() ([]byte, error) {
	return im.Encode(FormatPNG)
}

func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}
