package transform

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

// createSolidImage builds an in-memory image filled with a single color.
func createSolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func testImage(t *testing.T, w, h int) *Image {
	t.Helper()
	img, err := Decode(encodePNG(t, createSolidImage(w, h, color.NRGBA{200, 100, 50, 255})), DecodeOptions{AutoOrient: true})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name  string
		want  Format
		valid bool
	}{
		{"jpeg", FormatJPEG, true},
		{"jpg", FormatJPEG, true},
		{"png", FormatPNG, true},
		{"gif", FormatGIF, true},
		{"webp", FormatWEBP, true},
		{"bmp", FormatBMP, true},
		{"tiff", FormatTIFF, true},
		{"tif", FormatTIFF, true},
		{"svg", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFormat(tt.name)
		if ok != tt.valid || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.valid)
		}
	}
}

func TestDecode_ReportsFormatAndDimensions(t *testing.T) {
	img := testImage(t, 64, 32)
	if img.Format() != FormatPNG {
		t.Errorf("Format = %q, want png", img.Format())
	}
	if img.Width() != 64 || img.Height() != 32 {
		t.Errorf("dimensions = %dx%d, want 64x32", img.Width(), img.Height())
	}
}

func TestDecode_RejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image"), DecodeOptions{}); err == nil {
		t.Error("Decode should fail for non-image bytes")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	img := testImage(t, 20, 20)

	for _, format := range []Format{FormatPNG, FormatJPEG, FormatGIF, FormatBMP, FormatTIFF, FormatWEBP} {
		t.Run(string(format), func(t *testing.T) {
			data, err := img.Encode(format)
			if err != nil {
				t.Fatalf("Encode(%s) failed: %v", format, err)
			}
			back, err := Decode(data, DecodeOptions{})
			if err != nil {
				t.Fatalf("re-decoding %s failed: %v", format, err)
			}
			if back.Width() != 20 || back.Height() != 20 {
				t.Errorf("round-trip dimensions = %dx%d, want 20x20", back.Width(), back.Height())
			}
		})
	}
}

func TestResizeDims(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		params       ResizeParams
		wantW, wantH int
	}{
		{"no dimensions is identity", 640, 480, ResizeParams{Fit: "inside"}, 640, 480},
		{"width only preserves aspect", 640, 480, ResizeParams{Width: 320}, 320, 240},
		{"height only preserves aspect", 640, 480, ResizeParams{Height: 240}, 320, 240},
		{"inside fits within box", 640, 480, ResizeParams{Width: 100, Height: 100, Fit: "inside"}, 100, 75},
		{"contain same as inside", 640, 480, ResizeParams{Width: 100, Height: 100, Fit: "contain"}, 100, 75},
		{"inside can enlarge", 100, 100, ResizeParams{Width: 200, Height: 400, Fit: "inside"}, 200, 200},
		{"cover yields exact box", 640, 480, ResizeParams{Width: 100, Height: 100, Fit: "cover"}, 100, 100},
		{"fill distorts to exact box", 640, 480, ResizeParams{Width: 50, Height: 300, Fit: "fill"}, 50, 300},
		{"outside covers both dims", 640, 480, ResizeParams{Width: 100, Height: 100, Fit: "outside"}, 133, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ResizeDims(tt.srcW, tt.srcH, tt.params)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ResizeDims = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestImage_Resize(t *testing.T) {
	img := testImage(t, 100, 50)
	img.Resize(ResizeParams{Width: 50, Fit: "inside"})
	if img.Width() != 50 || img.Height() != 25 {
		t.Errorf("resized to %dx%d, want 50x25", img.Width(), img.Height())
	}
}

func TestImage_Rotate_RightAngles(t *testing.T) {
	img := testImage(t, 40, 20)
	img.Rotate(90)
	if img.Width() != 20 || img.Height() != 40 {
		t.Errorf("after 90deg: %dx%d, want 20x40", img.Width(), img.Height())
	}
	img.Rotate(270)
	if img.Width() != 40 || img.Height() != 20 {
		t.Errorf("after 270deg more: %dx%d, want 40x20", img.Width(), img.Height())
	}
}

func TestImage_Crop(t *testing.T) {
	img := testImage(t, 100, 100)
	if err := img.Crop(10, 20, 30, 40); err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if img.Width() != 30 || img.Height() != 40 {
		t.Errorf("cropped to %dx%d, want 30x40", img.Width(), img.Height())
	}
}

func TestImage_Crop_OutOfBounds(t *testing.T) {
	tests := []struct {
		name                     string
		left, top, width, height int
	}{
		{"negative left", -1, 0, 10, 10},
		{"width overflow", 95, 0, 10, 10},
		{"height overflow", 0, 95, 10, 10},
		{"zero width", 0, 0, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := testImage(t, 100, 100)
			if err := img.Crop(tt.left, tt.top, tt.width, tt.height); err == nil {
				t.Error("Crop should fail for out-of-bounds area")
			}
		})
	}
}

func TestImage_Apply_Passthrough(t *testing.T) {
	img := testImage(t, 60, 30)

	if err := img.Apply("flop", []byte("true")); err != nil {
		t.Fatalf("flop failed: %v", err)
	}
	if err := img.Apply("grayscale", []byte("true")); err != nil {
		t.Fatalf("grayscale failed: %v", err)
	}
	if err := img.Apply("resize", []byte(`{"width":30,"fit":"inside"}`)); err != nil {
		t.Fatalf("resize failed: %v", err)
	}
	if img.Width() != 30 || img.Height() != 15 {
		t.Errorf("final dimensions = %dx%d, want 30x15", img.Width(), img.Height())
	}
}

func TestImage_Apply_UnknownOperation(t *testing.T) {
	img := testImage(t, 10, 10)
	if err := img.Apply("transmogrify", []byte("true")); err == nil {
		t.Error("unknown operation should fail")
	}
}

func TestImage_Apply_Flatten(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4)) // fully transparent
	img, err := Decode(encodePNG(t, src), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := img.Apply("flatten", []byte(`{"background":"#ff0000"}`)); err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	got := img.NRGBA().NRGBAAt(1, 1)
	if got.R != 255 || got.G != 0 || got.B != 0 || got.A != 255 {
		t.Errorf("flattened pixel = %+v, want opaque red", got)
	}
}

func TestImage_Apply_Flatten_InvalidColor(t *testing.T) {
	img := testImage(t, 4, 4)
	if err := img.Apply("flatten", []byte(`{"background":"#nothex"}`)); err == nil {
		t.Error("flatten with invalid color should fail")
	}
}

func TestReadOrientation(t *testing.T) {
	if got := readOrientation(encodePNG(t, createSolidImage(2, 2, color.NRGBA{A: 255}))); got != 1 {
		t.Errorf("png orientation = %d, want 1", got)
	}
	if got := readOrientation(exifJPEG(6)); got != 6 {
		t.Errorf("jpeg orientation = %d, want 6", got)
	}
	if got := readOrientation(exifJPEG(3)); got != 3 {
		t.Errorf("jpeg orientation = %d, want 3", got)
	}
	if got := readOrientation([]byte{0xFF, 0xD8, 0xFF, 0xDA, 0x00, 0x02}); got != 1 {
		t.Errorf("jpeg without EXIF orientation = %d, want 1", got)
	}
}

func TestAutoOrient(t *testing.T) {
	img := testImage(t, 40, 20)
	img.orientation = 6 // stored sideways, needs 90deg clockwise
	img.AutoOrient()
	if img.Width() != 20 || img.Height() != 40 {
		t.Errorf("oriented dimensions = %dx%d, want 20x40", img.Width(), img.Height())
	}
	if img.orientation != 1 {
		t.Errorf("orientation not reset, got %d", img.orientation)
	}
}

// exifJPEG builds a minimal JPEG prefix carrying an EXIF orientation tag.
func exifJPEG(orientation byte) []byte {
	tiff := []byte{
		'M', 'M', 0x00, 0x2A, // big-endian TIFF header
		0x00, 0x00, 0x00, 0x08, // IFD0 offset
		0x00, 0x01, // one entry
		0x01, 0x12, // orientation tag
		0x00, 0x03, // SHORT
		0x00, 0x00, 0x00, 0x01, // count
		0x00, orientation, 0x00, 0x00, // value
		0x00, 0x00, 0x00, 0x00, // next IFD
	}
	app1 := append([]byte("Exif\x00\x00"), tiff...)
	segLen := len(app1) + 2
	out := []byte{0xFF, 0xD8, 0xFF, 0xE1, byte(segLen >> 8), byte(segLen & 0xFF)}
	out = append(out, app1...)
	out = append(out, 0xFF, 0xDA, 0x00, 0x02)
	return out
}

func TestImage_Overlay_Opacity(t *testing.T) {
	base := testImage(t, 10, 10)
	over := createSolidImage(10, 10, color.NRGBA{0, 0, 255, 255})

	base.Overlay(over, image.Pt(0, 0), 0)
	got := base.NRGBA().NRGBAAt(5, 5)
	if got.B > 60 {
		t.Errorf("zero-opacity overlay changed pixel to %+v", got)
	}

	base.Overlay(over, image.Pt(0, 0), 1)
	got = base.NRGBA().NRGBAAt(5, 5)
	if got.B != 255 {
		t.Errorf("full-opacity overlay pixel = %+v, want blue", got)
	}
}

func TestMaskDestIn(t *testing.T) {
	img := testImage(t, 4, 4)
	mask := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	mask.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})

	img.MaskDestIn(mask)

	if a := img.NRGBA().NRGBAAt(1, 1).A; a != 255 {
		t.Errorf("masked-in pixel alpha = %d, want 255", a)
	}
	if a := img.NRGBA().NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("masked-out pixel alpha = %d, want 0", a)
	}
}

func TestEllipseMask_CenteredCircle(t *testing.T) {
	const s = 50
	mask := EllipseMask(s, s, s/2, s/2, s/2, s/2)

	if mask.NRGBAAt(s/2, s/2).A != 255 {
		t.Error("center should be opaque")
	}
	if mask.NRGBAAt(0, 0).A != 0 {
		t.Error("corner should be transparent")
	}
	if mask.NRGBAAt(s/2, 1).A != 255 {
		t.Error("top of the circle should be opaque")
	}
}

func TestTrimTransparent(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			src.SetNRGBA(x, y, color.NRGBA{10, 20, 30, 255})
		}
	}
	img, err := Decode(encodePNG(t, src), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	img.TrimTransparent()
	if img.Width() != 10 || img.Height() != 10 {
		t.Errorf("trimmed to %dx%d, want 10x10", img.Width(), img.Height())
	}
}

func TestTrimTransparent_AllTransparent(t *testing.T) {
	img, err := Decode(encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 8, 8))), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	img.TrimTransparent()
	if img.Width() != 8 || img.Height() != 8 {
		t.Errorf("fully transparent image should be unchanged, got %dx%d", img.Width(), img.Height())
	}
}

func TestRender_ProducesPNG(t *testing.T) {
	img := testImage(t, 6, 6)
	data, err := img.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("rendered bytes are not decodable: %v", err)
	}
}
