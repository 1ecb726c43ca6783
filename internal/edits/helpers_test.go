package edits

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pixeldrift/imagehandler/internal/analysis"
	"github.com/pixeldrift/imagehandler/internal/storage"
	"github.com/pixeldrift/imagehandler/internal/transform"
)

// createSolidPNG returns a PNG-encoded image filled with a single color.
func createSolidPNG(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// createCheckerPNG returns a PNG with alternating black and white pixels,
// useful when a test needs blur to visibly change the image.
func createCheckerPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// decodeResult decodes a base64 transport payload back into an image.
func decodeResult(t *testing.T, encoded string) *transform.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}
	img, err := transform.Decode(data, transform.DecodeOptions{})
	if err != nil {
		t.Fatalf("result is not a decodable image: %v", err)
	}
	return img
}

func pixelAt(img *transform.Image, x, y int) color.NRGBA {
	return img.NRGBA().NRGBAAt(x, y)
}

type fakeFaceDetector struct {
	faces []analysis.Face
	err   error
}

func (f *fakeFaceDetector) DetectFaces(_ context.Context, _ []byte) ([]analysis.Face, error) {
	return f.faces, f.err
}

type fakeModerationDetector struct {
	labels []analysis.Label
	err    error

	gotMinConfidence float64
}

func (f *fakeModerationDetector) DetectModerationLabels(_ context.Context, _ []byte, minConfidence float64) ([]analysis.Label, error) {
	f.gotMinConfidence = minConfidence
	return f.labels, f.err
}

func newTestProcessor(store storage.Store, faces analysis.FaceDetector, moderation analysis.ModerationDetector) *Processor {
	if store == nil {
		store = storage.NewMemStore()
	}
	return NewProcessor(store, faces, moderation)
}

func processEdits(t *testing.T, p *Processor, original []byte, editsJSON string) string {
	t.Helper()
	var list EditList
	if editsJSON != "" {
		if err := list.UnmarshalJSON([]byte(editsJSON)); err != nil {
			t.Fatalf("bad edits JSON: %v", err)
		}
	}
	out, err := p.Process(context.Background(), &ImageRequest{
		OriginalImage: original,
		Edits:         list,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return out
}
