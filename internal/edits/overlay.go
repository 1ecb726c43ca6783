package edits

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/pixeldrift/imagehandler/internal/apperr"
	"github.com/pixeldrift/imagehandler/internal/geometry"
	"github.com/pixeldrift/imagehandler/internal/transform"
)

type overlayParams struct {
	Bucket  string          `json:"bucket"`
	Key     string          `json:"key"`
	WRatio  json.RawMessage `json:"wRatio"`
	HRatio  json.RawMessage `json:"hRatio"`
	Alpha   json.RawMessage `json:"alpha"`
	Options overlayOptions  `json:"options"`
}

type overlayOptions struct {
	Left json.RawMessage `json:"left"`
	Top  json.RawMessage `json:"top"`
}

// applyOverlay fetches an overlay asset from storage, scales it relative
// to the reference dimensions, applies the requested opacity and
// composites it onto the working image.
func (p *Processor) applyOverlay(ctx context.Context, st *state, value json.RawMessage) error {
	var params overlayParams
	if err := json.Unmarshal(value, &params); err != nil {
		return apperr.Newf(400, "InvalidEditValue", "invalid overlayWith parameters: %v", err)
	}
	if p.store == nil {
		return apperr.New(500, "StorageError", "no object store configured")
	}

	refW, refH := st.referenceSize()

	data, err := p.store.Get(ctx, params.Bucket, params.Key)
	if err != nil {
		return apperr.Wrap(fmt.Errorf("fetching overlay %s/%s: %w", params.Bucket, params.Key, err), "StorageError")
	}
	overlay, err := transform.Decode(data, transform.DecodeOptions{AutoOrient: true})
	if err != nil {
		return err
	}

	// Only axes with a valid 0-100 ratio constrain the overlay scale.
	var targetW, targetH int
	if r, ok := geometry.ParseRatio(rawScalarString(params.WRatio)); ok {
		targetW = refW * r / 100
	}
	if r, ok := geometry.ParseRatio(rawScalarString(params.HRatio)); ok {
		targetH = refH * r / 100
	}
	if targetW > 0 || targetH > 0 {
		overlay.Resize(transform.ResizeParams{Width: targetW, Height: targetH, Fit: "inside"})
	}

	// alpha scales transparency: 0 is fully opaque, 100 fully
	// transparent. Anything that is not a valid 0-100 value behaves as 0.
	alpha := 0
	if a, ok := geometry.ParseRatio(rawScalarString(params.Alpha)); ok {
		alpha = a
	}
	opacity := 1 - float64(alpha)/100

	at := resolvePlacement(params.Options, refW, refH, overlay.Width(), overlay.Height())
	st.img.Overlay(overlay.NRGBA(), at, opacity)
	return nil
}

// resolvePlacement converts the raw left/top options into an absolute
// position. An absent or invalid offset is dropped and that axis defaults
// to centering the overlay.
func resolvePlacement(opts overlayOptions, refW, refH, overlayW, overlayH int) image.Point {
	x := (refW - overlayW) / 2
	if off, ok := geometry.ParseOffset(rawScalarString(opts.Left)); ok {
		x = off.Resolve(refW, overlayW)
	}
	y := (refH - overlayH) / 2
	if off, ok := geometry.ParseOffset(rawScalarString(opts.Top)); ok {
		y = off.Resolve(refH, overlayH)
	}
	return image.Pt(x, y)
}
