package edits

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pixeldrift/imagehandler/internal/apperr"
	"github.com/pixeldrift/imagehandler/internal/geometry"
)

type smartCropParams struct {
	FaceIndex int `json:"faceIndex"`
	Padding   int `json:"padding"`
}

// applySmartCrop crops the working image to a detected face. With no
// detected faces the full frame is used, so the crop is a no-op. The
// requested face index must exist and the padded crop area must stay
// within the image bounds.
func (p *Processor) applySmartCrop(ctx context.Context, st *state, value json.RawMessage) error {
	var params smartCropParams
	if !isNull(value) {
		// A non-object value (e.g. boolean true) selects the defaults.
		_ = json.Unmarshal(value, &params)
	}

	if p.faces == nil {
		return apperr.New(500, "AnalysisError", "no face detector configured")
	}

	rendered, err := st.img.Render()
	if err != nil {
		return err
	}
	faces, err := p.faces.DetectFaces(ctx, rendered)
	if err != nil {
		return apperr.Wrap(fmt.Errorf("detecting faces: %w", err), "AnalysisError")
	}

	box := geometry.FullFrame()
	if len(faces) > 0 {
		if params.FaceIndex < 0 || params.FaceIndex >= len(faces) {
			return apperr.Newf(400, "SmartCrop::FaceIndexOutOfRange",
				"face index %d is out of range, %d faces detected", params.FaceIndex, len(faces))
		}
		bb := faces[params.FaceIndex].BoundingBox
		box = geometry.Box{Left: bb.Left, Top: bb.Top, Width: bb.Width, Height: bb.Height}.Clamp()
	}

	w, h := st.img.Width(), st.img.Height()
	area := geometry.CropFromBox(box, w, h, params.Padding)
	if !area.Within(w, h) {
		return apperr.Newf(400, "SmartCrop::PaddingOutOfBounds",
			"crop area %dx%d at (%d,%d) with padding %d exceeds image bounds %dx%d",
			area.Width, area.Height, area.Left, area.Top, params.Padding, w, h)
	}
	return st.img.Crop(area.Left, area.Top, area.Width, area.Height)
}
