package edits

import (
	"encoding/json"

	"github.com/pixeldrift/imagehandler/internal/transform"
)

type roundCropParams struct {
	RX   *int `json:"rx"`
	RY   *int `json:"ry"`
	Top  *int `json:"top"`
	Left *int `json:"left"`
}

// applyRoundCrop masks the working image with an ellipse and trims the
// transparent margins. Parameters are honored only when present and
// non-negative; the defaults describe a centered circle inscribed in the
// image.
func applyRoundCrop(st *state, value json.RawMessage) error {
	var params roundCropParams
	if !isNull(value) {
		// A non-object value (e.g. boolean true) selects the defaults.
		_ = json.Unmarshal(value, &params)
	}

	w, h := st.img.Width(), st.img.Height()
	minDim := w
	if h < minDim {
		minDim = h
	}

	rx := paramOrDefault(params.RX, minDim/2)
	ry := paramOrDefault(params.RY, minDim/2)
	top := paramOrDefault(params.Top, h/2)
	left := paramOrDefault(params.Left, w/2)

	mask := transform.EllipseMask(w, h, left, top, rx, ry)
	st.img.MaskDestIn(mask)
	st.img.TrimTransparent()
	return nil
}

func paramOrDefault(v *int, def int) int {
	if v != nil && *v >= 0 {
		return *v
	}
	return def
}
