package edits

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/pixeldrift/imagehandler/internal/analysis"
	"github.com/pixeldrift/imagehandler/internal/apperr"
	"github.com/pixeldrift/imagehandler/internal/storage"
	"github.com/pixeldrift/imagehandler/internal/transform"
)

// maxTransportBytes is the ceiling on the transport-encoded result.
// Exactly at the boundary passes; one byte over fails.
const maxTransportBytes = 6 * 1024 * 1024

// Processor applies edit lists to images. It is stateless across requests
// and safe for concurrent Process calls.
type Processor struct {
	store      storage.Store
	faces      analysis.FaceDetector
	moderation analysis.ModerationDetector
}

// NewProcessor wires a processor with its collaborators. Any of them may
// be nil; edits that need a missing collaborator fail with status 500.
func NewProcessor(store storage.Store, faces analysis.FaceDetector, moderation analysis.ModerationDetector) *Processor {
	return &Processor{store: store, faces: faces, moderation: moderation}
}

// state is the working context of one Process call. It is never shared:
// edits run strictly sequentially because each depends on the cumulative
// effect of the ones before it.
type state struct {
	img   *transform.Image
	edits EditList

	// Dimensions of the decoded source, before any edit. Overlay and
	// watermark placement reference these (combined with the request's
	// resize edit, if any) rather than the mid-pipeline dimensions.
	origWidth  int
	origHeight int
}

// referenceSize returns the placement reference dimensions: the source
// dimensions as they will be after the request's resize edit, or the
// plain source dimensions when no resize is requested.
func (s *state) referenceSize() (int, int) {
	raw, ok := s.edits.Find("resize")
	if !ok || isNull(raw) {
		return s.origWidth, s.origHeight
	}
	var p transform.ResizeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return s.origWidth, s.origHeight
	}
	return transform.ResizeDims(s.origWidth, s.origHeight, p)
}

// Process applies the request's edits in order and returns the result as
// a base64 transport string. With no edits the original bytes are
// transport-encoded unchanged, preserving them exactly. The encoded
// result must not exceed 6 MiB or Process fails with
// TooLargeImageException (413).
func (p *Processor) Process(ctx context.Context, req *ImageRequest) (string, error) {
	if len(req.Edits) == 0 {
		return encodeTransport(req.OriginalImage)
	}

	// An explicit rotate-with-no-angle edit takes over orientation
	// handling, so decode must not also apply it.
	autoOrientEdit := false
	if raw, ok := req.Edits.Find("rotate"); ok && isNull(raw) {
		autoOrientEdit = true
	}

	img, err := transform.Decode(req.OriginalImage, transform.DecodeOptions{AutoOrient: !autoOrientEdit})
	if err != nil {
		return "", err
	}

	st := &state{
		img:        img,
		edits:      req.Edits,
		origWidth:  img.Width(),
		origHeight: img.Height(),
	}

	// Dimension-dependent edits need a defined fit mode even when the
	// caller requests no resize.
	if !st.edits.Has("resize") {
		st.edits = append(append(EditList{}, st.edits...),
			Edit{Name: "resize", Value: json.RawMessage(`{"fit":"inside"}`)})
	}

	for _, e := range st.edits {
		if err := p.applyEdit(ctx, st, e); err != nil {
			return "", err
		}
	}

	format := img.Format()
	if req.OutputFormat != "" {
		f, ok := transform.ParseFormat(req.OutputFormat)
		if !ok {
			return "", apperr.Newf(400, "UnsupportedOutputFormat",
				"unsupported output format %q", req.OutputFormat)
		}
		format = f
	}

	data, err := img.Encode(format)
	if err != nil {
		return "", err
	}
	return encodeTransport(data)
}

// applyEdit dispatches one edit to its handler. Names without bespoke
// handling pass through to the transform library as operation(value).
func (p *Processor) applyEdit(ctx context.Context, st *state, e Edit) error {
	switch e.Name {
	case "overlayWith":
		return p.applyOverlay(ctx, st, e.Value)
	case "smartCrop":
		return p.applySmartCrop(ctx, st, e.Value)
	case "roundCrop":
		return applyRoundCrop(st, e.Value)
	case "contentModeration":
		return p.applyContentModeration(ctx, st, e.Value)
	case "watermark":
		return applyWatermark(st, e.Value)
	case "rotate":
		if isNull(e.Value) {
			st.img.AutoOrient()
			return nil
		}
		return st.img.Apply(e.Name, e.Value)
	default:
		return st.img.Apply(e.Name, e.Value)
	}
}

func encodeTransport(data []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(data)
	if len(encoded) > maxTransportBytes {
		return "", apperr.New(413, "TooLargeImageException",
			"the converted image is too large to return")
	}
	return encoded, nil
}
