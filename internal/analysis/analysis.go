// Package analysis defines the face-detection and content-moderation
// collaborators the edit pipeline consults, plus a vision-model-backed
// implementation of both.
//
// The pipeline only depends on the two interfaces; results are consumed
// within a single request and never persisted.
package analysis

import "context"

// BoundingBox locates a detected region. Each field is a fraction in
// [0, 1] of the image dimensions, relative to the top-left origin. Values
// straight from a detector may be degenerate (negative, or overflowing the
// unit square); consumers clamp before use.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Face is a single detected face.
type Face struct {
	BoundingBox BoundingBox `json:"boundingBox"`
	Confidence  float64     `json:"confidence"`
}

// Label is a single moderation finding. Confidence is a percentage in
// [0, 100].
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// FaceDetector finds faces in raw image bytes. An empty slice is a valid
// result; errors are reserved for service failures.
type FaceDetector interface {
	DetectFaces(ctx context.Context, img []byte) ([]Face, error)
}

// ModerationDetector reports content labels at or above minConfidence
// (a percentage). An empty slice means the image is clean.
type ModerationDetector interface {
	DetectModerationLabels(ctx context.Context, img []byte, minConfidence float64) ([]Label, error)
}
