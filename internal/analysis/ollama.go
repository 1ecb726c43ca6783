package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/pixeldrift/imagehandler/internal/apperr"
)

const defaultVisionTimeout = 120 * time.Second

const facePrompt = `Detect every human face in this image. Respond with only a JSON array,
one object per face, ordered by prominence:
[{"left":0.0,"top":0.0,"width":0.0,"height":0.0,"confidence":0.0}]
All box fields are fractions of the image dimensions measured from the
top-left corner. confidence is between 0 and 1. Respond with [] if there
are no faces. No prose, no code fences.`

const moderationPrompt = `Review this image for unsafe content (explicit nudity, suggestive
content, violence, gore, drugs, hate symbols, weapons). Respond with only
a JSON array, one object per finding:
[{"name":"Explicit Nudity","confidence":0.0}]
confidence is a percentage between 0 and 100. Respond with [] if the
image is clean. No prose, no code fences.`

// OllamaDetector implements FaceDetector and ModerationDetector by asking
// a vision model to describe the image and parsing its JSON reply.
type OllamaDetector struct {
	client *api.Client
	model  string
}

// NewOllamaDetector creates a detector talking to the Ollama server at
// rawURL, using the given vision model.
func NewOllamaDetector(rawURL, model string) (*OllamaDetector, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &OllamaDetector{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// DetectFaces implements FaceDetector.
func (d *OllamaDetector) DetectFaces(ctx context.Context, img []byte) ([]Face, error) {
	raw, err := d.chat(ctx, facePrompt, img)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("face detection failed: %w", err), "AnalysisError")
	}

	var parsed []struct {
		Left       float64 `json:"left"`
		Top        float64 `json:"top"`
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(sanitizeModelJSON(raw)), &parsed); err != nil {
		// A reply we cannot parse counts as "no faces found" rather than a
		// service failure; the pipeline falls back to a full-frame box.
		return nil, nil
	}

	faces := make([]Face, 0, len(parsed))
	for _, f := range parsed {
		faces = append(faces, Face{
			BoundingBox: BoundingBox{Left: f.Left, Top: f.Top, Width: f.Width, Height: f.Height},
			Confidence:  f.Confidence,
		})
	}
	return faces, nil
}

// DetectModerationLabels implements ModerationDetector.
func (d *OllamaDetector) DetectModerationLabels(ctx context.Context, img []byte, minConfidence float64) ([]Label, error) {
	raw, err := d.chat(ctx, moderationPrompt, img)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("moderation detection failed: %w", err), "AnalysisError")
	}

	var parsed []Label
	if err := json.Unmarshal([]byte(sanitizeModelJSON(raw)), &parsed); err != nil {
		return nil, nil
	}

	labels := parsed[:0]
	for _, l := range parsed {
		if l.Name != "" && l.Confidence >= minConfidence {
			labels = append(labels, l)
		}
	}
	return labels, nil
}

func (d *OllamaDetector) chat(ctx context.Context, prompt string, img []byte) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultVisionTimeout)
		defer cancel()
	}

	stream := false
	req := &api.ChatRequest{
		Model: d.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(img)},
			},
		},
		Stream: &stream,
	}

	var content string
	err := d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	return content, nil
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON strips code fences, comments and trailing commas from
// a model reply and keeps only the outermost JSON array.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
