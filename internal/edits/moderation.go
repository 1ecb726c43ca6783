package edits

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pixeldrift/imagehandler/internal/analysis"
	"github.com/pixeldrift/imagehandler/internal/apperr"
)

// The transform library's valid blur sigma range. Values outside it
// silently suppress the moderation blur.
const (
	minBlurSigma = 0.3
	maxBlurSigma = 1000
)

const (
	defaultModerationBlur       = 50
	defaultModerationConfidence = 75
)

type contentModerationParams struct {
	Blur             json.RawMessage `json:"blur"`
	MinConfidence    json.RawMessage `json:"minConfidence"`
	ModerationLabels []string        `json:"moderationLabels"`
}

// applyContentModeration queries the moderation collaborator and blurs
// the working image when the response matches the requested labels (or is
// non-empty, when no label filter is given).
func (p *Processor) applyContentModeration(ctx context.Context, st *state, value json.RawMessage) error {
	var params contentModerationParams
	if !isNull(value) {
		if err := json.Unmarshal(value, &params); err != nil {
			return apperr.Newf(400, "InvalidEditValue", "invalid contentModeration parameters: %v", err)
		}
	}

	if p.moderation == nil {
		return apperr.New(500, "AnalysisError", "no moderation detector configured")
	}

	blur, blurValid := numberOrDefault(params.Blur, defaultModerationBlur)
	blurValid = blurValid && blur >= minBlurSigma && blur <= maxBlurSigma

	minConfidence, ok := numberOrDefault(params.MinConfidence, defaultModerationConfidence)
	if !ok {
		minConfidence = defaultModerationConfidence
	}

	rendered, err := st.img.Render()
	if err != nil {
		return err
	}
	labels, err := p.moderation.DetectModerationLabels(ctx, rendered, minConfidence)
	if err != nil {
		return apperr.Wrap(fmt.Errorf("detecting moderation labels: %w", err), "AnalysisError")
	}

	if !shouldBlur(labels, params.ModerationLabels) || !blurValid {
		return nil
	}
	st.img.Blur(blur)
	return nil
}

// shouldBlur decides whether the returned labels trigger the gate. With a
// filter, any intersection triggers; without one, any label at all does.
func shouldBlur(found []analysis.Label, wanted []string) bool {
	if len(wanted) == 0 {
		return len(found) > 0
	}
	filter := make(map[string]struct{}, len(wanted))
	for _, name := range wanted {
		filter[strings.ToLower(name)] = struct{}{}
	}
	for _, l := range found {
		if _, ok := filter[strings.ToLower(l.Name)]; ok {
			return true
		}
	}
	return false
}

// numberOrDefault parses a raw JSON number (or the string form of one).
// Absent and null fall back to the default; malformed values report
// invalid so the caller can apply the documented fallback.
func numberOrDefault(raw json.RawMessage, def float64) (float64, bool) {
	if isNull(raw) {
		return def, true
	}
	s := rawScalarString(raw)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
