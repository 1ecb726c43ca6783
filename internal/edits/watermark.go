package edits

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/pixeldrift/imagehandler/internal/apperr"
)

// watermarkTemplate is a parameterized watermark banner. The one
// substitution point is the name rendered into the text line.
type watermarkTemplate struct {
	width      int
	height     int
	fontSize   float64
	textFormat string
	anchor     image.Point
	background color.NRGBA
	foreground color.NRGBA
}

var (
	// watermarkBanner is the full-width variant, applied only when the
	// reference width exceeds its natural width.
	watermarkBanner = watermarkTemplate{
		width:      340,
		height:     60,
		fontSize:   22,
		textFormat: "© %s",
		anchor:     image.Pt(16, 16),
		background: color.NRGBA{0, 0, 0, 140},
		foreground: color.NRGBA{255, 255, 255, 255},
	}

	// watermarkCompact fits small images.
	watermarkCompact = watermarkTemplate{
		width:      150,
		height:     50,
		fontSize:   14,
		textFormat: "© %s",
		anchor:     image.Pt(8, 8),
		background: color.NRGBA{0, 0, 0, 140},
		foreground: color.NRGBA{255, 255, 255, 255},
	}
)

type watermarkParams struct {
	Name  string `json:"name"`
	Style string `json:"style"`
}

// applyWatermark renders the style-selected watermark template with the
// given name and composites it at the template's anchor. Images narrower
// than the variant's natural width are left unmarked; a watermark that
// would not be legible is silently skipped.
func applyWatermark(st *state, value json.RawMessage) error {
	var params watermarkParams
	if !isNull(value) {
		if err := json.Unmarshal(value, &params); err != nil {
			return apperr.Newf(400, "InvalidEditValue", "invalid watermark parameters: %v", err)
		}
	}

	tpl := watermarkBanner
	if params.Style == "compact" {
		tpl = watermarkCompact
	}

	refW, _ := st.referenceSize()
	if refW <= tpl.width {
		return nil
	}

	banner, err := renderWatermark(tpl, params.Name)
	if err != nil {
		return err
	}
	st.img.Overlay(banner, tpl.anchor, 1.0)
	return nil
}

var (
	watermarkFontOnce sync.Once
	watermarkFont     *truetype.Font
	watermarkFontErr  error
)

// renderWatermark rasterizes a template into a translucent banner image.
func renderWatermark(tpl watermarkTemplate, name string) (*image.NRGBA, error) {
	watermarkFontOnce.Do(func() {
		watermarkFont, watermarkFontErr = freetype.ParseFont(goregular.TTF)
	})
	if watermarkFontErr != nil {
		return nil, fmt.Errorf("parsing watermark font: %w", watermarkFontErr)
	}

	banner := image.NewNRGBA(image.Rect(0, 0, tpl.width, tpl.height))
	draw.Draw(banner, banner.Bounds(), image.NewUniform(tpl.background), image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(watermarkFont)
	c.SetFontSize(tpl.fontSize)
	c.SetClip(banner.Bounds())
	c.SetDst(banner)
	c.SetSrc(image.NewUniform(tpl.foreground))

	// Baseline roughly centered vertically within the banner.
	ascent := int(c.PointToFixed(tpl.fontSize) >> 6)
	pt := freetype.Pt(12, (tpl.height+ascent)/2-2)
	if _, err := c.DrawString(fmt.Sprintf(tpl.textFormat, name), pt); err != nil {
		return nil, fmt.Errorf("rendering watermark text: %w", err)
	}
	return banner, nil
}
