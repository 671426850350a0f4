//go:build !noocr

// Package tesseract provides a gosseract-backed text detection engine.
// Importing the package registers it as the default extraction engine.
// Builds without libtesseract available can exclude it with -tags noocr,
// which leaves no default engine and triggers the fallback response.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/chemcanvas/scholar-gateway/internal/extraction"
)

func init() {
	extraction.SetDefaultEngine(NewEngine())
}

// Engine implements extraction.Engine using the gosseract client.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed engine.
func NewEngine() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// DetectText runs word-level recognition over the image file and groups the
// word boxes into per-line text blocks with bounding polygons.
func (e *Engine) DetectText(ctx context.Context, imagePath string, languages []string) ([]extraction.TextBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if err := c.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	if len(boxes) == 0 {
		// Some images yield text without line geometry.
		text, err := c.Text()
		if err != nil {
			return nil, fmt.Errorf("recognize text: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return []extraction.TextBlock{}, nil
		}
		return []extraction.TextBlock{{Text: text, Confidence: 1.0}}, nil
	}

	blocks := make([]extraction.TextBlock, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		minX, minY := float64(b.Box.Min.X), float64(b.Box.Min.Y)
		maxX, maxY := float64(b.Box.Max.X), float64(b.Box.Max.Y)
		blocks = append(blocks, extraction.TextBlock{
			Text:       text,
			Confidence: b.Confidence / 100.0,
			BBox: [][]float64{
				{minX, minY},
				{maxX, minY},
				{maxX, maxY},
				{minX, maxY},
			},
		})
	}
	return blocks, nil
}
