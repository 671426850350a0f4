// Package extraction implements the document OCR function: it materializes an
// uploaded or fetched image to a transient file, runs text detection through a
// pluggable engine, and returns text blocks plus best-effort structure
// detections (tables, figures, formulas).
package extraction

import (
	"context"
	"strings"
)

// Engine performs base text/line detection on an image file.
type Engine interface {
	Name() string
	DetectText(ctx context.Context, imagePath string, languages []string) ([]TextBlock, error)
}

// StructureEngine performs the richer layout pass that identifies tables,
// figures, and formulas beyond plain text lines.
type StructureEngine interface {
	Name() string
	DetectStructure(ctx context.Context, imagePath string) ([]Table, []Figure, []Formula, error)
}

var (
	defaultEngine    Engine
	defaultStructure StructureEngine
)

// DefaultEngine returns the registered text-detection engine, or nil when no
// engine is compiled in. A nil engine triggers the fallback response.
func DefaultEngine() Engine { return defaultEngine }

// SetDefaultEngine registers the process-wide text-detection engine. Called
// from engine package init functions.
func SetDefaultEngine(e Engine) { defaultEngine = e }

// DefaultStructureEngine returns the registered structure-detection engine,
// or nil when structure detection is unavailable.
func DefaultStructureEngine() StructureEngine { return defaultStructure }

// SetDefaultStructureEngine registers the process-wide structure engine.
func SetDefaultStructureEngine(e StructureEngine) { defaultStructure = e }

// Extract runs text detection and, when a structure engine is present, the
// structure pass over the image at imagePath. A nil structure engine yields a
// result with empty table/figure/formula lists; a structure pass that fails
// returns its error.
func Extract(ctx context.Context, engine Engine, structure StructureEngine, imagePath string, languages []string) (*Result, error) {
	blocks, err := engine.DetectText(ctx, imagePath, languages)
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []TextBlock{}
	}

	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}

	result := &Result{
		Success:    true,
		TextBlocks: blocks,
		Tables:     []Table{},
		Figures:    []Figure{},
		Formulas:   []Formula{},
		RawText:    strings.Join(parts, " "),
	}

	if structure != nil {
		tables, figures, formulas, err := structure.DetectStructure(ctx, imagePath)
		if err != nil {
			return nil, err
		}
		if tables != nil {
			result.Tables = tables
		}
		if figures != nil {
			result.Figures = figures
		}
		if formulas != nil {
			result.Formulas = formulas
		}
	}

	return result, nil
}
