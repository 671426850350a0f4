package extraction

// TextBlock is a single recognized text region. BBox is a polygon of
// [x, y] points in pixel coordinates; nil when the engine reports no
// position for the text.
type TextBlock struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	BBox       [][]float64 `json:"bbox"`
}

// Table describes a detected table region with its HTML rendering.
type Table struct {
	Type  string     `json:"type"`
	BBox  []float64  `json:"bbox"`
	HTML  string     `json:"html"`
	Cells [][]string `json:"cells"`
}

// Figure describes a detected figure region.
type Figure struct {
	Type    string    `json:"type"`
	BBox    []float64 `json:"bbox"`
	Caption string    `json:"caption"`
}

// Formula describes a detected formula region with its source notation.
type Formula struct {
	Type  string    `json:"type"`
	BBox  []float64 `json:"bbox"`
	Latex string    `json:"latex"`
}

// Result is the full extraction output for one document image. It is built
// once per invocation and never mutated afterwards.
type Result struct {
	Success    bool        `json:"success"`
	TextBlocks []TextBlock `json:"text_blocks"`
	Tables     []Table     `json:"tables"`
	Figures    []Figure    `json:"figures"`
	Formulas   []Formula   `json:"formulas"`
	RawText    string      `json:"raw_text"`
}

// FallbackResult is returned with a 200 status when no OCR engine is
// available. This is a degraded-mode contract, not an error: the client is
// expected to run its own extraction.
type FallbackResult struct {
	Success      bool        `json:"success"`
	Fallback     bool        `json:"fallback"`
	Message      string      `json:"message"`
	TextBlocks   []TextBlock `json:"text_blocks"`
	Tables       []Table     `json:"tables"`
	Figures      []Figure    `json:"figures"`
	Formulas     []Formula   `json:"formulas"`
	RawText      string      `json:"raw_text"`
	UseClientOCR bool        `json:"use_client_ocr"`
}

// NewFallbackResult builds the degraded-mode payload with empty detection
// lists and the client-side extraction hint set.
func NewFallbackResult() *FallbackResult {
	return &FallbackResult{
		Success:      true,
		Fallback:     true,
		Message:      "OCR engine not available on server. Using client-side extraction.",
		TextBlocks:   []TextBlock{},
		Tables:       []Table{},
		Figures:      []Figure{},
		Formulas:     []Formula{},
		UseClientOCR: true,
	}
}
