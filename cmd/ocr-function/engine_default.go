//go:build !noocr

package main

// Register the Tesseract engine as the default. Building with -tags noocr
// drops the registration and the cgo dependency on libtesseract; the function
// then serves the client-side extraction fallback.
import _ "github.com/chemcanvas/scholar-gateway/internal/extraction/tesseract"
