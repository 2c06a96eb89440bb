package constants

import "fmt"

// Textual delimiters embedded in assembled document and corpus text.
// Downstream consumers (and the classification prompt) rely on these exact
// shapes, so treat them as part of the wire format.
const (
	pageMarkerFormat = "\n\n--- PAGE %d ---\n\n"
	fileMarkerFormat = "\n\n=== FILE: %s ===\n\n"

	// OCRBlockSeparator joins the text blocks one OCR call returns for a
	// single page image, in engine order.
	OCRBlockSeparator = "\n\n---\n\n"

	// OCRErrorPrefix starts the degraded text embedded for a page whose OCR
	// call failed. The page marker is still emitted.
	OCRErrorPrefix = "Error extracting text: "
)

// PageMarker returns the boundary marker for a 1-based page index.
func PageMarker(index int) string {
	return fmt.Sprintf(pageMarkerFormat, index)
}

// FileMarker returns the boundary marker carrying the source filename.
func FileMarker(filename string) string {
	return fmt.Sprintf(fileMarkerFormat, filename)
}
