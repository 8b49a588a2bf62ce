// Package vision turns a photo of a storage area into suggested inventory items.
package vision

import (
	"context"
	"io"
)

// ScanPrompt is the shared prompt used by all vision adapters.
const ScanPrompt = `List every distinct stock item you can see in this photo of a storage
area (shelf, cabinet, warehouse bay, stockroom). For each item provide:
name, approximate quantity, and any relevant notes (e.g. opened box,
damaged packaging, expiry visible). Respond in plain text, one item per
line, format: name | quantity | notes`

type Analyzer interface {
	Analyze(ctx context.Context, r io.Reader, mimeType string) (*ScanResult, error)
}

type ScanResult struct {
	Items       []SuggestedItem
	RawResponse string
}

// SuggestedItem is one candidate stock item detected in a scan. Quantity is
// free text straight from the model; the caller decides how to interpret it.
type SuggestedItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Notes    string `json:"notes"`
}
