package web

import (
	"bytes"
	"io"
	"net/http"
)

// allowedImageTypes is the set of MIME types accepted for scan photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// handleScanLocation analyzes an uploaded photo of the location and returns
// suggested inventory lines. Nothing is written; the client decides what to
// keep.
func (s *Server) handleScanLocation(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		respondError(w, http.StatusNotImplemented, "scanning is disabled")
		return
	}

	locationID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	if _, err := s.catalog.GetLocation(r.Context(), locationID); err != nil {
		s.respondServiceErr(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer closeWithLog(file, "scan image", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read scan image failed", "location_id", locationID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		respondError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), bytes.NewReader(imageData), mimeType)
	if err != nil {
		s.logger.Error("scan failed", "location_id", locationID, "error", err)
		respondError(w, http.StatusBadGateway, "scan failed")
		return
	}

	s.logger.Info("location scanned", "location_id", locationID, "items", len(result.Items))
	respond(w, http.StatusOK, map[string]any{"suggestions": result.Items})
}
