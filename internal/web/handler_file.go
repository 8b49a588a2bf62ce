package web

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockroomhq/stockroom/internal/service"
)

const maxUploadSize = 50 * 1024 * 1024 // 50 MB

// allowedFolders scopes storage keys so uploads cannot land outside the
// folders the API serves.
var allowedFolders = map[string]bool{
	"items":      true,
	"categories": true,
	"locations":  true,
}

// handleUploadFile stores a multipart upload and returns its storage key.
// When itemId is given the key is also attached to that item; if attaching
// fails the blob is deleted again so no orphan is left behind.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if !allowedFolders[folder] {
		respondError(w, http.StatusBadRequest, "unknown folder")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	mimeType := http.DetectContentType(data)

	key, err := s.files.Save(r.Context(), folder, header.Filename, mimeType, bytes.NewReader(data))
	if err != nil {
		s.logger.Error("save upload failed", "folder", folder, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	if itemID := r.URL.Query().Get("itemId"); itemID != "" {
		if err := s.attachToItem(r, itemID, key); err != nil {
			// Two-phase: the item update failed, so remove the blob again.
			if derr := s.files.Delete(r.Context(), key); derr != nil {
				s.logger.Error("delete orphan blob failed", "key", key, "error", derr)
			}
			s.respondServiceErr(w, r, err)
			return
		}
	}

	s.logger.Info("file uploaded",
		"folder", folder, "key", key, "size", len(data), "user_id", requestUserID(r.Context()))
	respond(w, http.StatusCreated, map[string]string{
		"folder": folder,
		"name":   path.Base(key),
	})
}

// attachToItem appends the storage key to the item's image or file list,
// depending on the kind query parameter (default "file").
func (s *Server) attachToItem(r *http.Request, rawItemID, key string) error {
	itemID, err := strconv.ParseInt(rawItemID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q: %w", rawItemID, service.ErrValidation)
	}

	item, err := s.items.Get(r.Context(), itemID)
	if err != nil {
		return err
	}

	if r.URL.Query().Get("kind") == "image" {
		item.Images = append(item.Images, key)
	} else {
		item.Files = append(item.Files, key)
	}
	_, err = s.items.Update(r.Context(), item)
	return err
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	name := chi.URLParam(r, "name")
	if !allowedFolders[folder] || name == "" {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}

	reader, mimeType, err := s.files.Get(r.Context(), path.Join(folder, name))
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	defer closeWithLog(reader, "file reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write file failed", "folder", folder, "name", name, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
