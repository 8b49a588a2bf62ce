package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/stockroomhq/stockroom/internal/domain"
)

type categoryRequest struct {
	Name        string                   `json:"name" validate:"required,max=200"`
	Description string                   `json:"description"`
	ParentID    *int64                   `json:"parentId"`
	Attributes  []domain.AttributeSchema `json:"attributes"`
	Thumbnail   string                   `json:"thumbnail"`
}

type deleteRequest struct {
	ReassignToID *int64 `json:"reassignToId"`
}

// decodeDeleteBody reads the optional reassignment body of a DELETE request.
// An empty body means no reassignment target.
func (s *Server) decodeDeleteBody(r *http.Request) (*int64, error) {
	var req deleteRequest
	if err := s.decodeBody(r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return req.ReassignToID, nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, categories)
}

func (s *Server) handleCategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.catalog.CategoryTree(r.Context())
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, tree)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	cat, err := s.catalog.GetCategory(r.Context(), id)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, cat)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := s.catalog.CreateCategory(r.Context(), &domain.Category{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		Attributes:  req.Attributes,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req categoryRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := s.catalog.UpdateCategory(r.Context(), &domain.Category{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		Attributes:  req.Attributes,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	reassignTo, err := s.decodeDeleteBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.catalog.DeleteCategory(r.Context(), id, reassignTo); err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
