package web

import (
	"net/http"

	"github.com/stockroomhq/stockroom/internal/domain"
)

type itemRequest struct {
	Name        string                 `json:"name" validate:"required,max=200"`
	SKU         string                 `json:"sku"`
	Description string                 `json:"description"`
	CategoryID  *int64                 `json:"categoryId"`
	Attributes  []domain.ItemAttribute `json:"otherAttributes"`
	Images      []string               `json:"images"`
	Files       []string               `json:"files"`
}

type searchRequest struct {
	Search     string `json:"search"`
	CategoryID *int64 `json:"categoryId"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.items.Search(r.Context(), req.Search, req.CategoryID, req.Page, req.PageSize)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := s.items.Get(r.Context(), id)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.items.Create(r.Context(), &domain.Item{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Attributes:  req.Attributes,
		Images:      req.Images,
		Files:       req.Files,
	})
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.items.Update(r.Context(), &domain.Item{
		ID:          id,
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Attributes:  req.Attributes,
		Images:      req.Images,
		Files:       req.Files,
	})
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.items.Delete(r.Context(), id); err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
