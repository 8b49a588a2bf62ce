package web

import (
	"net/http"

	"github.com/stockroomhq/stockroom/internal/domain"
)

type locationRequest struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Description string         `json:"description"`
	Address     string         `json:"address"`
	ParentID    *int64         `json:"parentId"`
	Attributes  map[string]any `json:"attributes"`
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.catalog.ListLocations(r.Context())
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, locations)
}

func (s *Server) handleLocationTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.catalog.LocationTree(r.Context())
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, tree)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	loc, err := s.catalog.GetLocation(r.Context(), id)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, loc)
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc, err := s.catalog.CreateLocation(r.Context(), &domain.Location{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		ParentID:    req.ParentID,
		Attributes:  req.Attributes,
	})
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, loc)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	var req locationRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc, err := s.catalog.UpdateLocation(r.Context(), &domain.Location{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		ParentID:    req.ParentID,
		Attributes:  req.Attributes,
	})
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, loc)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid location id")
		return
	}

	reassignTo, err := s.decodeDeleteBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.catalog.DeleteLocation(r.Context(), id, reassignTo); err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
