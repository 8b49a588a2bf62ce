package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom/internal/domain"
)

type createInventoryRequest struct {
	LocationID   int64           `json:"locationId" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	QuantityType string          `json:"quantityType" validate:"required"`
	Attributes   map[string]any  `json:"attributes"`
}

type updateInventoryRequest struct {
	Quantity        decimal.Decimal `json:"quantity"`
	QuantityType    string          `json:"quantityType" validate:"required"`
	Attributes      map[string]any  `json:"attributes"`
	ExpectedVersion *int64          `json:"expectedVersion"`
}

type adjustRequest struct {
	Adjustment      decimal.Decimal `json:"adjustment"`
	Reason          string          `json:"reason"`
	ExpectedVersion *int64          `json:"expectedVersion"`
}

func (s *Server) handleItemLedger(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	ledger, err := s.inventory.ItemLedger(r.Context(), itemID)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, ledger)
}

func (s *Server) handleCreateInventory(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req createInventoryRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.inventory.CreateRecord(r.Context(), &domain.InventoryRecord{
		ItemID:       itemID,
		LocationID:   req.LocationID,
		Quantity:     req.Quantity,
		QuantityType: domain.QuantityType(req.QuantityType),
		Attributes:   req.Attributes,
	})
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory record id")
		return
	}

	var req updateInventoryRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.inventory.UpdateRecord(r.Context(), id, req.Quantity,
		domain.QuantityType(req.QuantityType), req.Attributes, req.ExpectedVersion)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, rec)
}

func (s *Server) handleAdjustInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory record id")
		return
	}

	var req adjustRequest
	if err := s.decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.inventory.Adjust(r.Context(), id, req.Adjustment, req.Reason, req.ExpectedVersion)
	if err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory record id")
		return
	}

	if err := s.inventory.DeleteRecord(r.Context(), id); err != nil {
		s.respondServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
