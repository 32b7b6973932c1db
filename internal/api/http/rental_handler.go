package http

import (
	"encoding/json"
	"net/http"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/service"
)

// RentalHandler exposes the rental lifecycle operations and the read-only
// availability feed for calendar collaborators.
type RentalHandler struct {
	engine service.RentalEngineService
	store  repository.Store
}

func NewRentalHandler(engine service.RentalEngineService, store repository.Store) *RentalHandler {
	return &RentalHandler{engine: engine, store: store}
}

type extendRequest struct {
	NewEndDate string         `json:"new_end_date"`
	Amounts    amountsRequest `json:"amounts"`
	Comment    string         `json:"comment"`
}

func (h *RentalHandler) Extend(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	newEnd, err := time.Parse(dateLayout, req.NewEndDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid new_end_date", Code: "BAD_REQUEST"})
		return
	}

	rental, err := h.engine.Extend(r.Context(), id, newEnd, req.Amounts.toDomain(), req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) CloseByReturn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	rental, err := h.engine.CloseByReturn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

type buyoutRequest struct {
	PurchaseCents *int64 `json:"purchase_cents"`
}

func (h *RentalHandler) CloseByBuyout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	var req buyoutRequest
	if r.Body != nil {
		// Body is optional: buying out at the agreed price needs no payload.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	rental, err := h.engine.CloseByBuyout(r.Context(), id, req.PurchaseCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

// AssetConflicts is the calendar feed: blocking rentals of an asset within
// a window. Read-only.
func (h *RentalHandler) AssetConflicts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid asset id"})
		return
	}
	rng, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from/to query parameters are required (YYYY-MM-DD)", Code: "BAD_REQUEST"})
		return
	}

	conflicts, err := h.engine.FindConflicts(r.Context(), id, rng)
	if err != nil {
		writeError(w, err)
		return
	}

	type conflictView struct {
		RentalID   int64             `json:"rental_id"`
		DealID     int64             `json:"deal_id"`
		DealStatus domain.DealStatus `json:"deal_status"`
		ClientName string            `json:"client_name"`
		StartDate  string            `json:"start_date"`
		EndDate    string            `json:"end_date"`
	}
	views := make([]conflictView, 0, len(conflicts))
	for _, cf := range conflicts {
		end := cf.Rental.EndDate
		if cf.Rental.ActualEndDate != nil {
			end = *cf.Rental.ActualEndDate
		}
		views = append(views, conflictView{
			RentalID:   cf.Rental.ID,
			DealID:     cf.DealID,
			DealStatus: cf.DealStatus,
			ClientName: cf.ClientName,
			StartDate:  cf.Rental.StartDate.Format(dateLayout),
			EndDate:    end.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": views})
}

// AccessoryStock reports on-hand/reserved/available for one accessory.
func (h *RentalHandler) AccessoryStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid accessory id"})
		return
	}
	item, err := h.store.Inventory().GetItemByAccessory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessory_id": item.AccessoryID,
		"location":     item.Location,
		"qty_on_hand":  item.QtyOnHand,
		"qty_reserved": item.QtyReserved,
		"available":    item.Available(),
	})
}
