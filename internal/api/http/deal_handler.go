package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

const dateLayout = "2006-01-02"

// DealHandler exposes the deal aggregate: booking commands and the
// read-only feeds the document/reporting collaborators consume.
type DealHandler struct {
	deals service.DealService
}

func NewDealHandler(deals service.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

type amountsRequest struct {
	RentCents     int64 `json:"rent_cents"`
	DeliveryCents int64 `json:"delivery_cents"`
	AssemblyCents int64 `json:"assembly_cents"`
	DepositCents  int64 `json:"deposit_cents"`
	DiscountCents int64 `json:"discount_cents"`
}

func (a amountsRequest) toDomain() domain.Amounts {
	return domain.Amounts{
		RentCents:     a.RentCents,
		DeliveryCents: a.DeliveryCents,
		AssemblyCents: a.AssemblyCents,
		DepositCents:  a.DepositCents,
		DiscountCents: a.DiscountCents,
	}
}

type createDealRequest struct {
	ClientID        int64                        `json:"client_id"`
	Type            string                       `json:"type"`
	AssetID         int64                        `json:"asset_id"`
	StartDate       string                       `json:"start_date"`
	EndDate         string                       `json:"end_date"`
	PlannedMonths   int32                        `json:"planned_months"`
	Amounts         amountsRequest               `json:"amounts"`
	Lines           []service.AccessoryLineInput `json:"lines"`
	AddressDelivery string                       `json:"address_delivery"`
	AddressPickup   string                       `json:"address_pickup"`
	Source          string                       `json:"source"`
	Comment         string                       `json:"comment"`
}

func (h *DealHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req createDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	rng, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
		return
	}

	dealType := domain.DealType(req.Type)
	switch dealType {
	case domain.DealTypeRent, domain.DealTypeRentToPurchase, domain.DealTypeSale:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown deal type", Code: "BAD_REQUEST"})
		return
	}

	params := service.CreateDealParams{
		ClientID:        req.ClientID,
		Type:            dealType,
		AssetID:         req.AssetID,
		Range:           rng,
		PlannedMonths:   req.PlannedMonths,
		Amounts:         req.Amounts.toDomain(),
		Lines:           req.Lines,
		AddressDelivery: req.AddressDelivery,
		AddressPickup:   req.AddressPickup,
		Source:          req.Source,
		Comment:         req.Comment,
	}
	if p := PrincipalFrom(r.Context()); p != nil {
		params.CreatedByID = &p.UserID
	}

	bundle, err := h.deals.CreateDeal(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bundle)
}

func (h *DealHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.deals.Activate)
}

func (h *DealHandler) ScheduleDelivery(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.deals.ScheduleDelivery)
}

func (h *DealHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.deals.MarkDelivered)
}

func (h *DealHandler) ScheduleReturn(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.deals.ScheduleReturn)
}

func (h *DealHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.deals.Cancel)
}

func (h *DealHandler) command(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, dealID int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid deal id"})
		return
	}
	if err := op(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	bundle, err := h.deals.GetDealBundle(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (h *DealHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid deal id"})
		return
	}
	bundle, err := h.deals.GetDealBundle(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (h *DealHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "page_size", 20)

	deals, total, err := h.deals.ListDeals(r.Context(), status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deals": deals,
		"total": total,
	})
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func queryInt32(r *http.Request, name string, def int32) int32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return def
	}
	return int32(v)
}

func parseRange(start, end string) (domain.DateRange, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return domain.DateRange{}, domain.ErrInvalidRange
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return domain.DateRange{}, domain.ErrInvalidRange
	}
	return domain.NewDateRange(s, e)
}
