package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/service"
)

// NewRouter wires every endpoint under the shared middleware chain.
func NewRouter(deals service.DealService, engine service.RentalEngineService, store repository.Store, verifier security.TokenVerifier) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogging)
	r.Use(Authentication(verifier))

	dealHandler := NewDealHandler(deals)
	rentalHandler := NewRentalHandler(engine, store)

	// Deal commands
	r.HandleFunc("/deals", dealHandler.CreateDeal).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}/activate", dealHandler.Activate).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}/schedule-delivery", dealHandler.ScheduleDelivery).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}/delivered", dealHandler.MarkDelivered).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}/schedule-return", dealHandler.ScheduleReturn).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id:[0-9]+}/cancel", dealHandler.Cancel).Methods(http.MethodPost)

	// Rental lifecycle
	r.HandleFunc("/rentals/{id:[0-9]+}/extend", rentalHandler.Extend).Methods(http.MethodPost)
	r.HandleFunc("/rentals/{id:[0-9]+}/return", rentalHandler.CloseByReturn).Methods(http.MethodPost)
	r.HandleFunc("/rentals/{id:[0-9]+}/buyout", rentalHandler.CloseByBuyout).Methods(http.MethodPost)

	// Read-only collaborator feeds
	r.HandleFunc("/deals/{id:[0-9]+}", dealHandler.GetDeal).Methods(http.MethodGet)
	r.HandleFunc("/deals", dealHandler.ListDeals).Methods(http.MethodGet)
	r.HandleFunc("/assets/{id:[0-9]+}/conflicts", rentalHandler.AssetConflicts).Methods(http.MethodGet)
	r.HandleFunc("/accessories/{id:[0-9]+}/stock", rentalHandler.AccessoryStock).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
