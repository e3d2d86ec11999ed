package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	svcbilling "github.com/vitalsupply/storefront/svc/billing"
	"github.com/vitalsupply/storefront/svc/catalog"
	"github.com/vitalsupply/storefront/svc/subscription"
)

// ErrUnauthenticated is returned by a UserResolver when no user identity is
// present on the request.
var ErrUnauthenticated = errors.New("no authenticated user on request")

type checkoutResponse struct {
	SessionRef string `json:"session_ref"`
	URL        string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondCheckoutError maps checkout failures onto HTTP statuses. User
// mistakes (unknown or inactive plan, empty cart) are 4xx; processor
// failures are 502 so callers can tell our fault from the processor's.
func (s *Service) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrPlanNotFound):
		respondError(w, http.StatusNotFound, "plan not found")
	case errors.Is(err, svcbilling.ErrPlanInactive):
		respondError(w, http.StatusConflict, "plan is not available for purchase")
	case errors.Is(err, svcbilling.ErrUserNotFound):
		respondError(w, http.StatusUnauthorized, "unknown user")
	case errors.Is(err, svcbilling.ErrNothingToCheckout):
		respondError(w, http.StatusBadRequest, "no items to check out")
	case errors.Is(err, svcbilling.ErrExternalService),
		errors.Is(err, svcbilling.ErrProvisioningFailed),
		errors.Is(err, svcbilling.ErrCheckoutFailed):
		s.log.ErrorContext(r.Context(), "checkout failed upstream", "error", err)
		respondError(w, http.StatusBadGateway, "payment provider unavailable")
	default:
		s.log.ErrorContext(r.Context(), "checkout failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Service) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		respondError(w, http.StatusNotFound, "subscription not found")
	case errors.Is(err, svcbilling.ErrExternalService),
		errors.Is(err, svcbilling.ErrCancellationFailed):
		s.log.ErrorContext(r.Context(), "billing request failed upstream", "error", err)
		respondError(w, http.StatusBadGateway, "payment provider unavailable")
	default:
		s.log.ErrorContext(r.Context(), "billing request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
