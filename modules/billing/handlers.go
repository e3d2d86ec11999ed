package billing

import (
	"errors"
	"io"
	"net/http"

	svcbilling "github.com/vitalsupply/storefront/svc/billing"
	"github.com/vitalsupply/storefront/svc/webhook"
)

// maxWebhookBody bounds the webhook payload read. Processor events are a few
// kilobytes; anything near the limit is not a legitimate delivery.
const maxWebhookBody = 1 << 20

// handleWebhook is the payment processor's delivery endpoint. The response
// status is the contract with the sender: 2xx acknowledges, 4xx rejects
// permanently, 5xx asks for redelivery.
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	err = s.events.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, svcbilling.ErrInvalidSignature):
		respondError(w, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, webhook.ErrMalformedEvent):
		respondError(w, http.StatusBadRequest, "malformed event")
	default:
		respondError(w, http.StatusInternalServerError, "event processing failed")
	}
}

type subscriptionCheckoutRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Service) handleSubscriptionCheckout(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolveUser(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req subscriptionCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlanID == "" {
		respondError(w, http.StatusBadRequest, "plan_id is required")
		return
	}

	session, err := s.checkout.CreateSubscriptionCheckout(r.Context(), userID, req.PlanID)
	if err != nil {
		s.respondCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, checkoutResponse{
		SessionRef: session.SessionRef,
		URL:        session.URL,
	})
}

type orderCheckoutRequest struct {
	Items []orderCheckoutItem `json:"items"`
}

type orderCheckoutItem struct {
	Name             string `json:"name"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Quantity         int64  `json:"quantity"`
}

func (s *Service) handleOrderCheckout(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolveUser(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req orderCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]svcbilling.PaymentItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, svcbilling.PaymentItem{
			Name:             item.Name,
			AmountMinorUnits: item.AmountMinorUnits,
			Quantity:         item.Quantity,
		})
	}

	session, err := s.checkout.CreateOrderCheckout(r.Context(), userID, items)
	if err != nil {
		s.respondCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, checkoutResponse{
		SessionRef: session.SessionRef,
		URL:        session.URL,
	})
}

type cancelRequest struct {
	SubscriptionRef string `json:"subscription_ref"`
}

func (s *Service) handleCancel(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolveUser(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SubscriptionRef == "" {
		respondError(w, http.StatusBadRequest, "subscription_ref is required")
		return
	}

	if err := s.cancellation.RequestCancellation(r.Context(), userID, req.SubscriptionRef); err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Service) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolveUser(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	subs, err := s.subs.FindByUserID(r.Context(), userID)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

func (s *Service) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolveUser(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orders, err := s.orders.FindByUserID(r.Context(), userID)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}
