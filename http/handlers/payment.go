package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"eduplatform/http/response"
	"eduplatform/logger"
	"eduplatform/services"
)

// PaymentHandler exposes order creation, webhook intake and the legacy
// client-side verification endpoint.
type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrder handles POST /api/payment/order.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req services.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.payments.CreateOrder(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.SendJSON(w, http.StatusOK, resp)
}

// Webhook handles POST /api/payment/webhook. The raw body is needed
// for signature verification, so it is read before any decoding.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Razorpay-Signature")

	if err := h.payments.HandleWebhook(r.Context(), body, signature); err != nil {
		logger.Error("Webhook error: %v", err)
		response.FromError(w, err)
		return
	}

	response.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Verify handles POST /api/payment/verify, the legacy client-side
// confirmation path. It never mutates state.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		response.Error(w, http.StatusBadRequest, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
		return
	}

	if !h.payments.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		response.Error(w, http.StatusBadRequest, "Signature verification failed")
		return
	}

	response.Success(w, http.StatusOK, "Payment signature verified", map[string]string{
		"order_id": req.OrderID,
	})
}
