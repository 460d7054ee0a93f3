package billing

import (
	"net/http"
	"strings"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	session "github.com/stripe/stripe-go/v82/checkout/session"
)

// VerifyPayment confirms a checkout session from the success redirect.
// Public on purpose: the redirect lands before the frontend has a token.
// Reconciliation is shared with the webhook handler, so whichever arrives
// first wins and the other is a no-op.
// @Summary Verify a checkout session
// @Description Retrieve the Stripe session and reconcile the payment if the webhook has not landed yet.
// @Tags subscriptions
// @Produce json
// @Param session_id query string true "Stripe Checkout session ID"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response "error: invalid session or payment not completed"
// @Router /subscriptions/verify-payment [get]
func (h *Handler) VerifyPayment(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		utils.SendError(c, http.StatusBadRequest, "Session ID is required")
		return
	}
	if len(sessionID) < 10 || !strings.HasPrefix(sessionID, "cs_") {
		utils.SendError(c, http.StatusBadRequest, "Invalid session ID format. Expected format: cs_xxxxx")
		return
	}

	s, err := session.Get(sessionID, nil)
	if err != nil {
		utils.LogError(err, "Stripe session retrieval failed in VerifyPayment")
		utils.SendError(c, http.StatusBadRequest, "Invalid session ID: "+err.Error())
		return
	}

	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		utils.SendError(c, http.StatusBadRequest,
			"Payment not completed. Current status: "+string(s.PaymentStatus))
		return
	}

	payload := checkoutSessionPayload{
		ID:            s.ID,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		payload.PaymentIntent = s.PaymentIntent.ID
	}
	if s.Invoice != nil {
		payload.Invoice = s.Invoice.ID
	}
	if s.Subscription != nil {
		payload.Subscription = s.Subscription.ID
	}

	payment, err := h.applyCheckoutCompleted(payload)
	if err != nil {
		utils.LogError(err, "Payment reconciliation failed in VerifyPayment")
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, "Payment verified successfully", payment)
}
