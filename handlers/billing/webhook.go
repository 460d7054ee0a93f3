package billing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/db"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"
	mailsmodels "github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils/mails-models"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Webhook payloads are parsed into typed structs per event kind before any
// handler runs; nothing downstream touches raw maps.

type checkoutSessionPayload struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent string            `json:"payment_intent"`
	Invoice       string            `json:"invoice"`
	Subscription  string            `json:"subscription"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID            string `json:"id"`
	AmountPaid    int64  `json:"amount_paid"`
	AttemptCount  int64  `json:"attempt_count"`
	PaymentIntent string `json:"payment_intent"`
	Subscription  string `json:"subscription"`
	Parent        *struct {
		SubscriptionDetails *struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// subscriptionID resolves the invoice's subscription across API versions:
// newer payloads nest it under parent.subscription_details.
func (p *invoicePayload) subscriptionID() string {
	if p.Parent != nil && p.Parent.SubscriptionDetails != nil && p.Parent.SubscriptionDetails.Subscription != "" {
		return p.Parent.SubscriptionDetails.Subscription
	}
	return p.Subscription
}

type subscriptionPayload struct {
	ID string `json:"id"`
}

// StripeWebhook verifies and dispatches payment provider events.
// Verification failures return an error status so Stripe retries the
// delivery; handler-internal failures are logged and acknowledged, since
// redelivery cannot fix a local bug and would only retry-storm.
// @Summary Stripe webhook endpoint
// @Description Receives signed Stripe events and reconciles local subscription state.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool "received: true"
// @Failure 400 {object} map[string]string "error: signature verification failed"
// @Router /subscriptions/webhook [post]
func (h *Handler) StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not read request body"})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, h.cfg.StripeWebhookSecret)
	if err != nil {
		utils.LogError(err, "Stripe signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stripe signature verification failed"})
		return
	}

	var handlerErr error
	switch event.Type {
	case "checkout.session.completed":
		handlerErr = h.handleCheckoutSessionCompleted(event.Data.Raw)
	case "invoice.paid":
		handlerErr = h.handleInvoicePaid(event.Data.Raw)
	case "invoice.payment_failed":
		handlerErr = h.handleInvoiceFailed(event.Data.Raw)
	case "customer.subscription.deleted":
		handlerErr = h.handleSubscriptionCancelled(event.Data.Raw)
	default:
		c.JSON(http.StatusOK, gin.H{"received": true, "message": "Event ignored"})
		return
	}

	if handlerErr != nil {
		utils.LogError(handlerErr, "Webhook handler error for event "+string(event.Type))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) handleCheckoutSessionCompleted(raw json.RawMessage) error {
	var sess checkoutSessionPayload
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("parse checkout session: %w", err)
	}

	if sess.PaymentStatus != "paid" {
		utils.LogInfo("Checkout session " + sess.ID + " not paid yet, skipping")
		return nil
	}

	_, err := h.applyCheckoutCompleted(sess)
	return err
}

// applyCheckoutCompleted is the single reconciliation path for a settled
// checkout, shared by the webhook and the public payment verification
// endpoint. Idempotent on the transaction id: a duplicate delivery returns
// the existing payment without touching anything.
func (h *Handler) applyCheckoutCompleted(sess checkoutSessionPayload) (*models.Payment, error) {
	userID := sess.Metadata["user_id"]
	planID := sess.Metadata["plan_id"]
	if userID == "" || planID == "" {
		return nil, fmt.Errorf("checkout session %s missing user_id/plan_id metadata", sess.ID)
	}

	transactionID := sess.PaymentIntent
	if transactionID == "" {
		transactionID = sess.ID
	}

	var existing models.Payment
	if err := db.DB.First(&existing, "transaction_id = ?", transactionID).Error; err == nil {
		utils.LogInfo("Payment " + existing.ID + " already recorded, ignoring duplicate delivery")
		return &existing, nil
	}

	var plan models.Plan
	if err := db.DB.First(&plan, "id = ?", planID).Error; err != nil {
		return nil, fmt.Errorf("plan %s not found: %w", planID, err)
	}

	now := time.Now()
	expiresAt := plan.BillingCycle.NextExpiry(now)

	invoiceID := sess.Invoice
	if invoiceID == "" {
		invoiceID = models.GenerateInvoiceId()
	}

	payment := models.Payment{
		UserID:               userID,
		PlanID:               planID,
		Amount:               float64(sess.AmountTotal) / 100,
		TransactionId:        transactionID,
		InvoiceId:            invoiceID,
		StripeSubscriptionId: sess.Subscription,
		Status:               models.PaymentSucceeded,
		PaymentDate:          now,
	}
	if err := db.DB.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	var sub models.UserSubscription
	if err := db.DB.First(&sub, "user_id = ?", userID).Error; err == nil {
		err = db.DB.Model(&sub).Updates(map[string]interface{}{
			"plan_id":    planID,
			"starts_at":  now,
			"expires_at": expiresAt,
			"status":     models.SubscriptionActive,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("update user subscription: %w", err)
		}
	} else {
		sub = models.UserSubscription{
			UserID:    userID,
			PlanID:    planID,
			StartsAt:  now,
			ExpiresAt: expiresAt,
			Status:    models.SubscriptionActive,
		}
		if err := db.DB.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("create user subscription: %w", err)
		}
	}

	h.sendPaymentMail(userID, &payment)
	utils.LogSuccessWithUser(userID, "Checkout reconciled, subscription active until "+expiresAt.Format(time.RFC3339))
	return &payment, nil
}

func (h *Handler) handleInvoicePaid(raw json.RawMessage) error {
	var inv invoicePayload
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	subscriptionID := inv.subscriptionID()
	if subscriptionID == "" {
		utils.LogInfo("Invoice " + inv.ID + " has no subscription, skipping")
		return nil
	}

	transactionID := inv.PaymentIntent
	if transactionID == "" {
		transactionID = "pi_" + inv.ID
	}

	var existing models.Payment
	if err := db.DB.First(&existing, "transaction_id = ?", transactionID).Error; err == nil {
		utils.LogInfo("Renewal payment already recorded, ignoring duplicate delivery")
		return nil
	}

	var payment models.Payment
	if err := db.DB.Where("stripe_subscription_id = ?", subscriptionID).
		Order("created_at DESC").First(&payment).Error; err != nil {
		utils.LogInfo("No payment found for subscription " + subscriptionID + ", skipping invoice")
		return nil
	}

	var sub models.UserSubscription
	if err := db.DB.First(&sub, "user_id = ?", payment.UserID).Error; err != nil {
		utils.LogInfo("No user subscription for user " + payment.UserID + ", skipping invoice")
		return nil
	}

	var plan models.Plan
	if err := db.DB.First(&plan, "id = ?", sub.PlanID).Error; err != nil {
		return fmt.Errorf("plan %s not found: %w", sub.PlanID, err)
	}

	// extend from the previous expiry, not from now, so late webhook
	// deliveries keep coverage contiguous
	newExpiry := plan.BillingCycle.NextExpiry(sub.ExpiresAt)

	err := db.DB.Model(&sub).Updates(map[string]interface{}{
		"expires_at": newExpiry,
		"status":     models.SubscriptionActive,
	}).Error
	if err != nil {
		return fmt.Errorf("extend user subscription: %w", err)
	}

	renewal := models.Payment{
		UserID:               payment.UserID,
		PlanID:               sub.PlanID,
		Amount:               float64(inv.AmountPaid) / 100,
		TransactionId:        transactionID,
		InvoiceId:            inv.ID,
		StripeSubscriptionId: subscriptionID,
		Status:               models.PaymentSucceeded,
		PaymentDate:          time.Now(),
	}
	if err := db.DB.Create(&renewal).Error; err != nil {
		return fmt.Errorf("create renewal payment: %w", err)
	}

	h.sendPaymentMail(payment.UserID, &renewal)
	utils.LogSuccessWithUser(payment.UserID, "Subscription renewed until "+newExpiry.Format(time.RFC3339))
	return nil
}

func (h *Handler) handleInvoiceFailed(raw json.RawMessage) error {
	var inv invoicePayload
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	subscriptionID := inv.subscriptionID()
	if subscriptionID == "" {
		return nil
	}

	var payment models.Payment
	if err := db.DB.Where("stripe_subscription_id = ?", subscriptionID).
		Order("created_at DESC").First(&payment).Error; err != nil {
		return nil
	}

	var sub models.UserSubscription
	if err := db.DB.First(&sub, "user_id = ?", payment.UserID).Error; err != nil {
		return nil
	}

	newStatus := models.SubscriptionPaymentRetrying
	if inv.AttemptCount >= 3 {
		newStatus = models.SubscriptionPaymentFailed
		utils.LogErrorWithUser(payment.UserID, nil,
			fmt.Sprintf("Payment failed after %d attempts, marking subscription failed", inv.AttemptCount))
	} else {
		utils.LogInfo(fmt.Sprintf("Payment retry %d/3 for subscription %s", inv.AttemptCount, subscriptionID))
	}

	if err := db.DB.Model(&sub).Update("status", newStatus).Error; err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

func (h *Handler) handleSubscriptionCancelled(raw json.RawMessage) error {
	var remote subscriptionPayload
	if err := json.Unmarshal(raw, &remote); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	var payment models.Payment
	if err := db.DB.Where("stripe_subscription_id = ?", remote.ID).
		Order("created_at DESC").First(&payment).Error; err != nil {
		return nil
	}

	var sub models.UserSubscription
	if err := db.DB.First(&sub, "user_id = ?", payment.UserID).Error; err != nil {
		return nil
	}

	if err := db.DB.Model(&sub).Update("status", models.SubscriptionCancelled).Error; err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}

	utils.LogSuccessWithUser(payment.UserID, "Subscription cancelled via provider webhook")
	return nil
}

// sendPaymentMail sends the confirmation best-effort; mail problems never
// fail reconciliation.
func (h *Handler) sendPaymentMail(userID string, payment *models.Payment) {
	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.LogError(err, "User lookup failed for payment email")
		return
	}
	mailsmodels.PaymentConfirmation(user.Email, payment.Amount, payment.TransactionId, payment.InvoiceId)
}
