package billing

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/db"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	stripeSubscription "github.com/stripe/stripe-go/v82/subscription"
)

// GetCurrentSubscription returns the caller's active or cancelling plan.
// A subscription whose period already lapsed is flipped to expired on read
// and reported as absent.
// @Summary Current subscription
// @Description Return the authenticated user's active or pending-cancellation subscription.
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response "error: No active subscription found"
// @Router /subscriptions/current [get]
func (h *Handler) GetCurrentSubscription(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var sub models.UserSubscription
	err := db.DB.Where("user_id = ? AND status IN ?", userID,
		[]models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionCancelling}).
		First(&sub).Error
	if err != nil {
		utils.SendError(c, http.StatusNotFound, "No active or pending cancellation subscription found")
		return
	}

	now := time.Now()
	if sub.IsExpired(now) {
		utils.LogInfo("Subscription " + sub.ID + " expired, flipping status on read")
		if err := db.DB.Model(&sub).Update("status", models.SubscriptionExpired).Error; err != nil {
			utils.LogErrorWithUser(userID, err, "Failed to expire subscription in GetCurrentSubscription")
		}
		utils.SendError(c, http.StatusNotFound, "No active or pending cancellation subscription found")
		return
	}

	var plan models.Plan
	if err := db.DB.First(&plan, "id = ?", sub.PlanID).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Plan lookup failed in GetCurrentSubscription")
		utils.SendError(c, http.StatusInternalServerError, "Error fetching subscription plan")
		return
	}

	utils.SendSuccess(c, http.StatusOK, "Current subscription fetched successfully", gin.H{
		"plan":       plan,
		"starts_at":  sub.StartsAt,
		"expires_at": sub.ExpiresAt,
		"is_active":  sub.HasCoverage(),
		"auto_renew": sub.Status == models.SubscriptionActive,
	})
}

type cancelRequest struct {
	CancelImmediately bool `json:"cancel_immediately"`
}

// CancelSubscription turns off auto-renewal (default) or cancels right away.
// @Summary Cancel the current subscription
// @Description Turn off auto-renewal at period end, or revoke access immediately with cancel_immediately.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response "error: No active subscription record found to cancel"
// @Router /subscriptions/cancel [post]
func (h *Handler) CancelSubscription(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}

	var sub models.UserSubscription
	if err := db.DB.Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		First(&sub).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "No active subscription record found to cancel")
		return
	}

	var payment models.Payment
	if err := db.DB.Where("user_id = ? AND stripe_subscription_id <> ''", userID).
		Order("created_at DESC").First(&payment).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "No active Stripe subscription found for this user")
		return
	}

	var message string
	var newStatus models.SubscriptionStatus

	if req.CancelImmediately {
		_, err := stripeSubscription.Cancel(payment.StripeSubscriptionId, &stripe.SubscriptionCancelParams{
			Prorate: stripe.Bool(false),
		})
		if err != nil {
			utils.LogErrorWithUser(userID, err, "Stripe cancel failed in CancelSubscription")
			utils.SendError(c, http.StatusBadRequest, "Stripe operation failed: "+err.Error())
			return
		}
		newStatus = models.SubscriptionCancelled
		message = "Subscription cancelled immediately. Access revoked."
	} else {
		_, err := stripeSubscription.Update(payment.StripeSubscriptionId, &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		})
		if err != nil {
			utils.LogErrorWithUser(userID, err, "Stripe update failed in CancelSubscription")
			utils.SendError(c, http.StatusBadRequest, "Stripe operation failed: "+err.Error())
			return
		}
		newStatus = models.SubscriptionCancelling
		message = fmt.Sprintf("Auto-renewal turned off. Access remains valid until %s.",
			sub.ExpiresAt.Format("January 2, 2006"))
	}

	if err := db.DB.Model(&sub).Update("status", newStatus).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Status update failed in CancelSubscription")
		utils.SendError(c, http.StatusInternalServerError, "Error when updating the subscription status")
		return
	}

	utils.LogSuccessWithUser(userID, "Subscription cancellation applied in CancelSubscription")
	utils.SendSuccess(c, http.StatusOK, message, gin.H{
		"status":     newStatus,
		"expires_at": sub.ExpiresAt,
	})
}

// ReactivateSubscription turns auto-renewal back on. Only a subscription in
// the cancelling state can be reactivated; anything else needs a new
// checkout.
// @Summary Reactivate a cancelling subscription
// @Description Resume auto-renewal for a subscription pending cancellation.
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response "error: Subscription cannot be reactivated from this status"
// @Failure 404 {object} utils.Response "error: No subscription record found"
// @Router /subscriptions/reactivate [post]
func (h *Handler) ReactivateSubscription(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var sub models.UserSubscription
	if err := db.DB.First(&sub, "user_id = ?", userID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "No subscription record found for this user")
		return
	}

	if sub.Status == models.SubscriptionActive {
		utils.SendSuccess(c, http.StatusOK, "Subscription is already active", gin.H{
			"status": sub.Status,
		})
		return
	}

	if !sub.CanReactivate() {
		utils.SendError(c, http.StatusBadRequest,
			fmt.Sprintf("Subscription cannot be reactivated from %s status", sub.Status))
		return
	}

	var payment models.Payment
	if err := db.DB.Where("user_id = ? AND stripe_subscription_id <> ''", userID).
		Order("created_at DESC").First(&payment).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "No Stripe subscription ID found in payment history")
		return
	}

	_, err := stripeSubscription.Update(payment.StripeSubscriptionId, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	})
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Stripe update failed in ReactivateSubscription")
		utils.SendError(c, http.StatusBadRequest, "Stripe operation failed: "+err.Error())
		return
	}

	if err := db.DB.Model(&sub).Update("status", models.SubscriptionActive).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Status update failed in ReactivateSubscription")
		utils.SendError(c, http.StatusInternalServerError, "Error when updating the subscription status")
		return
	}

	utils.LogSuccessWithUser(userID, "Subscription reactivated in ReactivateSubscription")
	utils.SendSuccess(c, http.StatusOK, "Subscription reactivated successfully", gin.H{
		"status":     models.SubscriptionActive,
		"expires_at": sub.ExpiresAt,
	})
}
