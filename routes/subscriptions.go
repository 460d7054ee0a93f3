package routes

import (
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/handlers/billing"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/middleware"

	"github.com/gin-gonic/gin"
)

func SubscriptionsRoutes(r *gin.Engine, h *billing.Handler) {
	subscriptionRoutes := r.Group("/subscriptions")
	subscriptionRoutes.Use(middleware.JWTAuth())
	{
		subscriptionRoutes.POST("/checkout", h.CreateCheckoutSession)
		subscriptionRoutes.GET("/current", h.GetCurrentSubscription)
		subscriptionRoutes.POST("/cancel", h.CancelSubscription)
		subscriptionRoutes.POST("/reactivate", h.ReactivateSubscription)
	}

	// Stripe calls the webhook and the success redirect lands on the
	// verification endpoint before any session exists, so both stay public
	r.POST("/subscriptions/webhook", h.StripeWebhook)
	r.GET("/subscriptions/verify-payment", h.VerifyPayment)
}
