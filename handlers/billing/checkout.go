package billing

import (
	"math"
	"net/http"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/config"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/db"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/models"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	session "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
)

// Handler carries the billing configuration. The Stripe API key is set once
// at construction; no handler reads the environment.
type Handler struct {
	cfg *config.Config
}

func NewHandler(cfg *config.Config) *Handler {
	stripe.Key = cfg.StripeSecretKey
	return &Handler{cfg: cfg}
}

type checkoutRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// CreateCheckoutSession starts a Stripe Checkout flow for a plan.
// @Summary Create a Stripe Checkout session for a subscription plan
// @Description Start a Stripe subscription payment for the chosen plan. Returns the session ID and the hosted checkout URL.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param body body checkoutRequest true "Plan to subscribe to"
// @Security BearerAuth
// @Success 200 {object} utils.Response "data: session_id, checkout_url"
// @Failure 400 {object} utils.Response "error: Plan ID required"
// @Failure 404 {object} utils.Response "error: Plan not found"
// @Failure 500 {object} utils.Response "error: Stripe error"
// @Router /subscriptions/checkout [post]
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req checkoutRequest
	if !utils.ValidateRequestBody(c, &req) {
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "User not found in CreateCheckoutSession")
		utils.SendError(c, http.StatusNotFound, "User not found")
		return
	}

	var plan models.Plan
	if err := db.DB.First(&plan, "id = ?", req.PlanID).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Plan not found in CreateCheckoutSession")
		utils.SendError(c, http.StatusNotFound, "Plan not found")
		return
	}

	priceID, err := h.ensureStripePrice(&plan)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Stripe product/price creation failed in CreateCheckoutSession")
		utils.SendError(c, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	successURL := h.cfg.FrontendBaseURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := h.cfg.FrontendBaseURL + "/payment/failed"

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(user.ID),
		CustomerEmail:     stripe.String(user.Email),
	}
	// correlated back by the webhook reconciliation
	params.AddMetadata("user_id", user.ID)
	params.AddMetadata("plan_id", plan.ID)

	s, err := session.New(params)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Stripe session creation failed in CreateCheckoutSession")
		utils.SendError(c, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	utils.LogSuccessWithUser(userID, "Checkout session created in CreateCheckoutSession")
	utils.SendSuccess(c, http.StatusOK, "Checkout session created successfully", gin.H{
		"session_id":   s.ID,
		"checkout_url": s.URL,
	})
}

// ensureStripePrice returns the plan's Stripe price, creating the remote
// product and price on first use and persisting the identifiers for reuse.
func (h *Handler) ensureStripePrice(plan *models.Plan) (string, error) {
	if plan.StripePriceId != "" {
		return plan.StripePriceId, nil
	}

	if plan.StripeProductId == "" {
		description := plan.Description
		if len(description) > 500 {
			description = description[:500]
		}
		productParams := &stripe.ProductParams{
			Name: stripe.String(plan.Title),
		}
		if description != "" {
			productParams.Description = stripe.String(description)
		}
		prod, err := product.New(productParams)
		if err != nil {
			return "", err
		}
		if err := db.DB.Model(plan).Update("stripe_product_id", prod.ID).Error; err != nil {
			return "", err
		}
		plan.StripeProductId = prod.ID
	}

	p, err := price.New(&stripe.PriceParams{
		Product:    stripe.String(plan.StripeProductId),
		UnitAmount: stripe.Int64(int64(math.Round(plan.Price * 100))),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(plan.BillingCycle.StripeInterval()),
		},
	})
	if err != nil {
		return "", err
	}
	if err := db.DB.Model(plan).Update("stripe_price_id", p.ID).Error; err != nil {
		return "", err
	}
	plan.StripePriceId = p.ID
	return p.ID, nil
}
