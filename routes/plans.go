package routes

import (
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/handlers/billing"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/middleware"

	"github.com/gin-gonic/gin"
)

func PlansRoutes(r *gin.Engine) {
	// Catalog reads are public so the pricing page works without a session
	plansPublicRoutes := r.Group("/plans")
	plansPublicRoutes.GET("", billing.GetPlans)
	plansPublicRoutes.GET("/:planId", billing.GetPlan)

	// Catalog management (admin only)
	plansAdminRoutes := r.Group("/plans")
	plansAdminRoutes.Use(middleware.JWTAuth())
	plansAdminRoutes.Use(middleware.AdminAuth())
	{
		plansAdminRoutes.POST("", billing.CreatePlan)
		plansAdminRoutes.PUT("/:planId", billing.UpdatePlan)
		plansAdminRoutes.DELETE("/:planId", billing.DeletePlan)
	}
}
