package routes

import (
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/handlers/billing"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/middleware"

	"github.com/gin-gonic/gin"
)

func PaymentsRoutes(r *gin.Engine) {
	paymentRoutes := r.Group("/payments")
	paymentRoutes.Use(middleware.JWTAuth())
	{
		paymentRoutes.GET("/history", billing.GetUserPayments)
		paymentRoutes.GET("/total-earnings", middleware.AdminAuth(), billing.TotalEarnings)
		paymentRoutes.GET("/todays-earnings", middleware.AdminAuth(), billing.TodaysEarnings)
		paymentRoutes.GET("/monthly-stats", middleware.AdminAuth(), billing.MonthlyStats)
		paymentRoutes.GET("/earnings-overview", middleware.AdminAuth(), billing.EarningsOverview)
	}
}
