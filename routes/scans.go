package routes

import (
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/handlers/scans"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/middleware"

	"github.com/gin-gonic/gin"
)

func ScansRoutes(r *gin.Engine, h *scans.Handler) {
	scanRoutes := r.Group("/optery")
	scanRoutes.Use(middleware.JWTAuth())
	{
		scanRoutes.POST("/data-scans", h.EnqueueDataScan)
		scanRoutes.GET("/data-scans", h.GetDataScanStatus)
		scanRoutes.GET("/history", h.GetScanHistory)
		scanRoutes.POST("/members", h.CreateMember)
		scanRoutes.POST("/custom-removal", h.SubmitCustomRemoval)
		scanRoutes.GET("/databrokers", h.GetDataBrokers)
	}
}
