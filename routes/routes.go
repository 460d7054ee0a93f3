package routes

import (
	"time"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/handlers/billing"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/handlers/scans"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetupRouter(billingHandler *billing.Handler, scansHandler *scans.Handler) *gin.Engine {

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	PlansRoutes(r)
	SubscriptionsRoutes(r, billingHandler)
	PaymentsRoutes(r)
	ScansRoutes(r, scansHandler)

	return r
}
