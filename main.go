package main

import (
	"log"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/config"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/db"
	_ "github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/docs"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/handlers/billing"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/handlers/scans"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/optery"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/routes"
	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/tasks"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// @title AJAXX Privacy API
// @version 1.0
// @description Subscription billing and personal data removal backend
// @host localhost:8080
// @BasePath /
// @SecurityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the JWT with the Bearer prefix: Bearer <JWT>
func main() {

	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration:", err)
	}

	db.InitDB(cfg)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	billingHandler := billing.NewHandler(cfg)
	scansHandler := scans.NewHandler(tasks.NewQueue(rdb), optery.NewClient(cfg))

	r := routes.SetupRouter(billingHandler, scansHandler)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Error starting server:", err)
	}
}
