package router

import (
	"log"

	"masjidreview/config"
	"masjidreview/controllers"
	"masjidreview/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares.
func Initialize(r *gin.Engine, cfg config.Configuration) {
	_ = cfg

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// Webhook do Fonnte. O caminho é contrato: é o que está cadastrado no
	// painel do provedor. GET serve de health check.
	r.GET("/webhook/fonnte", controllers.WebhookHealth)
	r.POST("/webhook/fonnte", Logger(), controllers.WebhookFonnte)

	log.Printf("Routes initialized")
}
