package main

import (
	"log"
	"os"
	"strings"

	"masjidreview/config"
	"masjidreview/controllers"
	dbpkg "masjidreview/db"
	"masjidreview/router"
	"masjidreview/workers"

	"github.com/gin-gonic/gin"
)

// =====================
// ENV esperadas
// =====================
//
// Server
// - CONFIG                 (caminho do config.json, default config/config.json)
// - AUTOMIGRATE            (1 para automigrar masjids/reviews/users em dev)
//
// Fonnte
// - FONNTE_TOKEN           (token de envio)
// - FONNTE_API_URL         (default https://api.fonnte.com/send)
//
// OpenAI (ou endpoint compatível)
// - OPENAI_API_KEY
// - OPENAI_BASE_URL        (default https://api.openai.com/v1)
// - OPENAI_MODEL           (default gpt-4o-mini)
//
// =====================

func main() {
	cfg := config.Get(getenv("CONFIG", "config/config.json"))

	dbpkg.SetConfigurations(cfg)
	database, err := dbpkg.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	dispatcher := workers.StartDispatcher(cfg.Webhook.ReplyWorkers)
	defer dispatcher.Stop()

	controllers.SetupWebhook(cfg, dispatcher)

	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(database))
	router.Initialize(r, cfg)

	log.Printf("masjidreview listening on :%s", cfg.ApiPort)
	log.Fatal(r.Run(":" + cfg.ApiPort))
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
