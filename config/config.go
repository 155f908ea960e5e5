package config

import (
	"encoding/json"
	"log"
	"os"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Webhook struct {
		// DeviceAllow is matched by substring against the "device" field of
		// inbound Fonnte calls. Fonnte decorates device ids, so containment
		// (not equality) is intentional; revisit before exposing publicly.
		DeviceAllow string `json:"device_allow"`
		// GroupTrigger is the command word required at the start of group
		// messages ("review ..."). Direct messages need no trigger.
		GroupTrigger string `json:"group_trigger"`
		// AnonymousName is used when the sender gives us nothing usable.
		AnonymousName string `json:"anonymous_name"`
		// ReplyWorkers bounds the fire-and-forget dispatcher pool.
		ReplyWorkers int `json:"reply_workers"`
	} `json:"webhook"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	return ApplyDefaults(c)
}

// ApplyDefaults preenche os campos vazios (pra evitar nil/zero chato).
func ApplyDefaults(c Configuration) Configuration {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Webhook.GroupTrigger == "" {
		c.Webhook.GroupTrigger = "review"
	}
	if c.Webhook.AnonymousName == "" {
		c.Webhook.AnonymousName = "Hamba Allah"
	}
	if c.Webhook.ReplyWorkers <= 0 {
		c.Webhook.ReplyWorkers = 4
	}

	return c
}
