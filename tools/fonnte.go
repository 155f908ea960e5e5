package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// SendFonnteText envia uma mensagem de texto pelo Fonnte. Best-effort: o
// chamador decide se o erro importa (no pipeline do webhook, não importa —
// a review já foi criada).
func SendFonnteText(ctx context.Context, target string, message string) error {
	token := strings.TrimSpace(os.Getenv("FONNTE_TOKEN"))
	if token == "" {
		return fmt.Errorf("FONNTE_TOKEN not set")
	}

	url := getenv("FONNTE_API_URL", "https://api.fonnte.com/send")

	reqBody := map[string]any{
		"target":  target,
		"message": message,
	}

	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("fonnte api error: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
