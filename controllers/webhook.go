package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"labelbridge/labeling"
)

// Header and query names the external tool may carry the shared secret in,
// depending on how the webhook was configured on its side.
const (
	secretHeaderPrimary  = "X-Label-Studio-Secret"
	secretHeaderFallback = "X-Webhook-Secret"
	secretQueryParam     = "secret"
)

// VerifyWebhookSecret Check the shared secret from header or query string.
// Fails closed when no secret is configured.
func VerifyWebhookSecret(headers http.Header, query map[string][]string, secret string) bool {
	if secret == "" {
		return false
	}

	candidates := []string{
		headers.Get(secretHeaderPrimary),
		headers.Get(secretHeaderFallback),
	}
	if values, ok := query[secretQueryParam]; ok && len(values) > 0 {
		candidates = append(candidates, values[0])
	}

	for _, candidate := range candidates {
		if candidate != "" && candidate == secret {
			return true
		}
	}
	return false
}

// LabelStudioWebhook Authenticate an inbound callback and hand the payload to
// the event handler
func LabelStudioWebhook(secret string, handler labeling.EventHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !VerifyWebhookSecret(c.Request.Header, c.Request.URL.Query(), secret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
			return
		}

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read payload"})
			return
		}

		event := "unknown"
		var envelope struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Event != "" {
			event = envelope.Event
		}

		if handler != nil {
			if err := handler.HandleEvent(c.Request.Context(), event, payload); err != nil {
				log.Warn(fmt.Sprintf("Webhook event %s not applied: %s", event, err.Error()))
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "received", "event": event})
	}
}
