package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const SignatureHeader = "X-ElevenLabs-Signature"

// maxWebhookBody caps how much of a webhook body is read for verification.
const maxWebhookBody = 1 << 20

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body. An empty secret
// disables verification.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	return hmac.Equal([]byte(Sign(secret, body)), []byte(strings.ToLower(signature)))
}

// WebhookSignatureMiddleware rejects webhook calls whose body was not signed
// with secret. The body is restored for the next handler.
func WebhookSignatureMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
			return
		}
		if len(body) > maxWebhookBody {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large", "limit": maxWebhookBody})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !VerifySignature(secret, body, c.GetHeader(SignatureHeader)) {
			zap.L().Warn("Invalid webhook signature", zap.String("ip", getClientIP(c)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}
		c.Next()
	}
}
