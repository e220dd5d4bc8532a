package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/docket/models"
)

// Auth gates the record and report endpoints behind a static API key,
// accepted either as `X-API-Key: <key>` or `Authorization: Bearer <key>`.
//
// With no keys configured the middleware is a no-op: a docket instance on a
// trusted network runs open by default.
func Auth(apiKeys []string) gin.HandlerFunc {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	if len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := apiKeyFrom(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.APIResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeUnauthorized,
					Message: "missing API key: provide X-API-Key header or Authorization: Bearer <key>",
				},
			})
			return
		}

		if !keyKnown(keys, key) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.APIResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeUnauthorized,
					Message: "invalid API key",
				},
			})
			return
		}

		c.Set("api_key", key)
		c.Next()
	}
}

// keyKnown compares the presented key against every configured key in
// constant time, so a rejected request's latency says nothing about how
// close the guess was.
func keyKnown(keys [][]byte, presented string) bool {
	p := []byte(presented)
	known := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k, p) == 1 {
			known = true
		}
	}
	return known
}

// apiKeyFrom tries X-API-Key first, then Authorization: Bearer.
func apiKeyFrom(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
