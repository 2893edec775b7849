package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ksndmc/flow-api/internal/middleware"
	"github.com/ksndmc/flow-api/internal/models"
)

// currentClaims returns the authenticated user's claims, if any.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
