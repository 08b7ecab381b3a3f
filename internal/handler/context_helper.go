package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arenafit/schedule-api/internal/middleware"
	"github.com/arenafit/schedule-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// asOfParam parses the optional asOf query parameter (RFC 3339).
func asOfParam(c *gin.Context) (*time.Time, error) {
	raw := c.Query("asOf")
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
