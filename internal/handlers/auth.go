package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/utils"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "user_id"

	// DevUserHeader names the caller when token auth is disabled.
	DevUserHeader = "X-User-ID"
)

// TokenParser resolves a bearer token to a user id.
type TokenParser func(token string) (string, error)

// NewCasdoorTokenParser verifies tokens issued by the configured casdoor
// application.
func NewCasdoorTokenParser(cfg config.AuthConfig) TokenParser {
	casdoorsdk.InitConfig(cfg.Endpoint, cfg.ClientID, cfg.ClientSecret, cfg.Certificate, cfg.OrganizationName, cfg.ApplicationName)

	return func(token string) (string, error) {
		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			return "", err
		}
		if claims.User.Id != "" {
			return claims.User.Id, nil
		}
		if claims.RegisteredClaims.Subject != "" {
			return claims.RegisteredClaims.Subject, nil
		}
		return "", errors.New("token carries no user id")
	}
}

// AuthMiddleware requires a valid bearer token and stores the user id.
func AuthMiddleware(parse TokenParser, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}

		userID, err := parse(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("Rejected bearer token",
				"path", c.Request.URL.Path,
				"error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// DevAuthMiddleware trusts the X-User-ID header. Only for local runs.
func DevAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(DevUserHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Details: "missing " + DevUserHeader + " header",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}
