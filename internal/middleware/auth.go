package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"brandshot-backend/internal/config"
	"brandshot-backend/internal/models"
)

const (
	UserIDKey = "user_id"
	EmailKey  = "email"
)

var (
	errMissingHeader = errors.New("missing authorization header")
	errHeaderFormat  = errors.New("invalid authorization header format")
	errMissingSub    = errors.New("missing user id in token")
)

// AuthMiddleware requires a Supabase-issued HS256 access token and stores the
// user id and email claims on the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), cfg.SupabaseJWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "invalid token",
				Message: describe(err),
			})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth stores the claims of a valid token when one is presented and
// otherwise lets the request through anonymously.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if claims, err := parseBearer(header, cfg.SupabaseJWTSecret); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// Email returns the authenticated payer email, if any.
func Email(c *gin.Context) string {
	return c.GetString(EmailKey)
}

func setClaims(c *gin.Context, claims jwt.MapClaims) {
	sub, _ := claims["sub"].(string)
	c.Set(UserIDKey, sub)
	if email, ok := claims["email"].(string); ok {
		c.Set(EmailKey, email)
	}
}

func parseBearer(header, secret string) (jwt.MapClaims, error) {
	if header == "" {
		return nil, errMissingHeader
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return nil, errHeaderFormat
	}

	token, err := jwt.Parse(strings.TrimSpace(parts[1]), func(token *jwt.Token) (interface{}, error) {
		if secret == "" {
			return nil, jwt.ErrSignatureInvalid
		}
		// Supabase JWT secret is used directly as the signing key
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if sub, ok := claims["sub"].(string); !ok || sub == "" {
		return nil, errMissingSub
	}
	return claims, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token has expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return "token signature is invalid - check JWT secret"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token is malformed - ensure you're using a valid Supabase JWT token"
	default:
		return err.Error()
	}
}
