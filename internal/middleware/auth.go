package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/osvaldoandrade/scanq/pkg/auth"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token against each configured validator
// in order; the first success wins. With no validators configured the chain
// passes through anonymously (open submissions in dev).
func AuthMiddleware(validators []auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(validators) == 0 {
			c.Next()
			return
		}
		claims, err := validateAny(validators, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setUserContext(c, claims)
		c.Next()
	}
}

// OptionalAuth validates a bearer token when one is present but never
// rejects. Routes that accept a result seed in place of credentials decide
// authorization themselves based on whether claims landed in the context.
func OptionalAuth(validators []auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(validators) > 0 {
			if claims, err := validateAny(validators, c.GetHeader("Authorization")); err == nil {
				setUserContext(c, claims)
			}
		}
		c.Next()
	}
}

// RequireScope rejects requests whose claims lack the given scope. Requests
// that passed AuthMiddleware anonymously (no validators configured) carry no
// claims and are rejected here: scoped routes never run open.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok || claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}
		if !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing scope"})
			return
		}
		c.Next()
	}
}

func validateAny(validators []auth.Validator, authHeader string) (*auth.Claims, error) {
	token, err := splitBearer(authHeader)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, v := range validators {
		claims, err := v.Validate(token)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no auth validators configured")
	}
	return nil, lastErr
}

func splitBearer(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid Authorization format")
	}
	return parts[1], nil
}

func setUserContext(c *gin.Context, claims *auth.Claims) {
	c.Set("userClaims", claims)
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		email = strings.TrimSpace(claims.Subject)
	}
	c.Set("userEmail", email)
}

func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get("userClaims")
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
