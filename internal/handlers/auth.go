package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/certchain/credential-service/internal/config"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/utils"
)

// sessionClaims is the JWT payload carried by session tokens.
type sessionClaims struct {
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware provides bearer token authentication for the API
type JWTAuthMiddleware struct {
	config      config.AuthConfig
	environment string
	logger      utils.Logger
}

// NewJWTAuthMiddleware creates a new JWT authentication middleware
func NewJWTAuthMiddleware(cfg config.AuthConfig, environment string, logger utils.Logger) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		config:      cfg,
		environment: environment,
		logger:      logger,
	}
}

// AuthMiddleware returns a Gin middleware function that validates bearer tokens
func (am *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "authorization header missing",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := am.parseToken(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("invalid token: %v", err),
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("user_role", claims.Role)

		c.Next()
	}
}

// RequireRoleMiddleware checks if the authenticated user has one of the
// required roles. Admins pass every role check.
func (am *JWTAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "user role not found in context",
			})
			c.Abort()
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "invalid user role format",
			})
			c.Abort()
			return
		}

		hasRequiredRole := false
		for _, requiredRole := range requiredRoles {
			if role == requiredRole || role == models.RoleAdmin {
				hasRequiredRole = true
				break
			}
		}

		if !hasRequiredRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Login issues a signed session token. Token issuance normally lives with
// the identity provider, so this endpoint only exists outside production
// to keep local development and integration tests self-contained.
func (am *JWTAuthMiddleware) Login(c *gin.Context) {
	if am.environment == "production" {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "session endpoint is disabled in production",
		})
		return
	}

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "invalid request body",
		})
		return
	}
	if req.Subject == "" || (req.Role != models.RoleAdmin && req.Role != models.RoleStudent) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "subject and a valid role are required",
		})
		return
	}

	token, err := am.issueToken(req.Subject, req.Role)
	if err != nil {
		am.logger.Error("Failed to sign session token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(am.tokenTTL().Seconds()),
		Role:      req.Role,
	})
}

func (am *JWTAuthMiddleware) parseToken(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(am.secret()), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

func (am *JWTAuthMiddleware) issueToken(subject string, role models.UserRole) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(am.tokenTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(am.secret()))
}

func (am *JWTAuthMiddleware) secret() string {
	if am.config.Secret == "" {
		// Only reachable outside production, config validation rejects
		// an empty secret there.
		return "development-secret"
	}
	return am.config.Secret
}

func (am *JWTAuthMiddleware) tokenTTL() time.Duration {
	if am.config.TokenTTL <= 0 {
		return 12 * time.Hour
	}
	return am.config.TokenTTL
}

// GetUserIDFromContext extracts the authenticated subject from the Gin context
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok {
		return "", fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts the authenticated role from the Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
