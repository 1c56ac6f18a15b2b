package middleware

import (
	"strings"

	"K9Ops/Config"
	"K9Ops/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both access and refresh tokens. TokenType
// keeps a refresh token from being replayed as an access token.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	ProjectID *uint  `json:"project_id,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// ParseToken validates a signed token string and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(Config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Protect requires a valid access token. The bearer header is preferred;
// the jwt cookie is kept as a fallback for the web client. The user is
// loaded fresh from the database and stored in Locals for the handlers.
func Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := ""
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				tokenStr = parts[1]
			}
		}
		if tokenStr == "" {
			tokenStr = c.Cookies("jwt")
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not logged in",
			})
		}

		claims, err := ParseToken(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}
		if claims.TokenType != TokenTypeAccess {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token type",
			})
		}

		var user Models.User
		if err := Models.DB.Where("id = ? AND is_active = ?", claims.UserID, true).
			First(&user).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "User not found or deactivated",
			})
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// RequireRole gates a route to the listed roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(Models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not logged in",
			})
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Insufficient permissions to access this resource",
		})
	}
}

// CurrentUser returns the user Protect stored on the context.
func CurrentUser(c *fiber.Ctx) Models.User {
	user, _ := c.Locals("user").(Models.User)
	return user
}
