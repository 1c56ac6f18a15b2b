package Controllers

import (
	"log"
	"time"

	"K9Ops/Config"
	"K9Ops/Models"
	"K9Ops/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfa_code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// generateTokenPair issues an access/refresh pair and persists the
// refresh token's ID so it can be revoked or rotated.
func generateTokenPair(user *Models.User) (accessToken, refreshToken string, err error) {
	now := time.Now()

	accessClaims := middleware.Claims{
		UserID:    user.ID,
		Role:      user.Role,
		ProjectID: user.ProjectID,
		TokenType: middleware.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(Config.AccessTokenMinutes) * time.Minute)),
		},
	}
	accessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).
		SignedString([]byte(Config.JWTSecret))
	if err != nil {
		return "", "", err
	}

	tokenID := uuid.NewString()
	expiresAt := now.Add(time.Duration(Config.RefreshTokenHours) * time.Hour)
	refreshClaims := middleware.Claims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenType: middleware.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	refreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).
		SignedString([]byte(Config.JWTSecret))
	if err != nil {
		return "", "", err
	}

	record := Models.RefreshToken{
		UserID:    user.ID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}
	if err := Models.DB.Create(&record).Error; err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Login checks credentials, then the TOTP code when MFA is enrolled, and
// returns a token pair. The access token is also set as the jwt cookie
// for the web client.
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	var user Models.User
	if err := Models.DB.Where("username = ? AND is_active = ?", req.Username, true).
		First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}
	if !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	if user.MFAEnabled {
		if req.MFACode == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message":      "MFA code required",
				"mfa_required": true,
			})
		}
		if !totp.Validate(req.MFACode, user.MFASecret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid MFA code"})
		}
	}

	accessToken, refreshToken, err := generateTokenPair(&user)
	if err != nil {
		log.Println(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue tokens"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    accessToken,
		Expires:  time.Now().Add(time.Duration(Config.AccessTokenMinutes) * time.Minute),
		HTTPOnly: true,
	})

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	})
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token is rotated out so it cannot be replayed.
func Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != middleware.TokenTypeRefresh {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid or expired refresh token"})
	}

	var record Models.RefreshToken
	if err := Models.DB.Where("token_id = ? AND revoked = ?", claims.ID, false).
		First(&record).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Refresh token revoked"})
	}
	if time.Now().After(record.ExpiresAt) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Refresh token expired"})
	}

	var user Models.User
	if err := Models.DB.Where("id = ? AND is_active = ?", claims.UserID, true).
		First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "User not found or deactivated"})
	}

	Models.DB.Model(&record).Update("revoked", true)

	accessToken, refreshToken, err := generateTokenPair(&user)
	if err != nil {
		log.Println(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue tokens"})
	}

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout clears the cookie and revokes the refresh token when provided.
func Logout(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err == nil && req.RefreshToken != "" {
		if claims, err := middleware.ParseToken(req.RefreshToken); err == nil {
			Models.DB.Model(&Models.RefreshToken{}).
				Where("token_id = ?", claims.ID).
				Update("revoked", true)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ValidateToken reports whether the presented access token is good.
func ValidateToken(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{"valid": true, "user": user})
}

// User returns the authenticated user's record.
func User(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// SetupMFA generates a TOTP secret for the caller and returns the
// otpauth URL for the authenticator app. MFA stays off until the first
// code is verified via EnableMFA.
func SetupMFA(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "K9Ops",
		AccountName: user.Username,
	})
	if err != nil {
		log.Println(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate MFA secret"})
	}

	if err := Models.DB.Model(&Models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"mfa_secret": key.Secret(), "mfa_enabled": false}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store MFA secret"})
	}

	return c.JSON(fiber.Map{
		"secret": key.Secret(),
		"url":    key.URL(),
	})
}

// EnableMFA verifies the first TOTP code against the pending secret and
// switches MFA on.
func EnableMFA(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req struct {
		Code string `json:"code" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	var fresh Models.User
	if err := Models.DB.First(&fresh, user.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}
	if fresh.MFASecret == "" || !totp.Validate(req.Code, fresh.MFASecret) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid MFA code"})
	}

	if err := Models.DB.Model(&fresh).Update("mfa_enabled", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to enable MFA"})
	}
	return c.JSON(fiber.Map{"message": "MFA enabled"})
}

// RegisterDeviceToken stores an FCM registration token for the caller.
func RegisterDeviceToken(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req struct {
		Value string `json:"value" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	var token Models.DeviceToken
	err := Models.DB.Where("user_id = ? AND value = ?", user.ID, req.Value).
		FirstOrCreate(&token, Models.DeviceToken{UserID: user.ID, Value: req.Value}).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register device token"})
	}

	return c.JSON(fiber.Map{"message": "Device token registered"})
}
