package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
)

const (
	msgTokenRequired  = "Authorization token required"
	msgSessionExpired = "Session expired, please login again"
	msgInvalidToken   = "Invalid authorization token"
)

// JWTProtected requires a valid session token and stores it under "user".
func JWTProtected(issuer *auth.SessionIssuer) fiber.Handler {
	return jwtware.New(jwtware.Config{
		KeyFunc: issuer.Keyfunc,
		Claims:  &auth.Claims{},
		SuccessHandler: func(c *fiber.Ctx) error {
			claims, err := GetClaims(c)
			if err == nil {
				err = issuer.Validate(claims)
			}
			if err != nil {
				return unauthorized(c, msgInvalidToken)
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c, tokenErrorMessage(err))
		},
	})
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
		return msgTokenRequired
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, auth.ErrExpiredToken):
		return msgSessionExpired
	}
	return msgInvalidToken
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

// GetClaims extracts the session claims stored by JWTProtected or AdminRequired.
func GetClaims(c *fiber.Ctx) (*auth.Claims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, err := GetClaims(c)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}
