package middleware

import (
	"strings"

	"InterviewLo/internal/entity"
	jwtPkg "InterviewLo/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
)

type tokenMiddleware struct {
	secretEnvKey string
}

func newTokenMiddleware() *tokenMiddleware {
	return &tokenMiddleware{secretEnvKey: AccessTokenSecret}
}

func (m *middleware) unauthorized(ctx *fiber.Ctx, reason string) error {
	m.log.WithFields(logrus.Fields{
		"request_id": m.GetRequestID(ctx),
		"path":       ctx.Path(),
		"client_ip":  ctx.IP(),
		"error":      reason,
	}).Warn("Token check failed")

	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
		"code":  "UNAUTHORIZED",
	})
}

// NewTokenMiddleware verifies the bearer token and stores the caller as
// entity.UserLoginData under the "user" local. Only the id claim is required;
// the display name falls back to the username claim.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if authHeader == "" {
		return m.unauthorized(ctx, "Authorization header is missing")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return m.unauthorized(ctx, "Authorization header format is invalid")
	}

	userToken, err := jwtPkg.VerifyTokenHeader(ctx, m.token.secretEnvKey)
	if err != nil {
		return m.unauthorized(ctx, err.Error())
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		return m.unauthorized(ctx, "Invalid token claims")
	}

	user, ok := userFromClaims(claims)
	if !ok {
		return m.unauthorized(ctx, "Token claims are missing the user id")
	}
	ctx.Locals("user", user)

	m.log.WithFields(logrus.Fields{
		"request_id": m.GetRequestID(ctx),
		"user_id":    user.ID,
	}).Debug("Authentication successful")
	return ctx.Next()
}

func userFromClaims(claims jwt.MapClaims) (entity.UserLoginData, bool) {
	id, _ := claims["id"].(string)
	if id == "" {
		return entity.UserLoginData{}, false
	}
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	name, _ := claims["name"].(string)
	if name == "" {
		name = username
	}

	return entity.UserLoginData{
		ID:       id,
		Username: username,
		Email:    email,
		Name:     name,
	}, true
}
