package jwtPkg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"InterviewLo/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var (
	ErrMissingHeader   = errors.New("empty Authorization header")
	ErrInvalidFormat   = errors.New("invalid Authorization format")
	ErrSecretNotConfig = errors.New("JWT secret not configured")
)

// Sign issues an HS256 access token carrying data as claims.
func Sign(data map[string]interface{}, expiredAt time.Duration) (string, int64, error) {
	expiry := time.Now().Add(expiredAt).Unix()

	secret := os.Getenv("JWT_ACCESS_TOKEN_SECRET")
	if secret == "" {
		return "", 0, fmt.Errorf("JWT_ACCESS_TOKEN_SECRET not set")
	}

	claims := jwt.MapClaims{}
	for k, v := range data {
		claims[k] = v
	}
	claims["exp"] = expiry
	claims["authorization"] = true

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return token, expiry, nil
}

// VerifyTokenHeader parses the bearer token of c with the HMAC secret held in
// the secretEnvKey environment variable.
func VerifyTokenHeader(c *fiber.Ctx, secretEnvKey string) (*jwt.Token, error) {
	log := logrus.WithField("func", "VerifyTokenHeader")

	header := c.Get("Authorization")
	if header == "" {
		return nil, ErrMissingHeader
	}

	accessToken, ok := strings.CutPrefix(header, "Bearer ")
	accessToken = strings.TrimSpace(accessToken)
	if !ok || accessToken == "" {
		return nil, ErrInvalidFormat
	}

	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		log.WithField("env", secretEnvKey).Error("JWT secret environment variable not set")
		return nil, ErrSecretNotConfig
	}

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		log.WithError(err).Debug("Failed to parse JWT token")
		return nil, err
	}

	return token, nil
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	user, ok := c.Locals("user").(entity.UserLoginData)
	if !ok || user.ID == "" {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}
