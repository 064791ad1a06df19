package main

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

const userKey = "user"

var errInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	UserID model.ID `json:"uid"`
}

func randomKey() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)

	return b
}

func (app *App) GenerateToken(u *model.User) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(app.tokenTTL)),
		},
		UserID: u.ID,
	})

	return token.SignedString(app.tokenKey)
}

func (app *App) UserFromToken(tokenString string) (*model.User, error) {
	claims := new(Claims)

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return app.tokenKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errInvalidToken
	}

	u := app.dbm.UserQuery().ID(claims.UserID).One()
	if u == nil {
		return nil, errInvalidToken
	}

	return u, nil
}

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)

	if t, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(t)
	}

	return ""
}

// public endpoints work without a token even when tokens are required.
func public(c *fiber.Ctx) bool {
	switch c.Query("endpoint") {
	case "login":
		return true
	case "usuarios":
		return c.Method() == fiber.MethodPost
	}

	return false
}

// authMiddleware rejects bad tokens with 401. A missing token is rejected only
// when require_token is set.
func authMiddleware(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if t := bearer(c); t != "" {
			u, err := app.UserFromToken(t)
			if err != nil {
				app.logger.Debug("bad token", slog.Any("error", err))

				return c.Status(fiber.StatusUnauthorized).JSON(model.Fail("Sesión expirada"))
			}

			c.Locals(userKey, u)

			return c.Next()
		}

		if app.cfg.RequireToken() && !public(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(model.Fail("Token requerido"))
		}

		return c.Next()
	}
}

func User(c *fiber.Ctx) *model.User {
	if u, ok := c.Locals(userKey).(*model.User); ok {
		return u
	}

	return nil
}

func Username(c *fiber.Ctx) string {
	if u := User(c); u != nil {
		return u.Email
	}

	return ""
}

// actor returns the authenticated user id, or the given one for anonymous
// requests.
func actor(c *fiber.Ctx, id model.ID) model.ID {
	if u := User(c); u != nil {
		return u.ID
	}

	return id
}
