package controllers

import (
	"time"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	jwt "github.com/form3tech-oss/jwt-go"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
)

const tokenTTL = 24 * time.Hour

type Claims struct {
	PlayerID  string
	SessionID string
}

// Protected rejects requests without a valid bearer token.
func (h *Handler) Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: h.Secret,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":      apperr.KindUnauthorized,
				"message":   "missing or invalid token",
				"timestamp": time.Now().UTC(),
			})
		},
	})
}

// issue signs a token for a player that just created or joined a session.
func (h *Handler) issue(p models.PlayerSnapshot) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["player_id"] = p.ID
	claims["session_id"] = p.SessionID
	claims["exp"] = time.Now().Add(tokenTTL).Unix()
	return token.SignedString(h.Secret)
}

func claims(c *fiber.Ctx) Claims {
	user, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return Claims{}
	}
	mc, ok := user.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}
	}
	playerID, _ := mc["player_id"].(string)
	sessionID, _ := mc["session_id"].(string)
	return Claims{PlayerID: playerID, SessionID: sessionID}
}

// Me returns the player behind the token.
func (h *Handler) Me(c *fiber.Ctx) error {
	p, err := h.Ledger.Player(c.Context(), claims(c).PlayerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}
