// Package controllers adapts the economy services to fiber handlers.
package controllers

import (
	"strconv"
	"time"

	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/bankruptcy"
	"github.com/DedS3t/monopoly-economy/platform/board"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/property"
	"github.com/DedS3t/monopoly-economy/platform/session"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	Ledger     *ledger.Ledger
	Properties *property.Service
	Bankruptcy *bankruptcy.Resolver
	Sessions   *session.Service
	Board      *board.Catalog
	Secret     []byte
}

// fail writes err in the shared error shape.
func fail(c *fiber.Ctx, err error) error {
	status := apperr.Status(err)
	if status == fiber.StatusInternalServerError {
		log.WithFields(log.Fields{"component": "http", "path": c.Path()}).WithError(err).Error("request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"code":      apperr.KindOf(err),
		"message":   apperr.Message(err),
		"timestamp": time.Now().UTC(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":      "BAD_REQUEST",
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func intParam(c *fiber.Ctx, name string) (int, bool) {
	v, err := strconv.Atoi(c.Params(name))
	return v, err == nil
}

func decimalParam(c *fiber.Ctx, name string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(c.Params(name))
	return d, err == nil
}

// orZero reads an optional amount.
func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
