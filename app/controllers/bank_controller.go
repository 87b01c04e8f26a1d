package controllers

import (
	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Transfer(c *fiber.Ctx) error {
	dto := new(models.TransferDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid transfer request")
	}
	t, err := h.Ledger.Transfer(c.Context(), dto.FromPlayerID, dto.ToPlayerID, dto.Amount, dto.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) PayToBank(c *fiber.Ctx) error {
	dto := new(models.BankPaymentDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid payment request")
	}
	t, err := h.Ledger.PayToBank(c.Context(), dto.PlayerID, dto.Amount, dto.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) PayFromBank(c *fiber.Ctx) error {
	dto := new(models.BankPaymentDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid payment request")
	}
	t, err := h.Ledger.PayFromBank(c.Context(), dto.PlayerID, dto.Amount, dto.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) Transactions(c *fiber.Ctx) error {
	list, err := h.Ledger.History(c.Context(), c.Params("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) Player(c *fiber.Ctx) error {
	p, err := h.Ledger.Player(c.Context(), c.Params("playerId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}
