package controllers

import (
	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) LiquidationValue(c *fiber.Ctx) error {
	id := c.Params("playerId")
	v, err := h.Bankruptcy.LiquidationValue(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"player_id": id, "liquidation_value": v})
}

func (h *Handler) NetWorth(c *fiber.Ctx) error {
	id := c.Params("playerId")
	v, err := h.Bankruptcy.NetWorth(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"player_id": id, "net_worth": v})
}

func (h *Handler) CheckBankruptcy(c *fiber.Ctx) error {
	debt, ok := decimalParam(c, "debt")
	if !ok {
		return badRequest(c, "debt must be a decimal amount")
	}
	check, err := h.Bankruptcy.Check(c.Context(), c.Params("playerId"), debt)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(check)
}

func (h *Handler) LiquidateAssets(c *fiber.Ctx) error {
	id := c.Params("playerId")
	raised, err := h.Bankruptcy.LiquidateAssets(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"player_id": id, "amount_raised": raised})
}

func (h *Handler) DeclareBankruptcy(c *fiber.Ctx) error {
	dto := new(models.BankruptcyDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid bankruptcy request")
	}
	out, err := h.Bankruptcy.DeclareBankruptcy(c.Context(), dto.BankruptPlayerID, dto.CreditorPlayerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}
