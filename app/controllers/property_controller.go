package controllers

import (
	"context"
	"strconv"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/platform/property"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListProperties(c *fiber.Ctx) error {
	return c.JSON(h.Board.All())
}

func (h *Handler) PurchaseProperty(c *fiber.Ctx) error {
	id, ok := intParam(c, "propertyId")
	if !ok {
		return badRequest(c, "property id must be a number")
	}
	dto := new(models.PurchaseDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid purchase request")
	}
	var (
		view models.OwnershipView
		err  error
	)
	if dto.Price != nil {
		view, err = h.Properties.PurchaseAt(c.Context(), dto.PlayerID, id, *dto.Price)
	} else {
		view, err = h.Properties.Purchase(c.Context(), dto.PlayerID, id)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *Handler) PayRent(c *fiber.Ctx) error {
	id, ok := intParam(c, "propertyId")
	if !ok {
		return badRequest(c, "property id must be a number")
	}
	dto := new(models.PayRentDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid rent request")
	}
	t, err := h.Properties.PayRent(c.Context(), id, dto.TenantPlayerID, dto.DiceRoll)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) Rent(c *fiber.Ctx) error {
	id, ok := intParam(c, "propertyId")
	if !ok {
		return badRequest(c, "property id must be a number")
	}
	roll := property.ViewDice
	if dice := c.Query("dice"); dice != "" {
		d, err := strconv.Atoi(dice)
		if err != nil {
			return badRequest(c, "dice must be a number")
		}
		roll = d
	}
	amount, err := h.Properties.CalculateRent(c.Context(), c.Query("session"), id, roll)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"property_id": id, "dice_roll": roll, "rent": amount})
}

func (h *Handler) PlayerProperties(c *fiber.Ctx) error {
	list, err := h.Properties.PlayerProperties(c.Context(), c.Params("playerId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) SessionProperties(c *fiber.Ctx) error {
	list, err := h.Properties.SessionProperties(c.Context(), c.Params("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// ownership runs a single-ownership action named by the ownershipId param.
func (h *Handler) ownership(c *fiber.Ctx, action func(context.Context, string) (models.OwnershipView, error)) error {
	view, err := action(c.Context(), c.Params("ownershipId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) Mortgage(c *fiber.Ctx) error   { return h.ownership(c, h.Properties.Mortgage) }
func (h *Handler) Redeem(c *fiber.Ctx) error     { return h.ownership(c, h.Properties.Redeem) }
func (h *Handler) BuildHouse(c *fiber.Ctx) error { return h.ownership(c, h.Properties.BuildHouse) }
func (h *Handler) SellHouse(c *fiber.Ctx) error  { return h.ownership(c, h.Properties.SellHouse) }
func (h *Handler) BuildHotel(c *fiber.Ctx) error { return h.ownership(c, h.Properties.BuildHotel) }
func (h *Handler) SellHotel(c *fiber.Ctx) error  { return h.ownership(c, h.Properties.SellHotel) }

func (h *Handler) TransferProperty(c *fiber.Ctx) error {
	dto := new(models.TransferPropertyDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid transfer request")
	}
	view, err := h.Properties.Transfer(c.Context(), c.Params("ownershipId"), dto.NewOwnerID, orZero(dto.Price))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) TransferMultiple(c *fiber.Ctx) error {
	dto := new(models.MultipleTransferDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid transfer request")
	}
	views, err := h.Properties.TransferMultiple(c.Context(), dto.OwnershipIDs, dto.NewOwnerID, orZero(dto.Compensation))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(views)
}
