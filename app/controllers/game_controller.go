package controllers

import (
	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateSession(c *fiber.Ctx) error {
	dto := new(models.SessionCreateDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid session request")
	}
	view, host, err := h.Sessions.Create(c.Context(), dto.HostName)
	if err != nil {
		return fail(c, err)
	}
	return h.admitted(c, fiber.StatusCreated, view, host)
}

func (h *Handler) GetSession(c *fiber.Ctx) error {
	view, err := h.Sessions.FindBySessionCode(c.Context(), c.Params("code"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) JoinSession(c *fiber.Ctx) error {
	dto := new(models.JoinSessionDto)
	if err := c.BodyParser(dto); err != nil {
		return badRequest(c, "invalid join request")
	}
	view, player, err := h.Sessions.Join(c.Context(), c.Params("code"), dto.PlayerName, dto.Color)
	if err != nil {
		return fail(c, err)
	}
	return h.admitted(c, fiber.StatusOK, view, player)
}

func (h *Handler) admitted(c *fiber.Ctx, status int, view models.SessionView, p models.PlayerSnapshot) error {
	token, err := h.issue(p)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"session":      view,
		"player":       p,
		"access_token": token,
	})
}

func (h *Handler) StartSession(c *fiber.Ctx) error {
	view, err := h.Sessions.Start(c.Context(), c.Params("code"), claims(c).PlayerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) EndSession(c *fiber.Ctx) error {
	view, err := h.Sessions.End(c.Context(), c.Params("code"), claims(c).PlayerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	if err := h.Sessions.Delete(c.Context(), c.Params("code"), claims(c).PlayerID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
