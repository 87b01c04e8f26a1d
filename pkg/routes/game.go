package routes

import (
	"github.com/DedS3t/monopoly-economy/app/controllers"
	"github.com/gofiber/fiber/v2"
)

// GameRoutes registers the economy operations. All of them require a token.
func GameRoutes(a *fiber.App, h *controllers.Handler) {
	protected := h.Protected()

	bank := a.Group("/api/bank", protected)
	bank.Post("/transfer", h.Transfer)
	bank.Post("/pay-to-bank", h.PayToBank)
	bank.Post("/pay-from-bank", h.PayFromBank)
	bank.Get("/transactions/:code", h.Transactions)
	bank.Get("/players/:playerId", h.Player)

	props := a.Group("/api/properties", protected)
	props.Get("/player/:playerId", h.PlayerProperties)
	props.Get("/session/:code", h.SessionProperties)
	props.Post("/ownership/transfer-multiple", h.TransferMultiple)
	props.Post("/ownership/:ownershipId/mortgage", h.Mortgage)
	props.Post("/ownership/:ownershipId/redeem", h.Redeem)
	props.Post("/ownership/:ownershipId/build-house", h.BuildHouse)
	props.Post("/ownership/:ownershipId/sell-house", h.SellHouse)
	props.Post("/ownership/:ownershipId/build-hotel", h.BuildHotel)
	props.Post("/ownership/:ownershipId/sell-hotel", h.SellHotel)
	props.Post("/ownership/:ownershipId/transfer", h.TransferProperty)
	props.Post("/:propertyId/purchase", h.PurchaseProperty)
	props.Post("/:propertyId/pay-rent", h.PayRent)
	props.Get("/:propertyId/rent", h.Rent)

	bankruptcy := a.Group("/api/bankruptcy", protected)
	bankruptcy.Get("/liquidation-value/:playerId", h.LiquidationValue)
	bankruptcy.Get("/net-worth/:playerId", h.NetWorth)
	bankruptcy.Get("/check/:playerId/:debt", h.CheckBankruptcy)
	bankruptcy.Post("/liquidate/:playerId", h.LiquidateAssets)
	bankruptcy.Post("/declare", h.DeclareBankruptcy)

	sessions := a.Group("/api/sessions")
	sessions.Post("/:code/start", protected, h.StartSession)
	sessions.Post("/:code/end", protected, h.EndSession)
	sessions.Delete("/:code", protected, h.DeleteSession)
}
