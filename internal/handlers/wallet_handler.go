package handlers

import (
	"log"

	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler handles HTTP requests for seller wallets. The surface is
// read-only: wallet mutations only happen inside the order lifecycle.
type WalletHandler struct {
	service *services.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(service *services.WalletService) *WalletHandler {
	return &WalletHandler{
		service: service,
	}
}

// RegisterRoutes registers the wallet routes with the Fiber app.
func (h *WalletHandler) RegisterRoutes(router fiber.Router) {
	walletRoutes := router.Group("/wallets")
	walletRoutes.Get("/seller/:seller_id", h.HandleGetWallet)
	walletRoutes.Get("/transactions/:seller_id", h.HandleGetTransactions)
	walletRoutes.Get("/revenue/:seller_id", h.HandleGetRevenue)
}

// HandleGetWallet returns a seller's wallet.
func (h *WalletHandler) HandleGetWallet(c *fiber.Ctx) error {
	wallet, err := h.service.GetWallet(c.Params("seller_id"))
	if err != nil {
		log.Printf("Error getting wallet for seller %s: %v", c.Params("seller_id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve wallet",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"wallet": wallet})
}

// HandleGetTransactions returns a seller's ledger entries, newest first.
func (h *WalletHandler) HandleGetTransactions(c *fiber.Ctx) error {
	transactions, err := h.service.GetTransactions(c.Params("seller_id"))
	if err != nil {
		log.Printf("Error getting transactions for seller %s: %v", c.Params("seller_id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve transactions",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"transactions": transactions})
}

// HandleGetRevenue returns the platform commission rows for a seller.
func (h *WalletHandler) HandleGetRevenue(c *fiber.Ctx) error {
	revenue, err := h.service.GetRevenue(c.Params("seller_id"))
	if err != nil {
		log.Printf("Error getting revenue for seller %s: %v", c.Params("seller_id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve platform revenue",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"revenue": revenue})
}
