package handlers

import (
	"errors"
	"log"

	"pasar/internal/middleware"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders and order items.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/buyer/me", h.HandleGetMyOrders)
	orderRoutes.Get("/buyer/:buyer_id", h.HandleGetOrdersByBuyer)
	orderRoutes.Get("/seller/:seller_id", h.HandleGetOrdersBySeller)
	orderRoutes.Get("/track/:tracking_number", h.HandleTrackOrder)
	orderRoutes.Get("/can-review/:product_id", h.HandleCanReview)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/status", h.HandleUpdateOrderStatus)
	orderRoutes.Patch("/:id/cancel", h.HandleCancelOrder)

	itemRoutes := router.Group("/order-items")
	itemRoutes.Post("/", h.HandleAddOrderItem)
	itemRoutes.Get("/:order_id", h.HandleGetOrderItems)
}

// statusForError maps the service error taxonomy to an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound), errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleCreateOrder creates a new order for the authenticated buyer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var cmd services.CreateOrderCommand
	if err := c.BodyParser(&cmd); err != nil {
		log.Printf("Error parsing create order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	cmd.BuyerID = middleware.UserID(c)

	order, err := h.service.CreateOrder(cmd)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		if errors.Is(err, services.ErrLedgerBooking) {
			// The order persisted but its bookkeeping did not; report the
			// failure with the order so the caller can follow up.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Order created but ledger booking failed; pending reconciliation",
				"error":   err.Error(),
				"order":   order,
			})
		}
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// HandleGetOrders retrieves all orders (admin / analytics surface).
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetMyOrders retrieves the authenticated buyer's orders with items.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersByBuyer(middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting orders for logged-in buyer: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve your orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrdersByBuyer retrieves a buyer's orders.
func (h *OrderHandler) HandleGetOrdersByBuyer(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersByBuyer(c.Params("buyer_id"))
	if err != nil {
		log.Printf("Error getting orders for buyer %s: %v", c.Params("buyer_id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrdersBySeller retrieves a seller's orders.
func (h *OrderHandler) HandleGetOrdersBySeller(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersBySeller(c.Params("seller_id"))
	if err != nil {
		log.Printf("Error getting orders for seller %s: %v", c.Params("seller_id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleTrackOrder retrieves an order by its tracking number.
func (h *OrderHandler) HandleTrackOrder(c *fiber.Ctx) error {
	trackingNumber := c.Params("tracking_number")
	order, err := h.service.TrackOrder(trackingNumber)
	if err != nil {
		log.Printf("Error tracking order %s: %v", trackingNumber, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Tracking number not found",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleCanReview reports whether the authenticated buyer may review a product.
func (h *OrderHandler) HandleCanReview(c *fiber.Ctx) error {
	canReview, err := h.service.CanReview(middleware.UserID(c), c.Params("product_id"))
	if err != nil {
		log.Printf("Error checking review permission: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not check review permission",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"can_review": canReview})
}

// HandleUpdateOrderStatus moves an order to a new lifecycle status.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	cmd := services.TransitionStatusCommand{OrderID: c.Params("id")}
	if err := c.BodyParser(&cmd); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateOrderStatus(cmd)
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", cmd.OrderID, err)
		if errors.Is(err, services.ErrLedgerBooking) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Order status updated but ledger write failed; pending reconciliation",
				"error":   err.Error(),
				"order":   order,
			})
		}
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

// HandleCancelOrder cancels a pending order on behalf of its buyer.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	cmd := services.CancelOrderCommand{
		OrderID: c.Params("id"),
		BuyerID: middleware.UserID(c),
	}

	order, err := h.service.CancelOrder(cmd)
	if err != nil {
		log.Printf("Error cancelling order %s: %v", cmd.OrderID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not cancel order",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Order cancelled successfully",
		"order":   order,
	})
}

// HandleAddOrderItem appends a product line to an existing order.
func (h *OrderHandler) HandleAddOrderItem(c *fiber.Ctx) error {
	var cmd services.AddOrderItemCommand
	if err := c.BodyParser(&cmd); err != nil {
		log.Printf("Error parsing add order item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	item, err := h.service.AddOrderItem(cmd)
	if err != nil {
		log.Printf("Error adding order item: %v", err)
		if errors.Is(err, services.ErrLedgerBooking) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Order item added but ledger booking failed; pending reconciliation",
				"error":   err.Error(),
				"item":    item,
			})
		}
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not add order item",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order item added and wallet updated",
		"item":    item,
	})
}

// HandleGetOrderItems lists the items of an order.
func (h *OrderHandler) HandleGetOrderItems(c *fiber.Ctx) error {
	items, err := h.service.GetOrderItems(c.Params("order_id"))
	if err != nil {
		log.Printf("Error getting items for order %s: %v", c.Params("order_id"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order items",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"order_items": items})
}
