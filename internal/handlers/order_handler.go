package handlers

import (
	"log"

	"qbay/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for purchases.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. router must be authenticated.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
}

// CreateOrderRequest names the product to buy.
type CreateOrderRequest struct {
	Title string `json:"title" validate:"required"`
}

// HandleGetOrders returns the purchases of the signed-in user.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	transactions, err := h.service.GetTransactions(c.UserContext(), currentEmail(c))
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(transactions)
}

// HandleCreateOrder buys a product for the signed-in user.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if ok, err := validateRequest(c, h.validate, req); !ok {
		return err
	}

	buyer := currentEmail(c)
	txn, err := h.service.PlaceOrder(c.UserContext(), buyer, req.Title)
	if err != nil {
		log.Printf("Error placing order for %s on '%s': %v", buyer, req.Title, err)
		return respondError(c, "Order failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Order placed successfully",
		"transaction": txn,
	})
}
