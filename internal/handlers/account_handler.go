package handlers

import (
	"qbay/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AccountHandler serves the signed-in user's profile.
type AccountHandler struct {
	accountService *services.AccountService
	validate       *validator.Validate
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the profile routes. router must be authenticated.
func (h *AccountHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/me", h.HandleGetProfile)
	userRoutes.Patch("/me", h.HandleUpdateProfile)
}

// UpdateProfileRequest carries the profile fields to change. Omitted fields are kept.
type UpdateProfileRequest struct {
	Username        *string `json:"username" validate:"omitempty"`
	ShippingAddress *string `json:"shipping_address" validate:"omitempty"`
	PostalCode      *string `json:"postal_code" validate:"omitempty"`
}

// HandleGetProfile returns the signed-in user.
func (h *AccountHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.accountService.GetUser(c.UserContext(), currentEmail(c))
	if err != nil {
		return respondError(c, "Could not retrieve profile", err)
	}
	return c.JSON(user)
}

// HandleUpdateProfile changes username, shipping address and postal code.
func (h *AccountHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if ok, err := validateRequest(c, h.validate, req); !ok {
		return err
	}

	email := currentEmail(c)
	update := services.ProfileUpdate{
		Username:        req.Username,
		ShippingAddress: req.ShippingAddress,
		PostalCode:      req.PostalCode,
	}
	if err := h.accountService.UpdateUser(c.UserContext(), email, update); err != nil {
		return respondError(c, "Profile update failed", err)
	}

	user, err := h.accountService.GetUser(c.UserContext(), email)
	if err != nil {
		return respondError(c, "Could not retrieve profile", err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}
