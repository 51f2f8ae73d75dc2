package handlers

import (
	"net/url"

	"qbay/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products and listings.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. router must be authenticated.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:title", h.HandleUpdateProduct)

	router.Get("/listings", h.HandleGetListings)
}

// CreateProductRequest represents the body of POST /products.
type CreateProductRequest struct {
	Title            string `json:"title" validate:"required"`
	Description      string `json:"description" validate:"required"`
	Price            int    `json:"price"`
	LastModifiedDate string `json:"last_modified_date" validate:"required"`
}

// UpdateProductRequest represents the body of PUT /products/:title.
type UpdateProductRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Price       int    `json:"price"`
}

// HandleGetProducts lists the products the signed-in user is selling.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetProducts(c.UserContext(), currentEmail(c))
	if err != nil {
		return respondError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetListings lists the products the signed-in user can buy.
func (h *ProductHandler) HandleGetListings(c *fiber.Ctx) error {
	products, err := h.service.GetListings(c.UserContext(), currentEmail(c))
	if err != nil {
		return respondError(c, "Could not retrieve listings", err)
	}
	return c.JSON(products)
}

// HandleCreateProduct lists a new product owned by the signed-in user.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if ok, err := validateRequest(c, h.validate, req); !ok {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), req.Price, req.Title, req.Description, req.LastModifiedDate, currentEmail(c))
	if err != nil {
		return respondError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces title, description and price of one of the
// signed-in user's products.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	existingTitle, err := url.PathUnescape(c.Params("title"))
	if err != nil {
		return badBody(c, err)
	}

	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if ok, err := validateRequest(c, h.validate, req); !ok {
		return err
	}

	product, err := h.service.UpdateOwnProduct(c.UserContext(), currentEmail(c), req.Price, req.Title, req.Description, existingTitle)
	if err != nil {
		return respondError(c, "Could not update product", err)
	}
	return c.JSON(product)
}
