package handlers

import (
	"log"

	"luxe/internal/apperror"
	"luxe/internal/middleware"
	"luxe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service     *services.ProductService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, authService *services.AuthService) *ProductHandler {
	return &ProductHandler{
		service:     service,
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/categories", h.HandleGetCategories)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	protect, admin := middleware.AuthRequired(h.authService), middleware.AdminOnly()
	productRoutes.Post("/", protect, admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", protect, admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", protect, admin, h.HandleDeleteProduct)
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.Validation("Invalid %s: %s", key, raw)
	}
	return &d, nil
}

// HandleGetProducts lists in-stock products with filters, sorting and pagination.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	minPrice, err := queryDecimal(c, "minPrice")
	if err != nil {
		return err
	}
	maxPrice, err := queryDecimal(c, "maxPrice")
	if err != nil {
		return err
	}

	products, pagination, err := h.service.ListProducts(c.UserContext(), services.ProductQuery{
		Category: c.Query("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Search:   c.Query("search"),
		Featured: c.QueryBool("featured"),
		Sort:     c.Query("sort"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 0),
	})
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return err
	}

	return respond(c, fiber.StatusOK, "", fiber.Map{
		"products":   products,
		"pagination": pagination,
	})
}

// HandleGetCategories returns the categories that have products.
func (h *ProductHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{"categories": categories})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{"product": product})
}

// HandleCreateProduct adds a product to the catalog.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		log.Printf("Error creating product %s: %v", req.Name, err)
		return err
	}
	return respond(c, fiber.StatusCreated, "Product created successfully", fiber.Map{"product": product})
}

// HandleUpdateProduct edits an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req services.ProductPatch
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product updated successfully", fiber.Map{"product": product})
}

// HandleDeleteProduct removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product deleted successfully", nil)
}
