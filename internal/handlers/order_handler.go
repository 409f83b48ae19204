package handlers

import (
	"fmt"
	"log"

	"luxe/internal/middleware"
	"luxe/internal/models"
	"luxe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service     *services.OrderService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, authService *services.AuthService) *OrderHandler {
	return &OrderHandler{
		service:     service,
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. Every order
// route requires a logged-in user.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders", middleware.AuthRequired(h.authService))
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/admin/all", middleware.AdminOnly(), h.HandleGetAllOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Put("/:id/status", middleware.AdminOnly(), h.HandleUpdateOrderStatus)
}

// HandleCreateOrder places an order for the current user.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req models.CheckoutRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	order, err := h.service.PlaceOrder(c.UserContext(), user.ID, req)
	if err != nil {
		log.Printf("Error creating order for user %s: %v", user.ID, err)
		return err
	}
	return respond(c, fiber.StatusCreated, "Order placed successfully", fiber.Map{"order": order})
}

// HandleGetMyOrders lists the current user's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListUserOrders(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{
		"orders": orders,
		"count":  len(orders),
	})
}

// HandleGetAllOrders is the admin listing with status filter and pagination.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, pagination, err := h.service.ListOrders(
		c.UserContext(),
		models.OrderStatus(c.Query("status")),
		c.QueryInt("page", 1),
		c.QueryInt("limit", 20),
	)
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{
		"orders":     orders,
		"pagination": pagination,
	})
}

// HandleGetOrderByID retrieves a single order visible to the current user.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(c.UserContext(), orderID, middleware.CurrentUser(c))
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return err
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{"order": order})
}

// HandleCancelOrder cancels one of the current user's orders.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.CancelOrder(c.UserContext(), orderID, middleware.CurrentUser(c).ID)
	if err != nil {
		log.Printf("Error cancelling order %s: %v", orderID, err)
		return err
	}
	return respond(c, fiber.StatusOK, "Order cancelled successfully", fiber.Map{"order": order})
}

// UpdateStatusRequest is the admin payload for a status change.
type UpdateStatusRequest struct {
	OrderStatus    models.OrderStatus `json:"orderStatus" validate:"required"`
	TrackingNumber string             `json:"trackingNumber" validate:"max=100"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req UpdateStatusRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), orderID, req.OrderStatus, req.TrackingNumber)
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		return err
	}
	return respond(c, fiber.StatusOK, fmt.Sprintf("Order status updated to %s", order.OrderStatus), fiber.Map{"order": order})
}
