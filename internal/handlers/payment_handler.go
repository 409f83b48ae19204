package handlers

import (
	"log"

	"luxe/internal/middleware"
	"luxe/internal/models"
	"luxe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SignatureHeader carries the HMAC of a gateway webhook body.
const SignatureHeader = "X-Razorpay-Signature"

// PaymentHandler handles HTTP requests for online payments.
type PaymentHandler struct {
	service     *services.PaymentService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService, authService *services.AuthService) *PaymentHandler {
	return &PaymentHandler{
		service:     service,
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the payment routes with the Fiber app. The
// webhook is public; it is authenticated by its signature.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	protect := middleware.AuthRequired(h.authService)

	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/create-order", protect, h.HandleCreatePaymentOrder)
	paymentRoutes.Post("/verify", protect, h.HandleVerifyPayment)
	paymentRoutes.Get("/:paymentId/status", protect, h.HandleGetPaymentStatus)
	paymentRoutes.Post("/webhook", h.HandleWebhook)

	router.Post("/payment/create-order", protect, h.HandleCreateGatewayOrder)
}

// HandleCreatePaymentOrder starts a checkout. Cash on delivery places the
// order at once; online methods return the gateway order to pay.
func (h *PaymentHandler) HandleCreatePaymentOrder(c *fiber.Ctx) error {
	var req models.CheckoutRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	result, err := h.service.CreatePaymentOrder(c.UserContext(), user.ID, req)
	if err != nil {
		log.Printf("Error creating payment order for user %s: %v", user.ID, err)
		return err
	}

	if result.Order != nil {
		return respond(c, fiber.StatusCreated, "Order placed successfully (Cash on Delivery)", fiber.Map{
			"order":         result.Order,
			"paymentMethod": result.PaymentMethod,
		})
	}
	return respond(c, fiber.StatusOK, "Payment order created", result)
}

// VerifyPaymentRequest is the checkout callback sent by the client.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// HandleVerifyPayment verifies the checkout signature and creates the order.
func (h *PaymentHandler) HandleVerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	order, err := h.service.VerifyPayment(c.UserContext(), middleware.CurrentUser(c).ID,
		req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		log.Printf("Error verifying payment %s: %v", req.RazorpayPaymentID, err)
		return err
	}
	return respond(c, fiber.StatusCreated, "Payment verified and order created successfully", fiber.Map{
		"order":     order,
		"paymentId": req.RazorpayPaymentID,
	})
}

// HandleWebhook applies a gateway event. The signature covers the raw body.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	if err := h.service.HandleWebhook(c.UserContext(), c.Body(), c.Get(SignatureHeader)); err != nil {
		log.Printf("Webhook error: %v", err)
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"received": true,
	})
}

// HandleGetPaymentStatus returns the gateway status of a payment.
func (h *PaymentHandler) HandleGetPaymentStatus(c *fiber.Ctx) error {
	info, err := h.service.PaymentStatus(c.UserContext(), c.Params("paymentId"))
	if err != nil {
		log.Printf("Error fetching payment status %s: %v", c.Params("paymentId"), err)
		return err
	}
	return respond(c, fiber.StatusOK, "", info)
}

// CreateGatewayOrderRequest asks for a bare gateway order.
type CreateGatewayOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// HandleCreateGatewayOrder creates a gateway order for a raw amount.
func (h *PaymentHandler) HandleCreateGatewayOrder(c *fiber.Ctx) error {
	var req CreateGatewayOrderRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	order, err := h.service.CreateGatewayOrder(c.UserContext(), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}
