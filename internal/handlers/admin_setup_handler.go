package handlers

import (
	"fmt"
	"log"

	"luxe/internal/models"
	"luxe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// SetupSecretHeader may carry the setup secret on the list endpoint.
const SetupSecretHeader = "X-Setup-Secret"

// AdminSetupHandler manages administrators with a shared setup secret
// instead of a JWT.
type AdminSetupHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAdminSetupHandler creates a new AdminSetupHandler.
func NewAdminSetupHandler(authService *services.AuthService) *AdminSetupHandler {
	return &AdminSetupHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the admin setup routes with the Fiber app.
func (h *AdminSetupHandler) RegisterRoutes(router fiber.Router) {
	setupRoutes := router.Group("/setup-admin")
	setupRoutes.Post("/", h.HandleSetupAdmin)
	setupRoutes.Get("/list", h.HandleListAdmins)
	setupRoutes.Post("/demote", h.HandleDemoteAdmin)
}

// adminView is the subset of a user returned by the setup endpoints.
func adminView(u *models.User) fiber.Map {
	return fiber.Map{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

// HandleSetupAdmin promotes an existing user or creates a new admin.
func (h *AdminSetupHandler) HandleSetupAdmin(c *fiber.Ctx) error {
	var req services.AdminSetupInput
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user, token, created, err := h.authService.SetupAdmin(c.UserContext(), req)
	if err != nil {
		log.Printf("Admin setup for %s rejected: %v", req.Email, err)
		return err
	}

	if !created {
		return respond(c, fiber.StatusOK, fmt.Sprintf("User %s has been upgraded to admin role", user.Email), adminView(user))
	}
	return respond(c, fiber.StatusCreated, "Admin user created successfully", fiber.Map{
		"user":  adminView(user),
		"token": token,
	})
}

// HandleListAdmins lists every administrator.
func (h *AdminSetupHandler) HandleListAdmins(c *fiber.Ctx) error {
	secret := c.Query("secretKey")
	if secret == "" {
		secret = c.Get(SetupSecretHeader)
	}

	admins, err := h.authService.ListAdmins(c.UserContext(), secret)
	if err != nil {
		return err
	}

	views := make([]fiber.Map, 0, len(admins))
	for i := range admins {
		views = append(views, adminView(&admins[i]))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(views),
		"data":    views,
	})
}

// DemoteRequest names the administrator to demote.
type DemoteRequest struct {
	Email     string `json:"email" validate:"required,email"`
	SecretKey string `json:"secretKey"`
}

// HandleDemoteAdmin turns an administrator back into a regular user.
func (h *AdminSetupHandler) HandleDemoteAdmin(c *fiber.Ctx) error {
	var req DemoteRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user, err := h.authService.DemoteAdmin(c.UserContext(), req.Email, req.SecretKey)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fmt.Sprintf("User %s has been demoted to regular user", user.Email), adminView(user))
}
