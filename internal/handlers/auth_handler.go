package handlers

import (
	"log"
	"time"

	"luxe/internal/middleware"
	"luxe/internal/models"
	"luxe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for accounts, addresses and wishlists.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)

	protect := middleware.AuthRequired(h.authService)
	authRoutes.Get("/me", protect, h.HandleMe)
	authRoutes.Put("/profile", protect, h.HandleUpdateProfile)
	authRoutes.Put("/password", protect, h.HandleChangePassword)
	authRoutes.Post("/address", protect, h.HandleAddAddress)
	authRoutes.Delete("/address/:addressId", protect, h.HandleDeleteAddress)
	authRoutes.Put("/address/:addressId/default", protect, h.HandleSetDefaultAddress)
	authRoutes.Get("/wishlist", protect, h.HandleGetWishlist)
	authRoutes.Post("/wishlist/:productId", protect, h.HandleAddToWishlist)
	authRoutes.Delete("/wishlist/:productId", protect, h.HandleRemoveFromWishlist)
	authRoutes.Post("/logout", protect, h.HandleLogout)
}

func (h *AuthHandler) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Expires:  time.Now().Add(h.authService.TokenTTL()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Secure:   c.Protocol() == "https",
	})
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user, token, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		log.Printf("Error registering user %s: %v", req.Email, err)
		return err
	}

	h.setTokenCookie(c, token)
	return respond(c, fiber.StatusCreated, "Registration successful", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user, token, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for user %s: %v", req.Email, err)
		return err
	}

	h.setTokenCookie(c, token)
	return respond(c, fiber.StatusOK, "Login successful", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// HandleMe returns the authenticated user's profile.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{"user": user})
}

// HandleUpdateProfile updates name, phone or avatar.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req services.ProfileInput
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{"user": user})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,strongpassword"`
}

// HandleChangePassword replaces the password and issues a new token.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	token, err := h.authService.ChangePassword(c.UserContext(), middleware.CurrentUser(c).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}

	h.setTokenCookie(c, token)
	return respond(c, fiber.StatusOK, "Password changed successfully", fiber.Map{"token": token})
}

// HandleAddAddress saves a new address.
func (h *AuthHandler) HandleAddAddress(c *fiber.Ctx) error {
	var req services.AddressInput
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	user, err := h.authService.AddAddress(c.UserContext(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Address added successfully", fiber.Map{"addresses": user.Addresses})
}

// HandleDeleteAddress removes a saved address.
func (h *AuthHandler) HandleDeleteAddress(c *fiber.Ctx) error {
	user, err := h.authService.DeleteAddress(c.UserContext(), middleware.CurrentUser(c).ID, c.Params("addressId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Address deleted successfully", fiber.Map{"addresses": user.Addresses})
}

// HandleSetDefaultAddress marks one address as the default.
func (h *AuthHandler) HandleSetDefaultAddress(c *fiber.Ctx) error {
	user, err := h.authService.SetDefaultAddress(c.UserContext(), middleware.CurrentUser(c).ID, c.Params("addressId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Default address updated", fiber.Map{"addresses": user.Addresses})
}

// HandleGetWishlist returns the wishlisted products.
func (h *AuthHandler) HandleGetWishlist(c *fiber.Ctx) error {
	products, err := h.authService.Wishlist(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	if products == nil {
		products = []models.Product{}
	}
	return respond(c, fiber.StatusOK, "", fiber.Map{"products": products})
}

// HandleAddToWishlist adds a product to the wishlist.
func (h *AuthHandler) HandleAddToWishlist(c *fiber.Ctx) error {
	wishlist, err := h.authService.AddToWishlist(c.UserContext(), middleware.CurrentUser(c).ID, c.Params("productId"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Added to wishlist", fiber.Map{"wishlist": wishlist})
}

// HandleRemoveFromWishlist removes a product from the wishlist.
func (h *AuthHandler) HandleRemoveFromWishlist(c *fiber.Ctx) error {
	wishlist, err := h.authService.RemoveFromWishlist(c.UserContext(), middleware.CurrentUser(c).ID, c.Params("productId"))
	if err != nil {
		return err
	}
	if wishlist == nil {
		wishlist = []string{}
	}
	return respond(c, fiber.StatusOK, "Removed from wishlist", fiber.Map{"wishlist": wishlist})
}

// HandleLogout clears the token cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return respond(c, fiber.StatusOK, "Logged out successfully", nil)
}
