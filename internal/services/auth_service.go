package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"strings"
	"time"

	"luxe/internal/apperror"
	"luxe/internal/models"
	"luxe/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,strongpassword"`
	Phone    string `json:"phone" validate:"omitempty,numeric,len=10"`
}

// ProfileInput updates the editable profile fields.
type ProfileInput struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=50"`
	Phone  *string `json:"phone" validate:"omitempty,numeric,len=10"`
	Avatar *string `json:"avatar" validate:"omitempty,url"`
}

// AddressInput is a new saved address.
type AddressInput struct {
	Name      string `json:"name" validate:"required,max=50"`
	Phone     string `json:"phone" validate:"required,numeric,len=10"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Pincode   string `json:"pincode" validate:"required,numeric,len=6"`
	IsDefault bool   `json:"isDefault"`
}

// AdminSetupInput promotes or creates an administrator.
type AdminSetupInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"omitempty,min=6"`
	Name      string `json:"name" validate:"omitempty,min=2,max=50"`
	SecretKey string `json:"secretKey"`
}

// AuthService handles accounts, credentials and tokens.
type AuthService struct {
	userRepo    repositories.UserRepository
	productRepo repositories.ProductRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
	setupSecret string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, productRepo repositories.ProductRepository, jwtSecret string, tokenTTL time.Duration, setupSecret string) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		userRepo:    userRepo,
		productRepo: productRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		setupSecret: setupSecret,
	}
}

// TokenTTL is the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a user account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", apperror.Conflict("User with this email already exists")
	} else if !apperror.Is(err, apperror.KindNotFound) {
		return nil, "", err
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hashed,
		Phone:    in.Phone,
		Role:     models.RoleUser,
		Wishlist: []string{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	log.Printf("User %s registered", user.Email)
	return user, token, nil
}

// Login checks credentials and returns the user with a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, "", apperror.Auth("Invalid email or password")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperror.Auth("Invalid email or password")
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GenerateToken signs a token carrying the user's id, email and role.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		log.Printf("Token validation error: %v", err)
		return nil, apperror.Auth("Not authorized, token failed")
	}
	if claims.UserID == "" {
		return nil, apperror.Auth("Not authorized, token failed")
	}
	return claims, nil
}

// Me returns the current user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes the name, phone or avatar.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword re-hashes the password and returns a new token.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return "", apperror.Validation("Current password is incorrect")
	}
	hashed, err := hashPassword(next)
	if err != nil {
		return "", err
	}
	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}
	return s.GenerateToken(user)
}

// AddAddress saves a new address. The first address, or one flagged as
// default, becomes the only default.
func (s *AuthService) AddAddress(ctx context.Context, userID string, in AddressInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AddAddress(models.Address{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Phone:     in.Phone,
		Street:    in.Street,
		City:      in.City,
		State:     in.State,
		Pincode:   in.Pincode,
		IsDefault: in.IsDefault,
	})
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAddress removes one saved address.
func (s *AuthService) DeleteAddress(ctx context.Context, userID, addressID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.RemoveAddress(addressID) {
		return nil, apperror.NotFound("Address not found")
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetDefaultAddress makes addressID the only default address.
func (s *AuthService) SetDefaultAddress(ctx context.Context, userID, addressID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.SetDefaultAddress(addressID) {
		return nil, apperror.NotFound("Address not found")
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Wishlist returns the wishlisted products that still exist.
func (s *AuthService) Wishlist(ctx context.Context, userID string) ([]models.Product, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(user.Wishlist))
	for _, id := range user.Wishlist {
		p, err := s.productRepo.GetByID(ctx, id)
		if apperror.Is(err, apperror.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// AddToWishlist adds an existing product to the wishlist. Adding twice is a no-op.
func (s *AuthService) AddToWishlist(ctx context.Context, userID, productID string) ([]string, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AddToWishlist(productID) {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user.Wishlist, nil
}

// RemoveFromWishlist drops productID from the wishlist.
func (s *AuthService) RemoveFromWishlist(ctx context.Context, userID, productID string) ([]string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.RemoveFromWishlist(productID) {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	if user.Wishlist == nil {
		user.Wishlist = []string{}
	}
	return user.Wishlist, nil
}

func (s *AuthService) checkSetupSecret(key string) error {
	if s.setupSecret == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.setupSecret)) != 1 {
		return apperror.Forbidden("Invalid secret key. Admin setup not authorized.")
	}
	return nil
}

// SetupAdmin upgrades an existing account to admin, or creates a new admin
// account when none exists for the email. created reports which happened;
// a token is only issued for a new account.
func (s *AuthService) SetupAdmin(ctx context.Context, in AdminSetupInput) (user *models.User, token string, created bool, err error) {
	if err := s.checkSetupSecret(in.SecretKey); err != nil {
		return nil, "", false, err
	}
	email := normalizeEmail(in.Email)

	user, err = s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		user.Role = models.RoleAdmin
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, "", false, err
		}
		log.Printf("User %s upgraded to admin", email)
		return user, "", false, nil
	case !apperror.Is(err, apperror.KindNotFound):
		return nil, "", false, err
	}

	if in.Password == "" || in.Name == "" {
		return nil, "", false, apperror.Validation("Name and password are required to create a new admin")
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", false, err
	}
	user = &models.User{
		Name:            strings.TrimSpace(in.Name),
		Email:           email,
		Password:        hashed,
		Role:            models.RoleAdmin,
		IsEmailVerified: true,
		Wishlist:        []string{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", false, err
	}
	token, err = s.GenerateToken(user)
	if err != nil {
		return nil, "", false, err
	}
	log.Printf("Admin %s created", email)
	return user, token, true, nil
}

// ListAdmins returns every admin account.
func (s *AuthService) ListAdmins(ctx context.Context, secretKey string) ([]models.User, error) {
	if err := s.checkSetupSecret(secretKey); err != nil {
		return nil, err
	}
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}

// DemoteAdmin turns an admin back into a regular user.
func (s *AuthService) DemoteAdmin(ctx context.Context, email, secretKey string) (*models.User, error) {
	if err := s.checkSetupSecret(secretKey); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	user.Role = models.RoleUser
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("User %s demoted to user", user.Email)
	return user, nil
}
