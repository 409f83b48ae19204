package handlers

import (
	"errors"
	"fmt"
	"log"
	"regexp"

	"luxe/internal/apperror"
	"luxe/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ValidationErrors carries per-field messages for a rejected request body.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	return "Validation failed"
}

var (
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// mustRegister adds a custom tag to v and panics if validator rejects it.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register validation tag %q: %v", tag, err))
	}
}

// newValidator returns a validator with the storefront's custom tags.
func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return hasLower.MatchString(s) && hasUpper.MatchString(s) && hasDigit.MatchString(s)
	})
	mustRegister(v, "productsize", func(fl validator.FieldLevel) bool {
		return models.IsAllowedSize(fl.Field().String())
	})
	return v
}

// parseBody decodes the request body into out and validates it.
func parseBody(c *fiber.Ctx, validate *validator.Validate, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		log.Printf("Error parsing request body for %s: %v", c.Path(), err)
		return apperror.Validation("Invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		errorMessages := make(ValidationErrors)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return errorMessages
	}
	return nil
}

// respond writes a success envelope. Empty message and nil data are omitted.
func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindInsufficientStock, apperror.KindInvalidState:
		return fiber.StatusBadRequest
	case apperror.KindAuth:
		return fiber.StatusUnauthorized
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler or middleware as
// the failure envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fieldErrors ValidationErrors
	if errors.As(err, &fieldErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  fieldErrors,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		message := fiberErr.Message
		if fiberErr.Code == fiber.StatusNotFound {
			message = fmt.Sprintf("Not Found - %s", c.OriginalURL())
		}
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}

	kind := apperror.KindOf(err)
	if kind == apperror.KindUnknown {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
			"error":   err.Error(),
		})
	}
	if kind == apperror.KindUnavailable {
		log.Printf("Dependency unavailable on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(statusFor(kind)).JSON(fiber.Map{
		"success": false,
		"message": apperror.MessageOf(err),
	})
}
