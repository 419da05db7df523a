package http

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"luchess/internal/server/core"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = newValidator()

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,40}$`)

// newValidator adds the board vocabulary: "square" for "a1".."h8" and
// "piece" for two-letter tokens like "wq". Accounts get "username" and
// "password".
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("square", func(fl validator.FieldLevel) bool {
		_, err := core.ParseSquare(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("piece", func(fl validator.FieldLevel) bool {
		_, err := core.ParsePiece(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	return v
}

// strongPassword wants 8 to 128 bytes with at least one letter and one digit
func strongPassword(pw string) bool {
	if len(pw) < 8 || len(pw) > 128 {
		return false
	}
	letter := strings.IndexFunc(pw, unicode.IsLetter) >= 0
	digit := strings.IndexFunc(pw, unicode.IsDigit) >= 0
	return letter && digit
}

// parseBody fills target from a JSON body and validates it. An empty body
// leaves target at its zero value.
func parseBody(c *fiber.Ctx, target any) *core.ErrorResponse {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(target); err != nil {
			return &core.ErrorResponse{
				Error:   "invalid request body",
				Code:    core.ErrInvalidRequest,
				Details: err.Error(),
			}
		}
	}
	if errs := validate.Struct(target); errs != nil {
		return &core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.ErrInvalidRequest,
			Details: describeValidation(errs),
		}
	}
	return nil
}

// validationMiddleware parses and validates POST bodies by route, leaving the
// result in Locals("validatedBody")
func validationMiddleware(c *fiber.Ctx) error {
	// Skip validation for GET, DELETE, OPTIONS
	method := c.Method()
	if method == fiber.MethodGet || method == fiber.MethodDelete || method == fiber.MethodOptions {
		return c.Next()
	}

	// Determine request type based on path
	path := c.Path()
	var requestType any

	switch {
	case strings.HasSuffix(path, "/games") && method == fiber.MethodPost:
		requestType = &core.CreateGameRequest{}
	case strings.HasSuffix(path, "/moves") && method == fiber.MethodPost:
		requestType = &core.MoveRequest{}
	case strings.HasSuffix(path, "/promotion") && method == fiber.MethodPost:
		requestType = &core.PromotionRequest{}
	case strings.HasSuffix(path, "/undo") && method == fiber.MethodPost:
		requestType = &core.UndoRequest{}
	case strings.HasSuffix(path, "/redo") && method == fiber.MethodPost:
		requestType = &core.RedoRequest{}
	default:
		return c.Next() // No validation for unknown endpoints
	}

	if errResp := parseBody(c, requestType); errResp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errResp)
	}

	// Store validated body for handler use
	c.Locals("validatedBody", requestType)
	c.Locals("validated", true)

	return c.Next()
}

func describeValidation(errs error) string {
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		return errs.Error()
	}

	var details strings.Builder
	for _, err := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Field()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param()))
		case "square":
			details.WriteString(fmt.Sprintf("%s must be a square a1-h8", err.Field()))
		case "piece":
			details.WriteString(fmt.Sprintf("%s must be a piece token like wq", err.Field()))
		case "username":
			details.WriteString(fmt.Sprintf("%s must be 1-40 letters, digits or underscores", err.Field()))
		case "password":
			details.WriteString(fmt.Sprintf("%s needs 8-128 characters with a letter and a digit", err.Field()))
		case "email":
			details.WriteString(fmt.Sprintf("%s must be an email address", err.Field()))
		case "min":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
			}
		case "max":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", err.Field(), err.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
		}
	}
	return details.String()
}

// validatedRequest returns the body stored by validationMiddleware
func validatedRequest[T any](c *fiber.Ctx) (T, bool) {
	var zero T
	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		return zero, false
	}
	req, ok := c.Locals("validatedBody").(*T)
	if !ok || req == nil {
		return zero, false
	}
	return *req, true
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
