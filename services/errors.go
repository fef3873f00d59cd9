package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
)

// AppError carries a business outcome and the HTTP status it maps to.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Status() int {
	switch e.Kind {
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func Unauthenticated() *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: "authentication required"}
}

func Forbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func Invalid(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

// Unexpected logs the cause under tag and hides it from the caller.
func Unexpected(tag string, err error) *AppError {
	log.Printf("[%s] unexpected error: %v", tag, err)
	return &AppError{Kind: KindUnexpected, Message: "internal server error", Err: err}
}

// notFoundOr maps gorm.ErrRecordNotFound to a 404 and anything else to a 500.
func notFoundOr(tag, msg string, err error) *AppError {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(msg)
	}
	return Unexpected(tag, err)
}

// respond writes err as the {"error": ...} body.
func respond(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status()).JSON(fiber.Map{"error": appErr.Message})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	log.Printf("[HTTP] unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// ErrorHandler is installed as fiber.Config.ErrorHandler so middleware errors share the body shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respond(c, err)
}

func success(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}
