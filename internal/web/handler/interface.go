package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config) error
}
