package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoAD-Admin/GoAD-Admin/internal/auth"
	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web/handler"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = "/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	authService *auth.Service
}

// Handler is the login handler.
var Handler = Service{}

// credentials is the login request payload.
type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, authService *auth.Service) error {
	if app == nil || cfg == nil || authService == nil {
		return errors.New("app, cfg or authService is nil")
	}

	s.cfg = cfg
	s.authService = authService

	app.Post(Path, s.Post)

	return nil
}

// Post handles the login request. On success the privilege level is computed
// from live directory state and written into a fresh session.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(credentials)

	if err := c.BodyParser(creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidFormData.Error(),
		})
	}

	if creds.Username == "" || creds.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidFormData.Error(),
		})
	}

	if !s.authService.IsValid(creds.Username, creds.Password) {
		log.Info().Str("user", creds.Username).Msg("login rejected")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": ErrInvalidCredentials.Error(),
		})
	}

	// compute the role first, then write the session in one step
	role := s.authService.ComputePrivilege(creds.Username)

	sessionID := session.GenerateSessionID()

	userSession := &session.Data{
		Username: creds.Username,
		Role:     role,
	}

	if err := userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": ErrInternalServerError.Error(),
		})
	}

	cookieSettings := &fiber.Cookie{
		Name:     handler.SessionCookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Str("user", creds.Username).Str("role", string(role)).Msg("login succeeded")

	return c.JSON(fiber.Map{
		"username": creds.Username,
		"role":     role,
	})
}
