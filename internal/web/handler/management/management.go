package management

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
	mgmt "github.com/GoAD-Admin/GoAD-Admin/internal/management"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web/handler"
	authmiddleware "github.com/GoAD-Admin/GoAD-Admin/internal/web/middleware/auth"
)

const (
	// UsersPath is the path of the managed user listing.
	UsersPath = handler.RootPath + "management/users"

	// ResetPath is the path of the password reset endpoint.
	ResetPath = handler.RootPath + "management/reset"
)

// Service is the management handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	svc       *mgmt.Service
	validator *validator.Validate
}

// Handler is the management handler.
var Handler = Service{}

// userResponse is the JSON projection of a managed user.
type userResponse struct {
	SamAccountName         string     `json:"samAccountName"`
	DisplayName            string     `json:"displayName"`
	Email                  string     `json:"email"`
	PasswordNeverExpires   bool       `json:"passwordNeverExpires"`
	PasswordChangeRequired bool       `json:"passwordChangeRequired"`
	PasswordExpiresAt      *time.Time `json:"passwordExpiresAt"`
}

// resetRequest is the password reset payload.
type resetRequest struct {
	Username             string `json:"username" form:"username" validate:"required"`
	NewPassword          string `json:"newPassword" form:"newPassword" validate:"required,min=8,max=100,adcomplexity"`
	ConfirmPassword      string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=NewPassword"`
	PasswordNeverExpires bool   `json:"passwordNeverExpires" form:"passwordNeverExpires"`
	RequireChangeAtLogon bool   `json:"requireChangeAtLogon" form:"requireChangeAtLogon"`
}

// Init initializes the management handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, svc *mgmt.Service) {
	if app == nil || cfg == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.svc = svc
	s.validator = validator.New()

	if err := s.validator.RegisterValidation("adcomplexity", validateComplexity); err != nil {
		log.Fatal().Err(err).Msg("failed to register password complexity validation")
		return
	}

	app.Get(UsersPath, s.GetUsers)
	app.Get(UsersPath+"/:username", s.GetUserStatus)
	app.Post(ResetPath, s.PostReset)
}

// GetUsers lists the users the authenticated administrator may manage,
// optionally narrowed to one managed group and filtered by a search term.
func (s *Service) GetUsers(c *fiber.Ctx) error {
	sessData := authmiddleware.SessionData(c)
	if sessData == nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	managedGroups := s.svc.ManagedGroupNames(sessData.Username)
	users := s.svc.ManagedUsers(managedGroups, c.Query("group"), c.Query("search"))

	response := make([]userResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}

	return c.JSON(fiber.Map{
		"managedGroups": managedGroups,
		"users":         response,
	})
}

// GetUserStatus returns the directory state of one managed user, used to
// prefill the reset form.
func (s *Service) GetUserStatus(c *fiber.Ctx) error {
	sessData := authmiddleware.SessionData(c)
	if sessData == nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	username := c.Params("username")

	if !s.canManage(sessData.Username, username) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "user is not within your managed groups",
		})
	}

	user := s.svc.UserStatus(username)
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	return c.JSON(toUserResponse(*user))
}

// PostReset resets the password of a managed user.
func (s *Service) PostReset(c *fiber.Ctx) error {
	sessData := authmiddleware.SessionData(c)
	if sessData == nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	request := new(resetRequest)

	if err := c.BodyParser(request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid form data",
		})
	}

	if errorMessages := s.validateReset(request); len(errorMessages) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": errorMessages,
		})
	}

	if !s.canManage(sessData.Username, request.Username) {
		log.Warn().Str("admin", sessData.Username).Str("target", request.Username).
			Msg("password reset outside managed groups rejected")

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "user is not within your managed groups",
		})
	}

	ok := s.svc.ResetPassword(
		request.Username,
		request.NewPassword,
		request.PasswordNeverExpires,
		request.RequireChangeAtLogon,
	)
	if !ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "password reset failed",
		})
	}

	return c.JSON(fiber.Map{"status": "password reset"})
}

// validateReset validates the reset payload and returns one message per
// failed field.
func (s *Service) validateReset(request *resetRequest) []string {
	err := s.validator.Struct(request)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{"invalid payload"}
	}

	errorMessages := make([]string, len(validationErrors))
	for i, ve := range validationErrors {
		errorMessages[i] = "Field '" + ve.Field() + "' failed validation tag '" + ve.Tag() + "'"
	}

	return errorMessages
}

// canManage reports whether the target user is reachable through the
// administrator's managed groups. The catalog is the authorization boundary,
// a user outside it never appears there.
func (s *Service) canManage(admin, target string) bool {
	managedGroups := s.svc.ManagedGroupNames(admin)

	for _, u := range s.svc.ManagedUsers(managedGroups, "", "") {
		if strings.EqualFold(u.SamAccountName, target) {
			return true
		}
	}

	return false
}

func toUserResponse(u directory.User) userResponse {
	return userResponse{
		SamAccountName:         u.SamAccountName,
		DisplayName:            u.DisplayName,
		Email:                  u.Email,
		PasswordNeverExpires:   u.PasswordNeverExpires,
		PasswordChangeRequired: u.PasswordChangeRequired,
		PasswordExpiresAt:      u.PasswordExpiresAt,
	}
}
