package rules

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
	"github.com/GoAD-Admin/GoAD-Admin/internal/db/controller/rule"
	"github.com/GoAD-Admin/GoAD-Admin/internal/db/models"
	mgmt "github.com/GoAD-Admin/GoAD-Admin/internal/management"
	"github.com/GoAD-Admin/GoAD-Admin/internal/web/handler"
	authmiddleware "github.com/GoAD-Admin/GoAD-Admin/internal/web/middleware/auth"
)

const (
	// Path is the path of the delegation rule administration endpoints.
	Path = handler.RootPath + "admin/rules"

	// GroupsPath lists every directory group for the rule editor.
	GroupsPath = handler.RootPath + "admin/groups"
)

// Service is the delegation rule admin handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	svc       *mgmt.Service
	validator *validator.Validate
}

// Handler is the delegation rule admin handler.
var Handler = Service{}

// ruleRequest is the create/update payload of a delegation rule.
type ruleRequest struct {
	AdminGroup    string   `json:"adminGroup" form:"adminGroup" validate:"required,max=256"`
	ManagedGroups []string `json:"managedGroups" form:"managedGroups" validate:"required,min=1,dive,required"`
}

// bulkDeleteRequest is the bulk delete payload.
type bulkDeleteRequest struct {
	IDs []uint64 `json:"ids" form:"ids"`
}

// ruleResponse is the JSON projection of a delegation rule.
type ruleResponse struct {
	ID            uint64   `json:"id"`
	AdminGroup    string   `json:"adminGroup"`
	ManagedGroups []string `json:"managedGroups"`
}

// Init initializes the delegation rule admin handler. All routes require the
// SuperAdmin role.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, svc *mgmt.Service) {
	if app == nil || cfg == nil || db == nil || svc == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.svc = svc
	s.validator = validator.New()

	app.Get(Path, authmiddleware.RequireSuperAdmin, s.GetAll)
	app.Post(Path, authmiddleware.RequireSuperAdmin, s.Create)
	app.Put(Path+"/:id", authmiddleware.RequireSuperAdmin, s.Update)
	app.Delete(Path+"/:id", authmiddleware.RequireSuperAdmin, s.Delete)
	app.Post(Path+"/delete", authmiddleware.RequireSuperAdmin, s.BulkDelete)
	app.Get(GroupsPath, authmiddleware.RequireSuperAdmin, s.GetGroups)
}

// GetAll lists every delegation rule ordered by admin group.
func (s *Service) GetAll(c *fiber.Ctx) error {
	rules, err := rule.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list delegation rules")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	response := make([]ruleResponse, 0, len(rules))
	for i := range rules {
		response = append(response, toRuleResponse(&rules[i]))
	}

	return c.JSON(response)
}

// Create creates a new delegation rule.
func (s *Service) Create(c *fiber.Ctx) error {
	request, err := s.parseRuleRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	created, err := rule.Create(s.db, request.AdminGroup, request.ManagedGroups)
	if err != nil {
		log.Error().Err(err).Str("adminGroup", request.AdminGroup).
			Msg("failed to create delegation rule")

		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	log.Info().Str("adminGroup", created.AdminGroup).Uint64("id", created.ID).
		Msg("delegation rule created")

	return c.Status(fiber.StatusCreated).JSON(toRuleResponse(created))
}

// Update replaces an existing delegation rule.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid rule id",
		})
	}

	request, err := s.parseRuleRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updated, err := rule.Update(s.db, id, request.AdminGroup, request.ManagedGroups)
	if err != nil {
		if errors.Is(err, rule.ErrRuleNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}

		log.Error().Err(err).Uint64("id", id).Msg("failed to update delegation rule")

		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(toRuleResponse(updated))
}

// Delete removes one delegation rule.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid rule id",
		})
	}

	if err := rule.Delete(s.db, id); err != nil {
		if errors.Is(err, rule.ErrRuleNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}

		log.Error().Err(err).Uint64("id", id).Msg("failed to delete delegation rule")

		return c.SendStatus(fiber.StatusInternalServerError)
	}

	log.Info().Uint64("id", id).Msg("delegation rule deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// BulkDelete removes all rules with the given IDs. Missing IDs are ignored.
func (s *Service) BulkDelete(c *fiber.Ctx) error {
	request := new(bulkDeleteRequest)

	if err := c.BodyParser(request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid form data",
		})
	}

	if err := rule.DeleteMany(s.db, request.IDs); err != nil {
		log.Error().Err(err).Msg("failed to bulk delete delegation rules")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	log.Info().Int("count", len(request.IDs)).Msg("delegation rules deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// GetGroups lists every directory group, for the rule editor dropdowns.
func (s *Service) GetGroups(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"groups": s.svc.AllGroupNames(),
	})
}

func (s *Service) parseRuleRequest(c *fiber.Ctx) (*ruleRequest, error) {
	request := new(ruleRequest)

	if err := c.BodyParser(request); err != nil {
		return nil, errors.New("invalid form data")
	}

	if err := s.validator.Struct(request); err != nil {
		return nil, errors.New("adminGroup and at least one managed group are required")
	}

	return request, nil
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

func toRuleResponse(r *models.DelegationRule) ruleResponse {
	return ruleResponse{
		ID:            r.ID,
		AdminGroup:    r.AdminGroup,
		ManagedGroups: r.ManagedGroupNames(),
	}
}
