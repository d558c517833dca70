// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/flowstate/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	definitionService *services.Definition
	instanceService   *services.Instance
	validator         *validator.Validate
}

func NewAPIHandlers(
	definitionService *services.Definition,
	instanceService *services.Instance,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		definitionService: definitionService,
		instanceService:   instanceService,
		validator:         validator,
	}
}

func (h *APIHandlers) CreateDefinition(c fiber.Ctx) error {
	var req CreateDefinitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.definitionService.Create(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetDefinitions(c fiber.Ctx) error {
	definitions, err := h.definitionService.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(definitions)
}

func (h *APIHandlers) GetDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Definition ID is required")
	}

	def, err := h.definitionService.FetchByID(c.Context(), id)
	if err != nil {
		if services.IsNotFound(err) {
			return notFound(c, "Workflow definition not found")
		}

		return internalError(c, err)
	}

	return c.JSON(def)
}

func (h *APIHandlers) CreateInstance(c fiber.Ctx) error {
	var req CreateInstanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	instance, err := h.instanceService.Create(c.Context(), req.DefinitionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(instance)
}

func (h *APIHandlers) GetInstances(c fiber.Ctx) error {
	instances, err := h.instanceService.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(instances)
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.instanceService.FetchByID(c.Context(), id)
	if err != nil {
		if services.IsNotFound(err) {
			return notFound(c, "Workflow instance not found")
		}

		return internalError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) GetInstanceHistory(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.instanceService.FetchByID(c.Context(), id)
	if err != nil {
		if services.IsNotFound(err) {
			return notFound(c, "Workflow instance not found")
		}

		return internalError(c, err)
	}

	return c.JSON(instance.History)
}

func (h *APIHandlers) GetInstanceActions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	actions, err := h.instanceService.AvailableActions(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(actions)
}

func (h *APIHandlers) ExecuteAction(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	actionID := c.Params("actionId")
	if actionID == "" {
		return badRequest(c, "Action ID is required")
	}

	instance, err := h.instanceService.ExecuteAction(c.Context(), id, actionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.definitionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowstate API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Flowstate API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
