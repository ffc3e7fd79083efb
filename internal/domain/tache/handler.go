package tache

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/serein-sante/serein-server/internal/platform/apperr"
	"github.com/serein-sante/serein-server/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/taches", h.CreateTache)
	api.GET("/taches", h.ListByProfessionnel)
	api.GET("/taches/:id", h.GetTache)
	api.PATCH("/taches/:id", h.UpdateTache)
	api.DELETE("/taches/:id", h.DeleteTache)
	api.GET("/patients/:id/taches", h.ListByPatient)
}

func tacheID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("identifiant de tâche invalide")
	}
	return id, nil
}

func (h *Handler) CreateTache(c echo.Context) error {
	var in CreateTacheInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	t, err := h.svc.CreateTache(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTache(c echo.Context) error {
	id, err := tacheID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTache(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTache(c echo.Context) error {
	id, err := tacheID(c)
	if err != nil {
		return err
	}
	var upd TacheUpdate
	if err := c.Bind(&upd); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	t, err := h.svc.UpdateTache(c.Request().Context(), id, &upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTache(c echo.Context) error {
	id, err := tacheID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTache(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByProfessionnel(c echo.Context) error {
	params := pagination.FromContext(c)
	items, total, err := h.svc.ListByProfessionnel(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("identifiant de patient invalide")
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}
