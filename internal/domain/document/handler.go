package document

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/serein-sante/serein-server/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/documents", h.CreateDocument)
	api.GET("/documents/:id", h.GetDocument)
	api.PATCH("/documents/:id", h.UpdateDocument)
	api.DELETE("/documents/:id", h.DeleteDocument)
	api.GET("/patients/:id/documents", h.ListByPatient)
}

func documentID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("identifiant de document invalide")
	}
	return id, nil
}

func (h *Handler) CreateDocument(c echo.Context) error {
	var in CreateDocumentInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	d, err := h.svc.CreateDocument(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDocument(c echo.Context) error {
	id, err := documentID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDocument(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDocument(c echo.Context) error {
	id, err := documentID(c)
	if err != nil {
		return err
	}
	var upd DocumentUpdate
	if err := c.Bind(&upd); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	d, err := h.svc.UpdateDocument(c.Request().Context(), id, &upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDocument(c echo.Context) error {
	id, err := documentID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDocument(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
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
