package notification

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
	api.POST("/notifications", h.CreateNotification)
	api.GET("/notifications", h.ListMine)
	api.GET("/notifications/non-lues/compte", h.CountUnread)
	api.PUT("/notifications/:id/lue", h.MarkAsRead)
	api.PUT("/notifications/lues", h.MarkAllAsRead)
}

func (h *Handler) CreateNotification(c echo.Context) error {
	var in CreateNotificationInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	n, err := h.svc.CreateNotification(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListMine(c echo.Context) error {
	items, err := h.svc.ListMine(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CountUnread(c echo.Context) error {
	n, err := h.svc.CountUnread(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"non_lues": n})
}

func (h *Handler) MarkAsRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("identifiant de notification invalide")
	}
	if err := h.svc.MarkAsRead(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkAllAsRead(c echo.Context) error {
	n, err := h.svc.MarkAllAsRead(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"marquees": n})
}
