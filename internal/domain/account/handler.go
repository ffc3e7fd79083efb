package account

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
	api.GET("/me", h.GetMe)
	api.PUT("/me/type", h.SetUserType)
	api.POST("/professionnels", h.CreateProfessionnel)
	api.POST("/particuliers", h.CreateParticulier)
}

func (h *Handler) GetMe(c echo.Context) error {
	me, err := h.svc.GetMe(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, me)
}

type setUserTypeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) SetUserType(c echo.Context) error {
	var req setUserTypeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	if err := h.svc.SetUserType(c.Request().Context(), req.Type); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateProfessionnel(c echo.Context) error {
	var p Professionnel
	if err := c.Bind(&p); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	if err := h.svc.CreateProfessionnel(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

type createParticulierRequest struct {
	UserID    string `json:"user_id"`
	PatientID string `json:"patient_id"`
}

func (h *Handler) CreateParticulier(c echo.Context) error {
	var req createParticulierRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	if req.UserID == "" {
		return apperr.Validation("user_id est obligatoire")
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return apperr.Validation("patient_id invalide")
	}

	p, err := h.svc.CreateParticulier(c.Request().Context(), req.UserID, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}
