package patient

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
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients", h.ListPatients)
	api.POST("/patients/recherche", h.SearchPatientByInfo)
	api.GET("/patients/moi", h.GetMyDossier)
	api.GET("/patients/:id", h.GetPatientByID)
	api.PATCH("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)
	api.POST("/patients/liens", h.AddPatientToProfessionnel)
	api.DELETE("/patients/:id/lien", h.RemovePatientFromProfessionnel)
}

func patientID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("identifiant de patient invalide")
	}
	return id, nil
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var in CreatePatientInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	d, err := h.svc.CreatePatient(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListPatients(c echo.Context) error {
	params := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) SearchPatientByInfo(c echo.Context) error {
	var in SearchCriteriaInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	items, err := h.svc.SearchPatientByInfo(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetMyDossier(c echo.Context) error {
	d, err := h.svc.GetMyDossier(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetPatientByID(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetPatientByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	var upd PatientUpdate
	if err := c.Bind(&upd); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	d, err := h.svc.UpdatePatient(c.Request().Context(), id, &upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type addPatientRequest struct {
	NumeroDossier string `json:"numero_dossier"`
}

func (h *Handler) AddPatientToProfessionnel(c echo.Context) error {
	var req addPatientRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("corps de requête invalide")
	}
	lien, err := h.svc.AddPatientToProfessionnel(c.Request().Context(), req.NumeroDossier)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lien)
}

func (h *Handler) RemovePatientFromProfessionnel(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	result, err := h.svc.RemovePatientFromProfessionnel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
