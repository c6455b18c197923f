package profile

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/platform/auth"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// Handler exposes patient profile endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the profile routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	anyRole := auth.RequireRole(auth.RoleDoctor, auth.RolePatient)
	doctor := auth.RequireRole(auth.RoleDoctor)

	g.POST("/patients/:patientId/profile", h.Create, anyRole)
	g.GET("/patients/:patientId/profile", h.Get, anyRole)
	g.PUT("/patients/:patientId/profile", h.Update, anyRole)
	g.POST("/patients/:patientId/history", h.AddHistoryItem, anyRole)
	g.GET("/patients/:patientId/history", h.ListHistory, anyRole)
	g.DELETE("/patients/:patientId/history/:itemId", h.RemoveHistoryItem, anyRole)
	g.POST("/doctors/me/patients/:patientId", h.LinkPatient, doctor)
	g.DELETE("/doctors/me/patients/:patientId", h.UnlinkPatient, doctor)
	g.GET("/doctors/me/patients", h.ListPatients, doctor)
}

type profileRequest struct {
	FullName           string   `json:"full_name"`
	DateOfBirth        string   `json:"date_of_birth"`
	Gender             string   `json:"gender"`
	ConsultationReason string   `json:"consultation_reason"`
	PastMedications    []string `json:"past_medications"`
}

type historyRequest struct {
	Complication string `json:"complication"`
	Description  string `json:"description"`
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := h.patientIDParam(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	dob, err := prescription.ParseDate(req.DateOfBirth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p := &PatientProfile{
		PatientID:          patientID,
		FullName:           req.FullName,
		DateOfBirth:        dob,
		Gender:             req.Gender,
		ConsultationReason: req.ConsultationReason,
		PastMedications:    req.PastMedications,
	}
	created, err := h.service.Create(c.Request().Context(), p)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	patientID, err := h.patientIDParam(c)
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	patientID, err := h.patientIDParam(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	dob, err := prescription.ParseDate(req.DateOfBirth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p := &PatientProfile{
		PatientID:          patientID,
		FullName:           req.FullName,
		DateOfBirth:        dob,
		Gender:             req.Gender,
		ConsultationReason: req.ConsultationReason,
		PastMedications:    req.PastMedications,
	}
	updated, err := h.service.Update(c.Request().Context(), p)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) AddHistoryItem(c echo.Context) error {
	patientID, err := h.patientIDParam(c)
	if err != nil {
		return err
	}
	var req historyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	item := &HistoryItem{
		PatientID:    patientID,
		Complication: req.Complication,
		Description:  req.Description,
	}
	created, err := h.service.AddHistoryItem(c.Request().Context(), item)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListHistory(c echo.Context) error {
	patientID, err := h.patientIDParam(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListHistory(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) RemoveHistoryItem(c echo.Context) error {
	patientID, err := h.patientIDParam(c)
	if err != nil {
		return err
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid history item id")
	}
	if err := h.service.RemoveHistoryItem(c.Request().Context(), patientID, itemID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) LinkPatient(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := h.service.LinkPatient(c.Request().Context(), doctorID, patientID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnlinkPatient(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := h.service.UnlinkPatient(c.Request().Context(), doctorID, patientID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatients(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	params := pagination.FromContext(c)
	profiles, total, err := h.service.ListPatients(c.Request().Context(), doctorID, params)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(profiles, total, params))
}

// patientIDParam parses the patient id and enforces access: patients touch
// only their own profile, doctors only profiles of patients they are linked
// to, admins anything.
func (h *Handler) patientIDParam(c echo.Context) (uuid.UUID, error) {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	ctx := c.Request().Context()
	callerID := auth.UserIDFromContext(ctx)
	roles := auth.RolesFromContext(ctx)

	for _, r := range roles {
		if r == auth.RoleAdmin {
			return patientID, nil
		}
	}
	if callerID == patientID.String() {
		return patientID, nil
	}
	for _, r := range roles {
		if r != auth.RoleDoctor {
			continue
		}
		doctorID, err := uuid.Parse(callerID)
		if err != nil {
			break
		}
		linked, err := h.service.Linked(ctx, doctorID, patientID)
		if err != nil {
			return uuid.Nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if linked {
			return patientID, nil
		}
	}
	return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "access denied")
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
