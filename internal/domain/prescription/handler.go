package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/platform/auth"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// Handler exposes prescription endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the prescription routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	doctor := auth.RequireRole(auth.RoleDoctor)
	anyRole := auth.RequireRole(auth.RoleDoctor, auth.RolePatient)

	g.POST("/prescriptions", h.Create, doctor)
	g.GET("/prescriptions/:id", h.Get, anyRole)
	g.PATCH("/prescriptions/:id", h.Update, doctor)
	g.DELETE("/prescriptions/:id", h.Delete, doctor)
	g.POST("/prescriptions/:id/medications", h.AddMedication, doctor)
	g.DELETE("/prescriptions/:id/medications/:medId", h.RemoveMedication, doctor)
	g.POST("/prescriptions/:id/finalize", h.Finalize, doctor)
	g.POST("/prescriptions/:id/cancel", h.Cancel, doctor)
	g.POST("/prescriptions/:id/complete", h.Complete, doctor)
	g.GET("/patients/:patientId/prescriptions", h.ListByPatient, anyRole)
	g.GET("/doctors/me/prescriptions", h.ListMine, doctor)
}

type createRequest struct {
	PatientID string `json:"patient_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

type updateRequest struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Notes     *string `json:"notes"`
}

type medicationRequest struct {
	DrugName     string   `json:"drug_name"`
	Dosage       string   `json:"dosage"`
	Frequency    string   `json:"frequency"`
	Timing       []string `json:"timing"`
	Instructions string   `json:"instructions"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	start, err := ParseDate(req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	end, err := ParseDate(req.EndDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p := &Prescription{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartDate: start,
		EndDate:   end,
		Notes:     req.Notes,
	}
	created, err := h.service.CreateDraft(c.Request().Context(), p)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	p, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	if err := h.authorizeRead(c, p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.service.UpdateDraft(c.Request().Context(), id, req.StartDate, req.EndDate, req.Notes)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddMedication(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	var req medicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	timing := make([]Slot, len(req.Timing))
	for i, s := range req.Timing {
		timing[i] = Slot(s)
	}
	m := &Medication{
		DrugName:     req.DrugName,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		Timing:       timing,
		Instructions: req.Instructions,
	}
	created, err := h.service.AddMedication(c.Request().Context(), id, m)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) RemoveMedication(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	medID, err := uuid.Parse(c.Param("medId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medication id")
	}
	if err := h.service.RemoveMedication(c.Request().Context(), id, medID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	p, created, err := h.service.Finalize(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"prescription":        p,
		"dose_events_created": created,
	})
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	p, err := h.service.Cancel(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	p, err := h.service.Complete(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	ctx := c.Request().Context()
	// Patients may only list their own prescriptions.
	if !auth.HasRole(ctx, auth.RoleDoctor) && auth.UserIDFromContext(ctx) != patientID.String() {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	params := pagination.FromContext(c)
	results, total, err := h.service.ListByPatient(ctx, patientID, params)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(results, total, params))
}

func (h *Handler) ListMine(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	params := pagination.FromContext(c)
	results, total, err := h.service.ListByDoctor(c.Request().Context(), doctorID, params)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(results, total, params))
}

// authorizeRead rejects patients reading prescriptions that are not theirs.
func (h *Handler) authorizeRead(c echo.Context, p *Prescription) error {
	ctx := c.Request().Context()
	if auth.HasRole(ctx, auth.RoleDoctor) {
		return nil
	}
	if auth.UserIDFromContext(ctx) != p.PatientID.String() {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrEmptySchedule):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
