package schedule

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/platform/auth"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/pkg/pagination"
)

// Handler exposes dose event and adherence endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the schedule routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	anyRole := auth.RequireRole(auth.RoleDoctor, auth.RolePatient)
	patient := auth.RequireRole(auth.RolePatient)
	admin := auth.RequireRole(auth.RoleAdmin)

	g.GET("/patients/:patientId/dose-events", h.List, anyRole)
	g.GET("/patients/:patientId/adherence", h.Adherence, anyRole)
	g.POST("/dose-events/:id/take", h.MarkTaken, patient)
	g.POST("/dose-events/:id/miss", h.MarkMissed, patient)
	g.POST("/dose-events/:id/skip", h.MarkSkipped, admin)
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := authorizePatient(c, patientID); err != nil {
		return err
	}
	w, err := windowFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	params := pagination.FromContext(c)
	events, total, err := h.service.ListByPatient(c.Request().Context(), patientID, w, params)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, params))
}

func (h *Handler) Adherence(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := authorizePatient(c, patientID); err != nil {
		return err
	}
	w, err := windowFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	summary, err := h.service.AdherenceSummary(c.Request().Context(), patientID, w)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) MarkTaken(c echo.Context) error {
	return h.mark(c, h.service.MarkTaken)
}

func (h *Handler) MarkMissed(c echo.Context) error {
	return h.mark(c, h.service.MarkMissed)
}

func (h *Handler) MarkSkipped(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dose event id")
	}
	e, err := h.service.MarkSkipped(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) mark(c echo.Context, fn func(ctx context.Context, id, callerID uuid.UUID) (*DoseEvent, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dose event id")
	}
	callerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	e, err := fn(c.Request().Context(), id, callerID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, e)
}

// windowFromQuery reads from/to query params, defaulting to the last 7 days.
func windowFromQuery(c echo.Context) (Window, error) {
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from == "" && to == "" {
		now := time.Now().UTC()
		return Window{From: now.AddDate(0, 0, -7), To: now}, nil
	}
	return ParseWindow(from, to)
}

func authorizePatient(c echo.Context, patientID uuid.UUID) error {
	ctx := c.Request().Context()
	if auth.HasRole(ctx, auth.RoleDoctor) {
		return nil
	}
	if auth.UserIDFromContext(ctx) != patientID.String() {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTerminalStatus):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
