package safetycheck

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/profile"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/platform/auth"
)

// Handler exposes safety check endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the safety check routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	doctor := auth.RequireRole(auth.RoleDoctor)

	g.POST("/run-safety-check", h.Run, doctor)
	g.POST("/prescriptions/:id/safety-check", h.CheckPrescription, doctor)
}

type wireResponse struct {
	OverallAssessment string `json:"overall_assessment"`
	Flags             []Flag `json:"flags"`
}

// Run assesses a caller-supplied payload. A verdict the interpreter could
// not produce maps to 502 with a detail message; otherwise the wire-format
// assessment is returned.
func (h *Handler) Run(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.NewPrescriptions) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "new_prescriptions must not be empty")
	}

	result := h.service.Check(c.Request().Context(), req)
	if result.Verdict == VerdictError {
		return c.JSON(http.StatusBadGateway, map[string]string{"detail": result.Detail})
	}
	return c.JSON(http.StatusOK, wireResponse{
		OverallAssessment: wireVerdict(result.Verdict),
		Flags:             result.Flags,
	})
}

// CheckPrescription assesses a stored prescription. The full assessment is
// returned even for error verdicts so the doctor sees what happened.
func (h *Handler) CheckPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}

	result, err := h.service.CheckPrescription(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, prescription.ErrNotFound), errors.Is(err, profile.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, result)
}

// wireVerdict renders a verdict in the advisory wire vocabulary.
func wireVerdict(v Verdict) string {
	switch v {
	case VerdictSafe:
		return "Safe"
	case VerdictWarning:
		return "Caution"
	case VerdictHighRisk:
		return "High-Risk"
	}
	return string(v)
}
