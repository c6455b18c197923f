package safetycheck

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func postJSON(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/run-safety-check", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const runBody = `{
	"patient": {"age": 42, "gender": "male", "consultation_reason": "migraine"},
	"history": {"known_complications": "None provided", "past_medications": "None provided"},
	"new_prescriptions": [{"drug_name": "Sumatriptan", "dosage": "50mg", "frequency": "As directed"}]
}`

func TestRun_ReturnsWireAssessment(t *testing.T) {
	advisor := &mockAdvisor{response: "```json\n{\"overall_assessment\": \"Caution\", \"flags\": []}\n```"}
	h := NewHandler(NewService(advisor, nil, nil, zerolog.Nop()))

	c, rec := postJSON(t, runBody)
	if err := h.Run(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		OverallAssessment string `json:"overall_assessment"`
		Flags             []Flag `json:"flags"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.OverallAssessment != "Caution" {
		t.Errorf("expected Caution on the wire, got %q", resp.OverallAssessment)
	}
	if resp.Flags == nil || len(resp.Flags) != 0 {
		t.Errorf("expected empty flags array, got %v", resp.Flags)
	}
}

func TestRun_AdvisoryFailureMapsTo502(t *testing.T) {
	advisor := &mockAdvisor{response: "I cannot help with that."}
	h := NewHandler(NewService(advisor, nil, nil, zerolog.Nop()))

	c, rec := postJSON(t, runBody)
	if err := h.Run(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["detail"] == "" {
		t.Error("expected detail message in 502 body")
	}
}

func TestRun_EmptyPrescriptionsRejected(t *testing.T) {
	h := NewHandler(NewService(&mockAdvisor{}, nil, nil, zerolog.Nop()))

	c, _ := postJSON(t, `{"patient": {"age": 1}, "history": {}, "new_prescriptions": []}`)
	err := h.Run(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
