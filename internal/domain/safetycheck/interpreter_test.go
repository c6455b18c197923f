package safetycheck

import "testing"

func TestInterpret_Safe(t *testing.T) {
	result := Interpret(`{"overall_assessment": "Safe", "flags": []}`)
	if result.Verdict != VerdictSafe {
		t.Errorf("expected safe, got %s", result.Verdict)
	}
	if len(result.Flags) != 0 {
		t.Errorf("expected no flags, got %d", len(result.Flags))
	}
	if result.Flags == nil {
		t.Error("flags should be an empty slice, not nil")
	}
}

func TestInterpret_HighRiskWithFlags(t *testing.T) {
	content := `{
		"overall_assessment": "High-Risk",
		"flags": [{
			"problematic_drug": "Warfarin",
			"issue": "interaction",
			"explanation": "bleeding risk with aspirin",
			"suggested_alternative": "Apixaban"
		}]
	}`
	result := Interpret(content)
	if result.Verdict != VerdictHighRisk {
		t.Fatalf("expected high_risk, got %s", result.Verdict)
	}
	if len(result.Flags) != 1 {
		t.Fatalf("expected 1 flag, got %d", len(result.Flags))
	}
	if result.Flags[0].ProblematicDrug != "Warfarin" {
		t.Errorf("unexpected flag: %+v", result.Flags[0])
	}
}

func TestInterpret_FencedEqualsUnfenced(t *testing.T) {
	plain := `{"overall_assessment": "Caution", "flags": []}`
	fenced := "```json\n" + plain + "\n```"
	bare := "```\n" + plain + "\n```"

	a := Interpret(plain)
	b := Interpret(fenced)
	c := Interpret(bare)

	if a.Verdict != VerdictWarning || b.Verdict != a.Verdict || c.Verdict != a.Verdict {
		t.Errorf("fenced and unfenced responses disagree: %s / %s / %s", a.Verdict, b.Verdict, c.Verdict)
	}
}

func TestInterpret_CautionMapsToWarning(t *testing.T) {
	result := Interpret("```json\n{\"overall_assessment\":\"Caution\",\"flags\":[]}\n```")
	if result.Verdict != VerdictWarning {
		t.Errorf("expected warning, got %s", result.Verdict)
	}
	if len(result.Flags) != 0 {
		t.Errorf("expected empty flags, got %d", len(result.Flags))
	}
}

func TestInterpret_CaseInsensitiveVerdicts(t *testing.T) {
	tests := []struct {
		raw  string
		want Verdict
	}{
		{"safe", VerdictSafe},
		{"SAFE", VerdictSafe},
		{"caution", VerdictWarning},
		{"CAUTION", VerdictWarning},
		{"high-risk", VerdictHighRisk},
		{"HIGH-RISK", VerdictHighRisk},
		{" High-Risk ", VerdictHighRisk},
	}
	for _, tt := range tests {
		result := Interpret(`{"overall_assessment": "` + tt.raw + `", "flags": []}`)
		if result.Verdict != tt.want {
			t.Errorf("Interpret(%q) = %s, want %s", tt.raw, result.Verdict, tt.want)
		}
	}
}

func TestInterpret_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "the prescription looks fine to me"},
		{"empty", ""},
		{"missing assessment", `{"flags": []}`},
		{"missing flags", `{"overall_assessment": "Safe"}`},
		{"flags not an array", `{"overall_assessment": "Safe", "flags": "none"}`},
		{"unknown verdict", `{"overall_assessment": "Dangerous", "flags": []}`},
		{"verdict synonym", `{"overall_assessment": "Warning", "flags": []}`},
		{"verdict with space", `{"overall_assessment": "High Risk", "flags": []}`},
		{"verdict with underscore", `{"overall_assessment": "high_risk", "flags": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Interpret(tt.content)
			if result.Verdict != VerdictError {
				t.Errorf("expected error verdict, got %s", result.Verdict)
			}
			if result.Detail == "" {
				t.Error("expected detail message")
			}
		})
	}
}

func TestInterpret_JSONEmbeddedInProse(t *testing.T) {
	content := `Here is my assessment: {"overall_assessment": "Safe", "flags": []} Let me know if you need more.`
	result := Interpret(content)
	if result.Verdict != VerdictSafe {
		t.Errorf("expected safe from embedded JSON, got %s", result.Verdict)
	}
}
