package safetycheck

import (
	"encoding/json"
	"strings"
)

// wireAssessment mirrors the JSON the advisory model is asked to produce.
// Pointer fields distinguish an absent key from an empty value.
type wireAssessment struct {
	OverallAssessment *string     `json:"overall_assessment"`
	Flags             *[]wireFlag `json:"flags"`
}

type wireFlag struct {
	ProblematicDrug      string `json:"problematic_drug"`
	Issue                string `json:"issue"`
	Explanation          string `json:"explanation"`
	SuggestedAlternative string `json:"suggested_alternative"`
}

// Interpret parses an advisory model response into a RiskAssessment. It
// never fails: any response that cannot be understood yields an error
// verdict with a detail message. Markdown code fences around the JSON are
// tolerated.
func Interpret(content string) RiskAssessment {
	raw := stripFences(content)

	var wire wireAssessment
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		// Some models wrap the JSON in prose; try the outermost braces.
		if inner, ok := extractBraces(raw); ok {
			if err2 := json.Unmarshal([]byte(inner), &wire); err2 != nil {
				return errorAssessment("advisory response was not valid JSON")
			}
		} else {
			return errorAssessment("advisory response was not valid JSON")
		}
	}

	if wire.OverallAssessment == nil {
		return errorAssessment("advisory response missing overall_assessment")
	}
	if wire.Flags == nil {
		return errorAssessment("advisory response missing flags")
	}

	verdict, ok := parseVerdict(*wire.OverallAssessment)
	if !ok {
		return errorAssessment("unknown assessment value: " + *wire.OverallAssessment)
	}

	flags := make([]Flag, 0, len(*wire.Flags))
	for _, f := range *wire.Flags {
		flags = append(flags, Flag{
			ProblematicDrug:      f.ProblematicDrug,
			Issue:                f.Issue,
			Explanation:          f.Explanation,
			SuggestedAlternative: f.SuggestedAlternative,
		})
	}
	return RiskAssessment{Verdict: verdict, Flags: flags}
}

// parseVerdict maps the advisory vocabulary, case-insensitively. Anything
// outside Safe, Caution and High-Risk is rejected rather than guessed at.
func parseVerdict(s string) (Verdict, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safe":
		return VerdictSafe, true
	case "caution":
		return VerdictWarning, true
	case "high-risk":
		return VerdictHighRisk, true
	}
	return "", false
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line, e.g. "json".
		if !strings.Contains(trimmed[:idx], "{") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func extractBraces(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func errorAssessment(detail string) RiskAssessment {
	return RiskAssessment{Verdict: VerdictError, Flags: []Flag{}, Detail: detail}
}
