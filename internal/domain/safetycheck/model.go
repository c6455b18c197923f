package safetycheck

// PatientInfo is the demographic section of an assessment request.
type PatientInfo struct {
	Age                int    `json:"age"`
	Gender             string `json:"gender"`
	ConsultationReason string `json:"consultation_reason"`
}

// HistoryInfo carries the patient's clinical history as display strings.
type HistoryInfo struct {
	KnownComplications string `json:"known_complications"`
	PastMedications    string `json:"past_medications"`
}

// DrugInfo is one proposed medication to assess.
type DrugInfo struct {
	DrugName  string `json:"drug_name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

// Request is the payload sent to the advisory model.
type Request struct {
	Patient          PatientInfo `json:"patient"`
	History          HistoryInfo `json:"history"`
	NewPrescriptions []DrugInfo  `json:"new_prescriptions"`
}

// Verdict is the normalized outcome of a safety check.
type Verdict string

const (
	VerdictSafe     Verdict = "safe"
	VerdictWarning  Verdict = "warning"
	VerdictHighRisk Verdict = "high_risk"
	// VerdictError means the advisory response could not be interpreted or
	// the service was unreachable. It is never silently dropped.
	VerdictError Verdict = "error"
)

// Flag describes one problem the advisory model found.
type Flag struct {
	ProblematicDrug      string `json:"problematic_drug"`
	Issue                string `json:"issue"`
	Explanation          string `json:"explanation"`
	SuggestedAlternative string `json:"suggested_alternative,omitempty"`
}

// RiskAssessment is the interpreted result of a safety check.
type RiskAssessment struct {
	Verdict Verdict `json:"verdict"`
	Flags   []Flag  `json:"flags"`
	Detail  string  `json:"detail,omitempty"`
}
