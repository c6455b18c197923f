package safetycheck

import (
	"strings"
	"time"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/profile"
)

// Sentinel values used when patient data is absent, so the advisory model
// always receives a complete payload.
const (
	noneProvided = "None provided"
	notSpecified = "Not specified"
	asDirected   = "As directed"
)

// BuildRequest assembles the advisory payload from a patient's profile,
// history and the proposed medications. Missing fields are replaced with
// explicit sentinels rather than left empty.
func BuildRequest(p *profile.PatientProfile, history []profile.HistoryItem, meds []prescription.Medication) Request {
	req := Request{
		Patient: PatientInfo{
			Age:                p.Age(time.Now()),
			Gender:             orSentinel(p.Gender, notSpecified),
			ConsultationReason: orSentinel(p.ConsultationReason, notSpecified),
		},
		History: HistoryInfo{
			KnownComplications: joinComplications(history),
			PastMedications:    joinPastMedications(p.PastMedications),
		},
		NewPrescriptions: make([]DrugInfo, 0, len(meds)),
	}

	for _, m := range meds {
		freq := m.Frequency
		if freq == "" {
			freq = timingLabel(m.Timing)
		}
		req.NewPrescriptions = append(req.NewPrescriptions, DrugInfo{
			DrugName:  m.DrugName,
			Dosage:    m.Dosage,
			Frequency: freq,
		})
	}
	return req
}

func orSentinel(s, sentinel string) string {
	if strings.TrimSpace(s) == "" {
		return sentinel
	}
	return s
}

// joinComplications renders history items as "complication: description"
// pairs joined with "; ".
func joinComplications(history []profile.HistoryItem) string {
	if len(history) == 0 {
		return noneProvided
	}
	parts := make([]string, 0, len(history))
	for _, item := range history {
		if item.Description != "" {
			parts = append(parts, item.Complication+": "+item.Description)
		} else {
			parts = append(parts, item.Complication)
		}
	}
	return strings.Join(parts, "; ")
}

func joinPastMedications(meds []string) string {
	var kept []string
	for _, m := range meds {
		if strings.TrimSpace(m) != "" {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return noneProvided
	}
	return strings.Join(kept, ", ")
}

// timingLabel renders timing slots for the advisory payload, e.g.
// "Morning, Night".
func timingLabel(timing []prescription.Slot) string {
	if len(timing) == 0 {
		return asDirected
	}
	parts := make([]string, len(timing))
	for i, s := range timing {
		parts[i] = capitalize(string(s))
	}
	return strings.Join(parts, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
