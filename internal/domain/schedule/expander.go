package schedule

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KowshikBennuri/Smart-Prescription-Medication-Tracker/internal/domain/prescription"
)

// ErrEmptySchedule is returned when a prescription has no medications with
// timing slots to expand.
var ErrEmptySchedule = errors.New("prescription has no medications with timing slots")

// Expand materializes the full set of dose events for a prescription: one
// event per calendar day per medication per timing slot, covering the closed
// range from start date through end date. The result is deterministic and
// sorted by scheduled time, then drug name.
func Expand(p *prescription.Prescription) ([]DoseEvent, error) {
	days := p.DurationDays()
	if days <= 0 {
		return nil, errors.New("prescription date range is empty")
	}

	slots := 0
	for _, m := range p.Medications {
		slots += len(m.Timing)
	}
	if slots == 0 {
		return nil, ErrEmptySchedule
	}

	start := time.Date(p.StartDate.Year(), p.StartDate.Month(), p.StartDate.Day(), 0, 0, 0, 0, time.UTC)

	events := make([]DoseEvent, 0, days*slots)
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		for _, m := range p.Medications {
			for _, slot := range m.Timing {
				hour, minute := prescription.SlotTime(slot)
				events = append(events, DoseEvent{
					ID:             uuid.New(),
					PrescriptionID: p.ID,
					MedicationID:   m.ID,
					PatientID:      p.PatientID,
					DrugName:       m.DrugName,
					Dosage:         m.Dosage,
					Slot:           slot,
					ScheduledAt:    time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC),
					Status:         StatusPending,
				})
			}
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].ScheduledAt.Equal(events[j].ScheduledAt) {
			return events[i].ScheduledAt.Before(events[j].ScheduledAt)
		}
		return events[i].DrugName < events[j].DrugName
	})
	return events, nil
}
