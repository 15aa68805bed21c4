// Package catalog groups and slices record sets for display: by specialty
// and type, most-recent history, and upcoming appointments. All functions
// are pure and operate on the snapshot they are given.
package catalog

import (
	"sort"

	"healthvault/internal/shared/models"
	"healthvault/internal/shared/taxonomy"
)

// TypeGroup is the records of one record type within a specialty.
type TypeGroup struct {
	RecordType models.RecordType     `json:"record_type"`
	Label      string                `json:"label"`
	Records    []models.HealthRecord `json:"records"`
}

// SpecialtyGroup is the records of one specialty, split by type.
type SpecialtyGroup struct {
	Specialty models.Specialty `json:"specialty"`
	Count     int              `json:"count"`
	Types     []TypeGroup      `json:"types"`
}

// Grouping is the full specialty -> type arrangement of a record set.
// Specialties and types appear in the order they are first encountered, so
// that with input pre-sorted by date descending the most recently relevant
// category surfaces first.
type Grouping struct {
	Specialties []SpecialtyGroup `json:"specialties"`
	Total       int              `json:"total"`
}

// Categorize groups records by specialty, then by record type within each
// specialty. Empty input yields an empty grouping. Calling it twice on the
// same input yields structurally identical output.
func Categorize(records []models.HealthRecord) Grouping {
	g := Grouping{Total: len(records)}
	specIndex := make(map[models.Specialty]int)
	for _, rec := range records {
		si, ok := specIndex[rec.Specialty]
		if !ok {
			si = len(g.Specialties)
			specIndex[rec.Specialty] = si
			g.Specialties = append(g.Specialties, SpecialtyGroup{Specialty: rec.Specialty})
		}
		sg := &g.Specialties[si]
		sg.Count++
		ti := -1
		for i := range sg.Types {
			if sg.Types[i].RecordType == rec.RecordType {
				ti = i
				break
			}
		}
		if ti < 0 {
			ti = len(sg.Types)
			sg.Types = append(sg.Types, TypeGroup{
				RecordType: rec.RecordType,
				Label:      taxonomy.FormatRecordType(rec.RecordType),
			})
		}
		sg.Types[ti].Records = append(sg.Types[ti].Records, rec)
	}
	return g
}

// Recent returns the n most recent records by date descending, excluding
// appointment-style types, which describe scheduled visits rather than
// history.
func Recent(records []models.HealthRecord, n int) []models.HealthRecord {
	var out []models.HealthRecord
	for _, rec := range records {
		if taxonomy.IsAppointment(rec.RecordType) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Upcoming returns up to n appointment-style records dated today or later,
// soonest first. Ties keep insertion order.
func Upcoming(records []models.HealthRecord, today models.Date, n int) []models.HealthRecord {
	var out []models.HealthRecord
	for _, rec := range records {
		if !taxonomy.IsAppointment(rec.RecordType) {
			continue
		}
		if rec.Date.Before(today) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
