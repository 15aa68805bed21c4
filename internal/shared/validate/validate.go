// Package validate turns loosely-typed submissions into canonical health
// records. It is the only path through which form input becomes a
// models.HealthRecord; everything downstream can rely on the closed
// taxonomy and normalized dates.
package validate

import (
	"fmt"
	"strings"
	"time"

	"healthvault/internal/shared/models"
	"healthvault/internal/shared/taxonomy"
)

// ValidationError names the specific failing field so the submitting user
// can correct it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Candidate is a record submission before validation. Content carries the raw
// form fields; keys the validator does not recognize are preserved in the
// resulting record's Content.Extra.
type Candidate struct {
	Title             string         `json:"title"`
	Specialty         string         `json:"specialty"`
	RecordType        string         `json:"record_type"`
	Date              string         `json:"date"`
	Provider          string         `json:"provider"`
	Language          string         `json:"language"`
	OriginalLanguage  string         `json:"original_language"`
	TranslatedDetails string         `json:"translated_details"`
	Content           map[string]any `json:"content"`
	Attachments       []models.Attachment
}

// contentKeys are the canonical sub-fields lifted out of the raw content map.
var contentKeys = map[string]bool{
	"reason": true, "details": true, "diagnosis": true,
	"medication": true, "follow_up": true,
}

// Record validates a candidate and returns the canonical record. It is pure:
// no identifier is assigned and nothing is persisted here. The caller decides
// what to do with the result.
func Record(c Candidate, today models.Date) (models.HealthRecord, error) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return models.HealthRecord{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	specialty := models.Specialty(c.Specialty)
	if !taxonomy.ValidSpecialty(specialty) {
		return models.HealthRecord{}, &ValidationError{Field: "specialty", Reason: fmt.Sprintf("unknown specialty %q", c.Specialty)}
	}

	recordType := models.RecordType(c.RecordType)
	if !taxonomy.ValidType(specialty, recordType) {
		return models.HealthRecord{}, &ValidationError{
			Field:  "record_type",
			Reason: fmt.Sprintf("%q is not a valid type for specialty %q", c.RecordType, c.Specialty),
		}
	}

	if c.Date == "" {
		return models.HealthRecord{}, &ValidationError{Field: "date", Reason: "required"}
	}
	date, err := models.ParseDate(c.Date)
	if err != nil {
		return models.HealthRecord{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("unparsable date %q", c.Date)}
	}
	// Only appointment-style types describe a future event.
	if date.After(today) && !taxonomy.IsAppointment(recordType) {
		return models.HealthRecord{}, &ValidationError{Field: "date", Reason: "future date on a non-appointment record"}
	}

	language := c.Language
	if language == "" {
		language = "en"
	}

	content := buildContent(c.Content)
	for _, field := range taxonomy.RequiredFields(recordType) {
		if !contentHas(content, field) {
			return models.HealthRecord{}, &ValidationError{
				Field:  field,
				Reason: fmt.Sprintf("required for record type %q", c.RecordType),
			}
		}
	}

	rec := models.HealthRecord{
		Specialty:         specialty,
		RecordType:        recordType,
		Title:             title,
		Date:              date,
		Provider:          strings.TrimSpace(c.Provider),
		Content:           content,
		Language:          language,
		OriginalLanguage:  c.OriginalLanguage,
		TranslatedDetails: c.TranslatedDetails,
		Attachments:       c.Attachments,
		Status:            models.StatusActive,
	}
	return rec, nil
}

// buildContent lifts recognized keys into typed fields and keeps everything
// else opaquely in Extra.
func buildContent(raw map[string]any) models.Content {
	var content models.Content
	if len(raw) == 0 {
		return content
	}
	content.Reason = stringField(raw, "reason")
	content.Details = stringField(raw, "details")
	content.Diagnosis = stringField(raw, "diagnosis")
	if m, ok := raw["medication"].(map[string]any); ok {
		content.Medication = &models.Medication{
			Name:      stringField(m, "name"),
			Dosage:    stringField(m, "dosage"),
			Frequency: stringField(m, "frequency"),
			Duration:  stringField(m, "duration"),
		}
	}
	if f, ok := raw["follow_up"].(map[string]any); ok {
		fu := &models.FollowUp{Notes: stringField(f, "notes")}
		if req, ok := f["required"].(bool); ok {
			fu.Required = req
		}
		if ds := stringField(f, "date"); ds != "" {
			if d, err := models.ParseDate(ds); err == nil {
				fu.Date = d
			}
		}
		content.FollowUp = fu
	}
	for k, v := range raw {
		if contentKeys[k] {
			continue
		}
		if content.Extra == nil {
			content.Extra = make(map[string]any)
		}
		content.Extra[k] = v
	}
	return content
}

// contentHas reports whether the built content carries a usable value for
// one of the taxonomy's required-field names.
func contentHas(c models.Content, field string) bool {
	switch field {
	case "reason":
		return c.Reason != ""
	case "details":
		return c.Details != ""
	case "diagnosis":
		return c.Diagnosis != ""
	case "medication":
		return c.Medication != nil && c.Medication.Name != ""
	case "follow_up":
		return c.FollowUp != nil
	}
	return true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// Now is a convenience for callers validating against the current day.
func Now() models.Date { return models.Today(time.Now()) }
