// Package share implements the time-boxed grant of provider visibility into
// a patient's record: the envelope state machine, the restricted provider
// view, and the append-only rule for provider notes.
package share

import (
	"errors"
	"strings"
	"time"

	"healthvault/internal/shared/models"
)

// ErrAccessDenied is all an unauthorized caller learns: the record is
// expired or not shared. The distinction is deliberately not exposed.
var ErrAccessDenied = errors.New("record expired or not shared")

// State of a share envelope at a point in time.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired" // terminal; a new explicit share re-grants access
	StateRevoked State = "revoked" // terminal, immediate, owner-triggered
)

// StateAt computes the envelope state as of the given instant. Revocation
// wins over expiry.
func StateAt(sh models.Share, asOf time.Time) State {
	if sh.Revoked {
		return StateRevoked
	}
	if !sh.ExpiresAt.IsZero() && asOf.After(sh.ExpiresAt) {
		return StateExpired
	}
	return StateActive
}

// SharedRecord is the restricted projection a provider sees: clinical
// content, never the patient's profile fields.
type SharedRecord struct {
	ShareID        string                `json:"share_id"`
	RecordID       string                `json:"record_id"`
	Title          string                `json:"title"`
	Specialty      models.Specialty      `json:"specialty"`
	RecordType     models.RecordType     `json:"record_type"`
	Date           models.Date           `json:"date"`
	Provider       string                `json:"provider,omitempty"`
	Language       string                `json:"language,omitempty"`
	DisplayDetails string                `json:"display_details,omitempty"`
	Content        models.Content        `json:"content"`
	Attachments    []models.Attachment   `json:"attachments,omitempty"`
	Notes          []models.ProviderNote `json:"notes,omitempty"`
	ExpiresAt      time.Time             `json:"expires_at"`
}

// View returns the provider-facing projection of a shared record, or
// ErrAccessDenied when the envelope is revoked or expired as of the given
// instant. An asOf exactly at the expiration is still within the grant.
func View(sh models.Share, rec models.HealthRecord, asOf time.Time) (*SharedRecord, error) {
	if StateAt(sh, asOf) != StateActive {
		return nil, ErrAccessDenied
	}
	if rec.Status == models.StatusDeleted {
		return nil, ErrAccessDenied
	}
	return &SharedRecord{
		ShareID:        sh.ID,
		RecordID:       rec.ID,
		Title:          rec.Title,
		Specialty:      rec.Specialty,
		RecordType:     rec.RecordType,
		Date:           rec.Date,
		Provider:       rec.Provider,
		Language:       rec.Language,
		DisplayDetails: rec.DisplayDetails(),
		Content:        rec.Content,
		Attachments:    append([]models.Attachment(nil), rec.Attachments...),
		Notes:          append([]models.ProviderNote(nil), sh.Notes...),
		ExpiresAt:      sh.ExpiresAt,
	}, nil
}

// AppendNote adds provider documentation to an active share. Prior notes are
// never rewritten; each entry keeps its author and timestamp. Returns the
// note that was appended.
func AppendNote(sh *models.Share, authorID, text string, now time.Time) (models.ProviderNote, error) {
	if StateAt(*sh, now) != StateActive {
		return models.ProviderNote{}, ErrAccessDenied
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ProviderNote{}, errors.New("note text required")
	}
	if sh.ProviderID != authorID {
		return models.ProviderNote{}, ErrAccessDenied
	}
	note := models.ProviderNote{AuthorID: authorID, Text: text, CreatedAt: now.UTC()}
	sh.Notes = append(sh.Notes, note)
	return note, nil
}
