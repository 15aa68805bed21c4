package service

import (
	"context"
	"io"
	"time"

	"healthvault/internal/server/filestore"
	"healthvault/internal/server/repository"
	"healthvault/internal/shared/catalog"
	"healthvault/internal/shared/models"
	"healthvault/internal/shared/projection"
	"healthvault/internal/shared/validate"
)

// RecordsService manages a patient's own records: validation at the
// boundary, optimistic-version writes, soft deletion, categorized views
// and the access audit trail.
type RecordsService struct {
	repo  Repository
	files filestore.Store
}

// Create validates a submission and persists it as a new record owned by
// the session user.
func (s *RecordsService) Create(ctx context.Context, sess Session, cand validate.Candidate, device string) (models.HealthRecord, error) {
	rec, err := validate.Record(cand, validate.Now())
	if err != nil {
		return models.HealthRecord{}, err
	}
	rec.OwnerID = sess.UserID
	created, err := s.repo.CreateRecord(ctx, rec)
	if err != nil {
		return models.HealthRecord{}, err
	}
	if err := s.audit(ctx, sess.UserID, created.ID, models.AccessEdit, device); err != nil {
		return models.HealthRecord{}, err
	}
	return created, nil
}

// Update revalidates the submission and writes it over the stored record if
// the caller still holds the current version. Insights and creation metadata
// survive the edit; a stale expectedVersion is rejected rather than resolved
// by last-write-wins.
func (s *RecordsService) Update(ctx context.Context, sess Session, id string, cand validate.Candidate, expectedVersion int64, device string) (models.HealthRecord, error) {
	rec, err := validate.Record(cand, validate.Now())
	if err != nil {
		return models.HealthRecord{}, err
	}
	current, err := s.repo.GetRecord(ctx, sess.UserID, id)
	if err != nil {
		return models.HealthRecord{}, err
	}
	rec.ID = current.ID
	rec.OwnerID = current.OwnerID
	rec.CreatedAt = current.CreatedAt
	rec.Insights = current.Insights
	if rec.Attachments == nil {
		rec.Attachments = current.Attachments
	}
	updated, err := s.repo.UpdateRecord(ctx, rec, expectedVersion)
	if err != nil {
		return models.HealthRecord{}, err
	}
	if err := s.audit(ctx, sess.UserID, updated.ID, models.AccessEdit, device); err != nil {
		return models.HealthRecord{}, err
	}
	return updated, nil
}

func (s *RecordsService) List(ctx context.Context, sess Session) ([]models.HealthRecord, error) {
	var out []models.HealthRecord
	err := withRetry(ctx, func() error {
		var err error
		out, err = s.repo.ListRecords(ctx, sess.UserID)
		return err
	})
	return out, err
}

// Get returns the requested projection of one record and logs the view.
func (s *RecordsService) Get(ctx context.Context, sess Session, id string, mode projection.Mode, device string) (projection.View, error) {
	var rec models.HealthRecord
	err := withRetry(ctx, func() error {
		var err error
		rec, err = s.repo.GetRecord(ctx, sess.UserID, id)
		return err
	})
	if err != nil {
		return projection.View{}, err
	}
	if err := s.audit(ctx, sess.UserID, rec.ID, models.AccessView, device); err != nil {
		return projection.View{}, err
	}
	return projection.Project(rec, mode), nil
}

func (s *RecordsService) Delete(ctx context.Context, sess Session, id string, device string) error {
	if err := s.repo.SoftDeleteRecord(ctx, sess.UserID, id); err != nil {
		return err
	}
	return s.audit(ctx, sess.UserID, id, models.AccessEdit, device)
}

// Summary is the dashboard view of an owner's records: full grouping plus
// recent history and upcoming appointments.
type Summary struct {
	Grouping catalog.Grouping      `json:"grouping"`
	Recent   []models.HealthRecord `json:"recent"`
	Upcoming []models.HealthRecord `json:"upcoming"`
}

func (s *RecordsService) Summarize(ctx context.Context, sess Session, today models.Date, n int) (Summary, error) {
	records, err := s.List(ctx, sess)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Grouping: catalog.Categorize(records),
		Recent:   catalog.Recent(records, n),
		Upcoming: catalog.Upcoming(records, today, n),
	}, nil
}

// AttachInsight sets one perspective's insight on a record. Reads of the
// record in Opinion mode surface it; Data mode never does.
func (s *RecordsService) AttachInsight(ctx context.Context, sess Session, id, perspective string, ins models.Insight, device string) (models.HealthRecord, error) {
	rec, err := s.repo.GetRecord(ctx, sess.UserID, id)
	if err != nil {
		return models.HealthRecord{}, err
	}
	if rec.Insights == nil {
		rec.Insights = make(map[string]models.Insight)
	}
	rec.Insights[perspective] = ins
	updated, err := s.repo.UpdateRecord(ctx, rec, rec.Version)
	if err != nil {
		return models.HealthRecord{}, err
	}
	if err := s.audit(ctx, sess.UserID, updated.ID, models.AccessEdit, device); err != nil {
		return models.HealthRecord{}, err
	}
	return updated, nil
}

// AddAttachment stores the file bytes with the file storage collaborator and
// appends the resulting opaque reference to the record.
func (s *RecordsService) AddAttachment(ctx context.Context, sess Session, id, name, mimeType string, data io.Reader, device string) (models.HealthRecord, error) {
	rec, err := s.repo.GetRecord(ctx, sess.UserID, id)
	if err != nil {
		return models.HealthRecord{}, err
	}
	ref, err := s.files.Put(ctx, data)
	if err != nil {
		return models.HealthRecord{}, err
	}
	rec.Attachments = append(rec.Attachments, models.Attachment{Name: name, MimeType: mimeType, Ref: ref})
	updated, err := s.repo.UpdateRecord(ctx, rec, rec.Version)
	if err != nil {
		return models.HealthRecord{}, err
	}
	if err := s.audit(ctx, sess.UserID, updated.ID, models.AccessEdit, device); err != nil {
		return models.HealthRecord{}, err
	}
	return updated, nil
}

// OpenAttachment resolves a stored reference back to its bytes, after
// checking the reference actually belongs to the record.
func (s *RecordsService) OpenAttachment(ctx context.Context, sess Session, id, ref, device string) (io.ReadCloser, string, error) {
	rec, err := s.repo.GetRecord(ctx, sess.UserID, id)
	if err != nil {
		return nil, "", err
	}
	var att models.Attachment
	found := false
	for _, a := range rec.Attachments {
		if a.Ref == ref {
			att, found = a, true
			break
		}
	}
	if !found {
		return nil, "", repository.ErrNotFound
	}
	if err := s.audit(ctx, sess.UserID, rec.ID, models.AccessView, device); err != nil {
		return nil, "", err
	}
	rc, err := s.files.Open(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	return rc, att.MimeType, nil
}

// AccessLog returns the audit trail of a record to its owner. Deleted
// records keep their trail readable.
func (s *RecordsService) AccessLog(ctx context.Context, sess Session, id string) ([]models.AccessLogEntry, error) {
	rec, err := s.repo.GetRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != sess.UserID {
		return nil, repository.ErrNotFound
	}
	return s.repo.ListAccessLog(ctx, id)
}

// audit writes the access log entry; failures fail the operation rather
// than leaving an unlogged access.
func (s *RecordsService) audit(ctx context.Context, userID, recordID string, at models.AccessType, device string) error {
	entry := models.AccessLogEntry{
		UserID:     userID,
		RecordID:   recordID,
		AccessType: at,
		Timestamp:  time.Now().UTC(),
		DeviceInfo: device,
	}
	return withRetry(ctx, func() error { return s.repo.AppendAccessLog(ctx, entry) })
}
