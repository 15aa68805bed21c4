package service

import (
	"context"
	"time"

	"healthvault/internal/server/repository"
	"healthvault/internal/shared/models"
	"healthvault/internal/shared/share"
)

// SharesService manages share envelopes: owner-side grant and revoke,
// provider-side viewing and append-only notes.
type SharesService struct {
	repo Repository
}

// Grant opens a share window on one of the owner's records for a provider.
func (s *SharesService) Grant(ctx context.Context, sess Session, recordID, providerID string, expiresAt time.Time, device string) (models.Share, error) {
	rec, err := s.repo.GetRecord(ctx, sess.UserID, recordID)
	if err != nil {
		return models.Share{}, err
	}
	sh, err := s.repo.CreateShare(ctx, models.Share{
		RecordID:   rec.ID,
		OwnerID:    sess.UserID,
		ProviderID: providerID,
		ExpiresAt:  expiresAt.UTC(),
	})
	if err != nil {
		return models.Share{}, err
	}
	if err := s.audit(ctx, sess.UserID, rec.ID, models.AccessShare, device); err != nil {
		return models.Share{}, err
	}
	return sh, nil
}

// Revoke is immediate and owner-triggered, regardless of expiration.
func (s *SharesService) Revoke(ctx context.Context, sess Session, shareID string, device string) error {
	sh, err := s.repo.GetShare(ctx, shareID)
	if err != nil {
		return err
	}
	if sh.OwnerID != sess.UserID {
		return repository.ErrNotFound
	}
	if err := s.repo.RevokeShare(ctx, sess.UserID, shareID); err != nil {
		return err
	}
	return s.audit(ctx, sess.UserID, sh.RecordID, models.AccessShare, device)
}

// ListForProvider returns the restricted views of records currently shared
// with the provider. Expired and revoked shares are omitted, not errors.
func (s *SharesService) ListForProvider(ctx context.Context, sess Session, asOf time.Time) ([]share.SharedRecord, error) {
	var shares []models.Share
	err := withRetry(ctx, func() error {
		var err error
		shares, err = s.repo.ListSharesForProvider(ctx, sess.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]share.SharedRecord, 0, len(shares))
	for _, sh := range shares {
		rec, err := s.repo.GetRecordByID(ctx, sh.RecordID)
		if err != nil {
			continue
		}
		if v, err := share.View(sh, rec, asOf); err == nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

// ViewShared resolves one share to its restricted record view as of the
// given instant and logs the provider's access.
func (s *SharesService) ViewShared(ctx context.Context, sess Session, shareID string, asOf time.Time, device string) (*share.SharedRecord, error) {
	sh, err := s.repo.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if sh.ProviderID != sess.UserID {
		return nil, share.ErrAccessDenied
	}
	rec, err := s.repo.GetRecordByID(ctx, sh.RecordID)
	if err != nil {
		return nil, err
	}
	v, err := share.View(sh, rec, asOf)
	if err != nil {
		return nil, err
	}
	if err := s.audit(ctx, sess.UserID, rec.ID, models.AccessView, device); err != nil {
		return nil, err
	}
	return v, nil
}

// AppendNote adds provider documentation to an active share. Earlier notes
// are never rewritten.
func (s *SharesService) AppendNote(ctx context.Context, sess Session, shareID, text string, now time.Time, device string) (models.Share, error) {
	sh, err := s.repo.GetShare(ctx, shareID)
	if err != nil {
		return models.Share{}, err
	}
	if _, err := share.AppendNote(&sh, sess.UserID, text, now); err != nil {
		return models.Share{}, err
	}
	if err := s.repo.ReplaceShareNotes(ctx, sh.ID, sh.Notes); err != nil {
		return models.Share{}, err
	}
	if err := s.audit(ctx, sess.UserID, sh.RecordID, models.AccessEdit, device); err != nil {
		return models.Share{}, err
	}
	return sh, nil
}

func (s *SharesService) audit(ctx context.Context, userID, recordID string, at models.AccessType, device string) error {
	entry := models.AccessLogEntry{
		UserID:     userID,
		RecordID:   recordID,
		AccessType: at,
		Timestamp:  time.Now().UTC(),
		DeviceInfo: device,
	}
	return withRetry(ctx, func() error { return s.repo.AppendAccessLog(ctx, entry) })
}
