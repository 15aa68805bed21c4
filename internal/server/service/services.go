package service

import (
	"context"
	"errors"
	"time"

	"healthvault/internal/server/config"
	"healthvault/internal/server/filestore"
	"healthvault/internal/server/repository"
	"healthvault/internal/shared/models"
)

// Repository is the persistence collaborator. The services never assume a
// specific database; the sqlite and mongo implementations both satisfy this.
type Repository interface {
	CreateUser(ctx context.Context, email string, passwordHash []byte, role models.Role) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (id string, role models.Role, passwordHash []byte, err error)
	GetUserByID(ctx context.Context, id string) (models.User, error)

	CreateRecord(ctx context.Context, rec models.HealthRecord) (models.HealthRecord, error)
	UpdateRecord(ctx context.Context, rec models.HealthRecord, expectedVersion int64) (models.HealthRecord, error)
	ListRecords(ctx context.Context, ownerID string) ([]models.HealthRecord, error)
	GetRecord(ctx context.Context, ownerID, id string) (models.HealthRecord, error)
	GetRecordByID(ctx context.Context, id string) (models.HealthRecord, error)
	SoftDeleteRecord(ctx context.Context, ownerID, id string) error

	CreateShare(ctx context.Context, sh models.Share) (models.Share, error)
	GetShare(ctx context.Context, id string) (models.Share, error)
	ListSharesForProvider(ctx context.Context, providerID string) ([]models.Share, error)
	RevokeShare(ctx context.Context, ownerID, id string) error
	ReplaceShareNotes(ctx context.Context, shareID string, notes []models.ProviderNote) error

	AppendAccessLog(ctx context.Context, entry models.AccessLogEntry) error
	ListAccessLog(ctx context.Context, recordID string) ([]models.AccessLogEntry, error)

	CreateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (userID string, expiresAt time.Time, err error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type Services struct {
	Auth    *AuthService
	Records *RecordsService
	Shares  *SharesService
}

func NewServices(repo Repository, files filestore.Store, cfg config.Config) *Services {
	return &Services{
		Auth:    &AuthService{repo: repo, jwtSecret: []byte(cfg.JWTSecret)},
		Records: &RecordsService{repo: repo, files: files},
		Shares:  &SharesService{repo: repo},
	}
}

// Storage retry policy: transient backend failures are retried a bounded
// number of times before being surfaced to the caller.
const (
	storageAttempts = 3
	storageBackoff  = 50 * time.Millisecond
)

func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < storageAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(storageBackoff << (attempt - 1)):
			}
		}
		err = fn()
		var serr *repository.StorageError
		if err == nil || !errors.As(err, &serr) {
			return err
		}
	}
	return err
}
