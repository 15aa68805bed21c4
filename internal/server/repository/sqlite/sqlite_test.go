package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/internal/server/repository"
	"healthvault/internal/shared/models"
)

func newTestRepo(t *testing.T, name string) *Repository {
	t.Helper()
	repo, err := New("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testRecord(ownerID string) models.HealthRecord {
	return models.HealthRecord{
		OwnerID:    ownerID,
		Specialty:  models.SpecialtyOptometry,
		RecordType: models.TypeEyeExam,
		Title:      "Eye exam",
		Date:       models.Date("2025-01-18"),
		Provider:   "Dr. Lin",
		Content: models.Content{
			Details: "20/20 both eyes",
			Extra:   map[string]any{"clinic_room": "B12"},
		},
		Language: "en",
		Status:   models.StatusActive,
	}
}

func TestUsersAndRecords(t *testing.T) {
	repo := newTestRepo(t, "repo_users_records")
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "p@example.com", []byte("h"), models.RolePatient)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	id, role, _, err := repo.GetUserByEmail(ctx, "p@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, models.RolePatient, role)

	rec, err := repo.CreateRecord(ctx, testRecord(user.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.EqualValues(t, 1, rec.Version)

	got, err := repo.GetRecord(ctx, user.ID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eye exam", got.Title)
	assert.Equal(t, "20/20 both eyes", got.Content.Details)
	assert.Equal(t, "B12", got.Content.Extra["clinic_room"])

	list, err := repo.ListRecords(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t, "repo_dup_email")
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, "p@example.com", []byte("h"), models.RolePatient)
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, "p@example.com", []byte("h2"), models.RoleProvider)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestGetRecordNotFound(t *testing.T) {
	repo := newTestRepo(t, "repo_not_found")
	_, err := repo.GetRecord(context.Background(), "owner", "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateRecordVersionConflict(t *testing.T) {
	repo := newTestRepo(t, "repo_version_conflict")
	ctx := context.Background()
	rec, err := repo.CreateRecord(ctx, testRecord("owner-1"))
	require.NoError(t, err)

	rec.Title = "Eye exam (updated)"
	updated, err := repo.UpdateRecord(ctx, rec, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.Version)

	// a writer holding the stale version must be rejected
	rec.Title = "stale edit"
	_, err = repo.UpdateRecord(ctx, rec, 1)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	// unknown record is not a conflict
	missing := testRecord("owner-1")
	missing.ID = "missing"
	_, err = repo.UpdateRecord(ctx, missing, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSoftDeleteKeepsRowOutOfListings(t *testing.T) {
	repo := newTestRepo(t, "repo_soft_delete")
	ctx := context.Background()
	rec, err := repo.CreateRecord(ctx, testRecord("owner-1"))
	require.NoError(t, err)

	require.NoError(t, repo.SoftDeleteRecord(ctx, "owner-1", rec.ID))

	list, err := repo.ListRecords(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repo.GetRecord(ctx, "owner-1", rec.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// the row survives for audit and share resolution
	got, err := repo.GetRecordByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, got.Status)

	assert.ErrorIs(t, repo.SoftDeleteRecord(ctx, "owner-1", rec.ID), repository.ErrNotFound)
}

func TestShares(t *testing.T) {
	repo := newTestRepo(t, "repo_shares")
	ctx := context.Background()
	rec, err := repo.CreateRecord(ctx, testRecord("patient-1"))
	require.NoError(t, err)

	sh, err := repo.CreateShare(ctx, models.Share{
		RecordID:   rec.ID,
		OwnerID:    "patient-1",
		ProviderID: "provider-1",
		ExpiresAt:  time.Now().Add(24 * time.Hour).UTC(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, sh.ID)

	got, err := repo.GetShare(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.RecordID)
	assert.False(t, got.Revoked)

	list, err := repo.ListSharesForProvider(ctx, "provider-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	notes := []models.ProviderNote{{AuthorID: "provider-1", Text: "first", CreatedAt: time.Now().UTC()}}
	require.NoError(t, repo.ReplaceShareNotes(ctx, sh.ID, notes))
	got, err = repo.GetShare(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "first", got.Notes[0].Text)

	require.NoError(t, repo.RevokeShare(ctx, "patient-1", sh.ID))
	got, err = repo.GetShare(ctx, sh.ID)
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	assert.ErrorIs(t, repo.RevokeShare(ctx, "someone-else", sh.ID), repository.ErrNotFound)
}

func TestAccessLogAppendOnly(t *testing.T) {
	repo := newTestRepo(t, "repo_access_log")
	ctx := context.Background()

	for i, at := range []models.AccessType{models.AccessView, models.AccessEdit, models.AccessShare} {
		err := repo.AppendAccessLog(ctx, models.AccessLogEntry{
			UserID:     "user-1",
			RecordID:   "rec-1",
			AccessType: at,
			Timestamp:  time.Now().Add(time.Duration(i) * time.Second).UTC(),
			DeviceInfo: "cli",
		})
		require.NoError(t, err)
	}

	entries, err := repo.ListAccessLog(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.AccessView, entries[0].AccessType)
	assert.Equal(t, models.AccessShare, entries[2].AccessType)
}

func TestRefreshTokens(t *testing.T) {
	repo := newTestRepo(t, "repo_refresh")
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).UTC()

	require.NoError(t, repo.CreateRefreshToken(ctx, "user-1", "tok", exp))
	uid, _, err := repo.GetRefreshToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	require.NoError(t, repo.DeleteRefreshToken(ctx, "tok"))
	_, _, err = repo.GetRefreshToken(ctx, "tok")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
