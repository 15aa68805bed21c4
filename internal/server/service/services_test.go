package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/internal/server/config"
	"healthvault/internal/server/filestore"
	"healthvault/internal/server/repository"
	"healthvault/internal/server/repository/sqlite"
	"healthvault/internal/shared/models"
	"healthvault/internal/shared/projection"
	"healthvault/internal/shared/share"
	"healthvault/internal/shared/validate"
)

func newTestServices(t *testing.T, name string) *Services {
	t.Helper()
	repo, err := sqlite.New("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	files, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)
	return NewServices(repo, files, config.Config{JWTSecret: "test"})
}

func registerUser(t *testing.T, svcs *Services, email string, role models.Role) Session {
	t.Helper()
	u, err := svcs.Auth.Register(context.Background(), email, "pass", role)
	require.NoError(t, err)
	return Session{UserID: u.ID, Role: u.Role}
}

func eyeExamCandidate() validate.Candidate {
	return validate.Candidate{
		Title:      "Eye exam",
		Specialty:  "optometry",
		RecordType: "eye_exam",
		Date:       "2025-01-18",
		Provider:   "Dr. Lin",
		Content:    map[string]any{"details": "20/20 both eyes"},
	}
}

func TestAuthRegisterLoginRoles(t *testing.T) {
	svcs := newTestServices(t, "svc_auth")
	ctx := context.Background()

	_, err := svcs.Auth.Register(ctx, "p@example.com", "pass", models.RolePatient)
	require.NoError(t, err)
	_, err = svcs.Auth.Register(ctx, "", "pass", models.RolePatient)
	assert.Error(t, err)
	_, err = svcs.Auth.Register(ctx, "x@example.com", "pass", models.Role("admin"))
	assert.Error(t, err)

	token, err := svcs.Auth.Login(ctx, "p@example.com", "pass")
	require.NoError(t, err)
	sess, err := svcs.Auth.ParseToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, sess.Role)

	_, err = svcs.Auth.Login(ctx, "p@example.com", "wrong")
	assert.Error(t, err)
}

func TestAuthRefreshRotation(t *testing.T) {
	svcs := newTestServices(t, "svc_refresh")
	ctx := context.Background()
	sess := registerUser(t, svcs, "p2@example.com", models.RolePatient)

	r, err := svcs.Auth.IssueRefreshToken(ctx, sess.UserID, time.Hour)
	require.NoError(t, err)
	at, next, err := svcs.Auth.Refresh(ctx, r)
	require.NoError(t, err)
	require.NotEmpty(t, next, "rotation must hand the replacement token to the caller")
	got, err := svcs.Auth.ParseToken(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, models.RolePatient, got.Role)

	// rotated: the old refresh token is gone, the replacement works
	_, _, err = svcs.Auth.Refresh(ctx, r)
	assert.Error(t, err)
	at2, _, err := svcs.Auth.Refresh(ctx, next)
	require.NoError(t, err)
	got2, err := svcs.Auth.ParseToken(ctx, at2)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got2.UserID)
}

func TestRecordsCreateValidatesAtBoundary(t *testing.T) {
	svcs := newTestServices(t, "svc_records_create")
	ctx := context.Background()
	sess := registerUser(t, svcs, "p@example.com", models.RolePatient)

	rec, err := svcs.Records.Create(ctx, sess, eyeExamCandidate(), "test")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, rec.OwnerID)
	assert.EqualValues(t, 1, rec.Version)

	bad := eyeExamCandidate()
	bad.RecordType = "dental_checkup"
	_, err = svcs.Records.Create(ctx, sess, bad, "test")
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "record_type", verr.Field)
}

func TestRecordsUpdateOptimisticVersioning(t *testing.T) {
	svcs := newTestServices(t, "svc_records_update")
	ctx := context.Background()
	sess := registerUser(t, svcs, "p@example.com", models.RolePatient)
	rec, err := svcs.Records.Create(ctx, sess, eyeExamCandidate(), "test")
	require.NoError(t, err)

	cand := eyeExamCandidate()
	cand.Title = "Eye exam — corrected"
	updated, err := svcs.Records.Update(ctx, sess, rec.ID, cand, rec.Version, "test")
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.Version)

	// stale writer is rejected, not overwritten
	_, err = svcs.Records.Update(ctx, sess, rec.ID, cand, rec.Version, "test")
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
}

func TestRecordsGetProjectionAndAudit(t *testing.T) {
	svcs := newTestServices(t, "svc_records_get")
	ctx := context.Background()
	sess := registerUser(t, svcs, "p@example.com", models.RolePatient)
	rec, err := svcs.Records.Create(ctx, sess, eyeExamCandidate(), "test-device")
	require.NoError(t, err)

	v, err := svcs.Records.Get(ctx, sess, rec.ID, projection.ModeData, "test-device")
	require.NoError(t, err)
	require.NotNil(t, v.Content)
	assert.Equal(t, "20/20 both eyes", v.Content.Details)

	v, err = svcs.Records.Get(ctx, sess, rec.ID, projection.ModeOpinion, "test-device")
	require.NoError(t, err)
	assert.Nil(t, v.Content)
	assert.False(t, v.InsightsAvailable)

	entries, err := svcs.Records.AccessLog(ctx, sess, rec.ID)
	require.NoError(t, err)
	// create EDIT + two VIEWs
	require.Len(t, entries, 3)
	assert.Equal(t, models.AccessEdit, entries[0].AccessType)
	assert.Equal(t, models.AccessView, entries[1].AccessType)
	assert.Equal(t, "test-device", entries[1].DeviceInfo)

	other := registerUser(t, svcs, "p2@example.com", models.RolePatient)
	_, err = svcs.Records.AccessLog(ctx, other, rec.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordsAttachInsight(t *testing.T) {
	svcs := newTestServices(t, "svc_records_insight")
	ctx := context.Background()
	sess := registerUser(t, svcs, "p@example.com", models.RolePatient)
	rec, err := svcs.Records.Create(ctx, sess, eyeExamCandidate(), "test")
	require.NoError(t, err)

	_, err = svcs.Records.AttachInsight(ctx, sess, rec.ID, "holistic", models.Insight{
		Summary: "Vision stable.", Recommendations: []string{"annual re-check"},
	}, "test")
	require.NoError(t, err)

	v, err := svcs.Records.Get(ctx, sess, rec.ID, projection.ModeOpinion, "test")
	require.NoError(t, err)
	require.True(t, v.InsightsAvailable)
	assert.Equal(t, "Vision stable.", v.Insights["holistic"].Summary)
}

func TestRecordsSummarize(t *testing.T) {
	svcs := newTestServices(t, "svc_records_summary")
	ctx := context.Background()
	sess := registerUser(t, svcs, "p@example.com", models.RolePatient)

	lab := eyeExamCandidate()
	lab.Specialty = "medical"
	lab.RecordType = "laboratory"
	lab.Title = "Blood panel"
	lab.Date = "2025-03-10"
	_, err := svcs.Records.Create(ctx, sess, lab, "test")
	require.NoError(t, err)

	upcoming := eyeExamCandidate()
	upcoming.Date = "2099-06-01"
	_, err = svcs.Records.Create(ctx, sess, upcoming, "test")
	require.NoError(t, err)

	sum, err := svcs.Records.Summarize(ctx, sess, models.Date("2025-06-01"), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Grouping.Total)
	require.Len(t, sum.Recent, 1)
	assert.Equal(t, "Blood panel", sum.Recent[0].Title)
	require.Len(t, sum.Upcoming, 1)
	assert.Equal(t, "Eye exam", sum.Upcoming[0].Title)
}

func TestSharesLifecycle(t *testing.T) {
	svcs := newTestServices(t, "svc_shares")
	ctx := context.Background()
	patient := registerUser(t, svcs, "p@example.com", models.RolePatient)
	provider := registerUser(t, svcs, "dr@example.com", models.RoleProvider)

	rec, err := svcs.Records.Create(ctx, patient, eyeExamCandidate(), "test")
	require.NoError(t, err)

	sh, err := svcs.Shares.Grant(ctx, patient, rec.ID, provider.UserID, time.Now().Add(24*time.Hour), "test")
	require.NoError(t, err)

	v, err := svcs.Shares.ViewShared(ctx, provider, sh.ID, time.Now(), "test")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, v.RecordID)
	assert.Equal(t, "20/20 both eyes", v.Content.Details)

	// only the named provider can resolve the share
	stranger := registerUser(t, svcs, "dr2@example.com", models.RoleProvider)
	_, err = svcs.Shares.ViewShared(ctx, stranger, sh.ID, time.Now(), "test")
	assert.ErrorIs(t, err, share.ErrAccessDenied)

	// asOf past expiration denies access
	_, err = svcs.Shares.ViewShared(ctx, provider, sh.ID, time.Now().Add(48*time.Hour), "test")
	assert.ErrorIs(t, err, share.ErrAccessDenied)

	listed, err := svcs.Shares.ListForProvider(ctx, provider, time.Now())
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	updated, err := svcs.Shares.AppendNote(ctx, provider, sh.ID, "looks healthy", time.Now(), "test")
	require.NoError(t, err)
	require.Len(t, updated.Notes, 1)

	require.NoError(t, svcs.Shares.Revoke(ctx, patient, sh.ID, "test"))
	_, err = svcs.Shares.ViewShared(ctx, provider, sh.ID, time.Now(), "test")
	assert.ErrorIs(t, err, share.ErrAccessDenied)

	listed, err = svcs.Shares.ListForProvider(ctx, provider, time.Now())
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSharesRevokeOnlyByOwner(t *testing.T) {
	svcs := newTestServices(t, "svc_shares_owner")
	ctx := context.Background()
	patient := registerUser(t, svcs, "p@example.com", models.RolePatient)
	provider := registerUser(t, svcs, "dr@example.com", models.RoleProvider)
	rec, err := svcs.Records.Create(ctx, patient, eyeExamCandidate(), "test")
	require.NoError(t, err)
	sh, err := svcs.Shares.Grant(ctx, patient, rec.ID, provider.UserID, time.Now().Add(time.Hour), "test")
	require.NoError(t, err)

	err = svcs.Shares.Revoke(ctx, provider, sh.ID, "test")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSharedViewNotesAppendOnly(t *testing.T) {
	svcs := newTestServices(t, "svc_shares_notes")
	ctx := context.Background()
	patient := registerUser(t, svcs, "p@example.com", models.RolePatient)
	provider := registerUser(t, svcs, "dr@example.com", models.RoleProvider)
	rec, err := svcs.Records.Create(ctx, patient, eyeExamCandidate(), "test")
	require.NoError(t, err)
	sh, err := svcs.Shares.Grant(ctx, patient, rec.ID, provider.UserID, time.Now().Add(time.Hour), "test")
	require.NoError(t, err)

	_, err = svcs.Shares.AppendNote(ctx, provider, sh.ID, "first note", time.Now(), "test")
	require.NoError(t, err)
	got, err := svcs.Shares.AppendNote(ctx, provider, sh.ID, "second note", time.Now(), "test")
	require.NoError(t, err)

	require.Len(t, got.Notes, 2)
	assert.Equal(t, "first note", got.Notes[0].Text)
	assert.Equal(t, "second note", got.Notes[1].Text)
}
