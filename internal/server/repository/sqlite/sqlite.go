package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"healthvault/internal/server/repository"
	"healthvault/internal/shared/models"
)

type Repository struct {
	db *sql.DB
}

func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash BLOB NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			specialty TEXT NOT NULL,
			record_type TEXT NOT NULL,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			provider TEXT NOT NULL DEFAULT '',
			content BLOB NOT NULL,
			language TEXT NOT NULL DEFAULT 'en',
			original_language TEXT NOT NULL DEFAULT '',
			translated_details TEXT NOT NULL DEFAULT '',
			attachments BLOB,
			insights BLOB,
			status TEXT NOT NULL,
			version INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			FOREIGN KEY(owner_id) REFERENCES users(id)
		);
		CREATE TABLE IF NOT EXISTS shares (
			id TEXT PRIMARY KEY,
			record_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			revoked INTEGER NOT NULL DEFAULT 0,
			notes BLOB,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY(record_id) REFERENCES records(id)
		);
		CREATE TABLE IF NOT EXISTS access_log (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			record_id TEXT NOT NULL,
			access_type TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			device_info TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);
	`); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

// Users

func (r *Repository) CreateUser(ctx context.Context, email string, passwordHash []byte, role models.Role) (models.User, error) {
	u := models.User{ID: uuid.NewString(), Email: email, Role: role, CreatedAt: time.Now().UTC()}
	_, err := r.db.ExecContext(ctx, `INSERT INTO users(id,email,password_hash,role,created_at) VALUES(?,?,?,?,?)`,
		u.ID, u.Email, passwordHash, string(u.Role), u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.User{}, repository.ErrDuplicate
		}
		return models.User{}, repository.Storage("create user", err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (id string, role models.Role, passwordHash []byte, err error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, role, password_hash FROM users WHERE email = ?`, email)
	var roleStr string
	if err = row.Scan(&id, &roleStr, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", nil, repository.ErrNotFound
		}
		return "", "", nil, repository.Storage("get user", err)
	}
	return id, models.Role(roleStr), passwordHash, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, role, created_at FROM users WHERE id = ?`, id)
	var u models.User
	var roleStr string
	if err := row.Scan(&u.ID, &u.Email, &roleStr, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, repository.ErrNotFound
		}
		return models.User{}, repository.Storage("get user", err)
	}
	u.Role = models.Role(roleStr)
	return u, nil
}

// Records

const recordColumns = `id, owner_id, specialty, record_type, title, date, provider, content,
	language, original_language, translated_details, attachments, insights,
	status, version, created_at, updated_at`

func (r *Repository) CreateRecord(ctx context.Context, rec models.HealthRecord) (models.HealthRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Version = 1
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	content, attachments, insights := marshalRecordBlobs(rec)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO records(`+recordColumns+`)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.OwnerID, string(rec.Specialty), string(rec.RecordType), rec.Title,
		string(rec.Date), rec.Provider, content,
		rec.Language, rec.OriginalLanguage, rec.TranslatedDetails, attachments, insights,
		string(rec.Status), rec.Version, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return models.HealthRecord{}, repository.Storage("create record", err)
	}
	return rec, nil
}

// UpdateRecord replaces record fields when the stored version still matches
// expectedVersion, bumping the version. A stale version yields
// ErrVersionConflict so a concurrent writer's changes are never silently
// discarded.
func (r *Repository) UpdateRecord(ctx context.Context, rec models.HealthRecord, expectedVersion int64) (models.HealthRecord, error) {
	now := time.Now().UTC()
	content, attachments, insights := marshalRecordBlobs(rec)
	res, err := r.db.ExecContext(ctx, `
		UPDATE records SET specialty=?, record_type=?, title=?, date=?, provider=?,
			content=?, language=?, original_language=?, translated_details=?,
			attachments=?, insights=?, status=?, version=?, updated_at=?
		WHERE id=? AND owner_id=? AND version=?`,
		string(rec.Specialty), string(rec.RecordType), rec.Title, string(rec.Date), rec.Provider,
		content, rec.Language, rec.OriginalLanguage, rec.TranslatedDetails,
		attachments, insights, string(rec.Status), expectedVersion+1, now,
		rec.ID, rec.OwnerID, expectedVersion)
	if err != nil {
		return models.HealthRecord{}, repository.Storage("update record", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		var exists int
		row := r.db.QueryRowContext(ctx, `SELECT 1 FROM records WHERE id=? AND owner_id=?`, rec.ID, rec.OwnerID)
		if err := row.Scan(&exists); err != nil {
			return models.HealthRecord{}, repository.ErrNotFound
		}
		return models.HealthRecord{}, repository.ErrVersionConflict
	}
	rec.Version = expectedVersion + 1
	rec.UpdatedAt = now
	return rec, nil
}

// ListRecords returns the owner's non-deleted records, newest clinical date
// first.
func (r *Repository) ListRecords(ctx context.Context, ownerID string) ([]models.HealthRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM records
		WHERE owner_id = ? AND status != ?
		ORDER BY date DESC, created_at DESC`, ownerID, string(models.StatusDeleted))
	if err != nil {
		return nil, repository.Storage("list records", err)
	}
	defer rows.Close()
	var out []models.HealthRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, repository.Storage("scan record", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) GetRecord(ctx context.Context, ownerID, id string) (models.HealthRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM records
		WHERE owner_id = ? AND id = ? AND status != ?`, ownerID, id, string(models.StatusDeleted))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.HealthRecord{}, repository.ErrNotFound
		}
		return models.HealthRecord{}, repository.Storage("get record", err)
	}
	return rec, nil
}

// GetRecordByID fetches a record regardless of owner; used when resolving a
// share on the provider's behalf.
func (r *Repository) GetRecordByID(ctx context.Context, id string) (models.HealthRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.HealthRecord{}, repository.ErrNotFound
		}
		return models.HealthRecord{}, repository.Storage("get record", err)
	}
	return rec, nil
}

// SoftDeleteRecord flags the record deleted; the row and its audit trail
// remain.
func (r *Repository) SoftDeleteRecord(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE records SET status = ?, updated_at = ?
		WHERE owner_id = ? AND id = ? AND status != ?`,
		string(models.StatusDeleted), time.Now().UTC(), ownerID, id, string(models.StatusDeleted))
	if err != nil {
		return repository.Storage("delete record", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Shares

func (r *Repository) CreateShare(ctx context.Context, sh models.Share) (models.Share, error) {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	sh.CreatedAt = time.Now().UTC()
	notes, _ := json.Marshal(sh.Notes)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shares(id, record_id, owner_id, provider_id, expires_at, revoked, notes, created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		sh.ID, sh.RecordID, sh.OwnerID, sh.ProviderID, sh.ExpiresAt, sh.Revoked, notes, sh.CreatedAt)
	if err != nil {
		return models.Share{}, repository.Storage("create share", err)
	}
	return sh, nil
}

func (r *Repository) GetShare(ctx context.Context, id string) (models.Share, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, record_id, owner_id, provider_id, expires_at, revoked, notes, created_at
		FROM shares WHERE id = ?`, id)
	return scanShare(row)
}

func (r *Repository) ListSharesForProvider(ctx context.Context, providerID string) ([]models.Share, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_id, owner_id, provider_id, expires_at, revoked, notes, created_at
		FROM shares WHERE provider_id = ? ORDER BY created_at DESC`, providerID)
	if err != nil {
		return nil, repository.Storage("list shares", err)
	}
	defer rows.Close()
	var out []models.Share
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// RevokeShare is owner-triggered and immediate.
func (r *Repository) RevokeShare(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE shares SET revoked = 1 WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return repository.Storage("revoke share", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ReplaceShareNotes persists the full note sequence after an append. The
// service guarantees the sequence only ever grows.
func (r *Repository) ReplaceShareNotes(ctx context.Context, shareID string, notes []models.ProviderNote) error {
	blob, _ := json.Marshal(notes)
	res, err := r.db.ExecContext(ctx, `UPDATE shares SET notes = ? WHERE id = ?`, blob, shareID)
	if err != nil {
		return repository.Storage("update share notes", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Access log

func (r *Repository) AppendAccessLog(ctx context.Context, entry models.AccessLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_log(user_id, record_id, access_type, timestamp, device_info)
		VALUES(?,?,?,?,?)`,
		entry.UserID, entry.RecordID, string(entry.AccessType), entry.Timestamp, entry.DeviceInfo)
	return repository.Storage("append access log", err)
}

func (r *Repository) ListAccessLog(ctx context.Context, recordID string) ([]models.AccessLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, record_id, access_type, timestamp, device_info
		FROM access_log WHERE record_id = ? ORDER BY seq ASC`, recordID)
	if err != nil {
		return nil, repository.Storage("list access log", err)
	}
	defer rows.Close()
	var out []models.AccessLogEntry
	for rows.Next() {
		var e models.AccessLogEntry
		var accessType string
		if err := rows.Scan(&e.UserID, &e.RecordID, &accessType, &e.Timestamp, &e.DeviceInfo); err != nil {
			return nil, repository.Storage("scan access log", err)
		}
		e.AccessType = models.AccessType(accessType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Refresh tokens

func (r *Repository) CreateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO refresh_tokens(token, user_id, expires_at, created_at) VALUES(?,?,?,?)`,
		token, userID, expiresAt, time.Now().UTC())
	return repository.Storage("create refresh token", err)
}

func (r *Repository) GetRefreshToken(ctx context.Context, token string) (userID string, expiresAt time.Time, err error) {
	row := r.db.QueryRowContext(ctx, `SELECT user_id, expires_at FROM refresh_tokens WHERE token = ?`, token)
	if err = row.Scan(&userID, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, repository.ErrNotFound
		}
		return "", time.Time{}, repository.Storage("get refresh token", err)
	}
	return userID, expiresAt, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token)
	return repository.Storage("delete refresh token", err)
}

// Scanning helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalRecordBlobs(rec models.HealthRecord) (content, attachments, insights []byte) {
	content, _ = json.Marshal(rec.Content)
	if rec.Attachments != nil {
		attachments, _ = json.Marshal(rec.Attachments)
	}
	if rec.Insights != nil {
		insights, _ = json.Marshal(rec.Insights)
	}
	return content, attachments, insights
}

func scanRecord(row rowScanner) (models.HealthRecord, error) {
	var rec models.HealthRecord
	var specialty, recordType, date, status string
	var content, attachments, insights []byte
	if err := row.Scan(&rec.ID, &rec.OwnerID, &specialty, &recordType, &rec.Title, &date,
		&rec.Provider, &content, &rec.Language, &rec.OriginalLanguage, &rec.TranslatedDetails,
		&attachments, &insights, &status, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return models.HealthRecord{}, err
	}
	rec.Specialty = models.Specialty(specialty)
	rec.RecordType = models.RecordType(recordType)
	rec.Date = models.Date(date)
	rec.Status = models.RecordStatus(status)
	_ = json.Unmarshal(content, &rec.Content)
	if len(attachments) > 0 {
		_ = json.Unmarshal(attachments, &rec.Attachments)
	}
	if len(insights) > 0 {
		_ = json.Unmarshal(insights, &rec.Insights)
	}
	return rec, nil
}

func scanShare(row rowScanner) (models.Share, error) {
	var sh models.Share
	var notes []byte
	if err := row.Scan(&sh.ID, &sh.RecordID, &sh.OwnerID, &sh.ProviderID,
		&sh.ExpiresAt, &sh.Revoked, &notes, &sh.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Share{}, repository.ErrNotFound
		}
		return models.Share{}, repository.Storage("scan share", err)
	}
	if len(notes) > 0 {
		_ = json.Unmarshal(notes, &sh.Notes)
	}
	return sh, nil
}
