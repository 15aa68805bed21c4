// Package mongo is the document-store implementation of the persistence
// collaborator, for deployments where records live in MongoDB rather than
// the embedded sqlite file.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"healthvault/internal/server/repository"
	"healthvault/internal/shared/models"
)

type Repository struct {
	client *mongo.Client

	users         *mongo.Collection
	records       *mongo.Collection
	shares        *mongo.Collection
	accessLog     *mongo.Collection
	refreshTokens *mongo.Collection
}

func New(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db := client.Database(database)
	users := db.Collection("users")
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Repository{
		client:        client,
		users:         users,
		records:       db.Collection("records"),
		shares:        db.Collection("shares"),
		accessLog:     db.Collection("access_log"),
		refreshTokens: db.Collection("refresh_tokens"),
	}, nil
}

func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Users

type userDoc struct {
	ID           string      `bson:"_id"`
	Email        string      `bson:"email"`
	PasswordHash []byte      `bson:"password_hash"`
	Role         models.Role `bson:"role"`
	CreatedAt    time.Time   `bson:"created_at"`
}

func (r *Repository) CreateUser(ctx context.Context, email string, passwordHash []byte, role models.Role) (models.User, error) {
	doc := userDoc{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, repository.ErrDuplicate
		}
		return models.User{}, repository.Storage("create user", err)
	}
	return models.User{ID: doc.ID, Email: doc.Email, Role: doc.Role, CreatedAt: doc.CreatedAt}, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (string, models.Role, []byte, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", "", nil, repository.ErrNotFound
		}
		return "", "", nil, repository.Storage("get user", err)
	}
	return doc.ID, doc.Role, doc.PasswordHash, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, repository.ErrNotFound
		}
		return models.User{}, repository.Storage("get user", err)
	}
	return models.User{ID: doc.ID, Email: doc.Email, Role: doc.Role, CreatedAt: doc.CreatedAt}, nil
}

// Records

func (r *Repository) CreateRecord(ctx context.Context, rec models.HealthRecord) (models.HealthRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Version = 1
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if _, err := r.records.InsertOne(ctx, rec); err != nil {
		return models.HealthRecord{}, repository.Storage("create record", err)
	}
	return rec, nil
}

func (r *Repository) UpdateRecord(ctx context.Context, rec models.HealthRecord, expectedVersion int64) (models.HealthRecord, error) {
	rec.Version = expectedVersion + 1
	rec.UpdatedAt = time.Now().UTC()
	res, err := r.records.ReplaceOne(ctx, bson.M{
		"_id":      rec.ID,
		"owner_id": rec.OwnerID,
		"version":  expectedVersion,
	}, rec)
	if err != nil {
		return models.HealthRecord{}, repository.Storage("update record", err)
	}
	if res.MatchedCount == 0 {
		count, err := r.records.CountDocuments(ctx, bson.M{"_id": rec.ID, "owner_id": rec.OwnerID})
		if err != nil || count == 0 {
			return models.HealthRecord{}, repository.ErrNotFound
		}
		return models.HealthRecord{}, repository.ErrVersionConflict
	}
	return rec, nil
}

func (r *Repository) ListRecords(ctx context.Context, ownerID string) ([]models.HealthRecord, error) {
	filter := bson.M{"owner_id": ownerID, "status": bson.M{"$ne": string(models.StatusDeleted)}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := r.records.Find(ctx, filter, opts)
	if err != nil {
		return nil, repository.Storage("list records", err)
	}
	defer cur.Close(ctx)
	var out []models.HealthRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, repository.Storage("decode records", err)
	}
	return out, nil
}

func (r *Repository) GetRecord(ctx context.Context, ownerID, id string) (models.HealthRecord, error) {
	var rec models.HealthRecord
	filter := bson.M{"_id": id, "owner_id": ownerID, "status": bson.M{"$ne": string(models.StatusDeleted)}}
	if err := r.records.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.HealthRecord{}, repository.ErrNotFound
		}
		return models.HealthRecord{}, repository.Storage("get record", err)
	}
	return rec, nil
}

func (r *Repository) GetRecordByID(ctx context.Context, id string) (models.HealthRecord, error) {
	var rec models.HealthRecord
	if err := r.records.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.HealthRecord{}, repository.ErrNotFound
		}
		return models.HealthRecord{}, repository.Storage("get record", err)
	}
	return rec, nil
}

func (r *Repository) SoftDeleteRecord(ctx context.Context, ownerID, id string) error {
	res, err := r.records.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID, "status": bson.M{"$ne": string(models.StatusDeleted)}},
		bson.M{"$set": bson.M{"status": string(models.StatusDeleted), "updated_at": time.Now().UTC()}})
	if err != nil {
		return repository.Storage("delete record", err)
	}
	if res.MatchedCount == 0 {
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
	if _, err := r.shares.InsertOne(ctx, sh); err != nil {
		return models.Share{}, repository.Storage("create share", err)
	}
	return sh, nil
}

func (r *Repository) GetShare(ctx context.Context, id string) (models.Share, error) {
	var sh models.Share
	if err := r.shares.FindOne(ctx, bson.M{"_id": id}).Decode(&sh); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Share{}, repository.ErrNotFound
		}
		return models.Share{}, repository.Storage("get share", err)
	}
	return sh, nil
}

func (r *Repository) ListSharesForProvider(ctx context.Context, providerID string) ([]models.Share, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.shares.Find(ctx, bson.M{"provider_id": providerID}, opts)
	if err != nil {
		return nil, repository.Storage("list shares", err)
	}
	defer cur.Close(ctx)
	var out []models.Share
	if err := cur.All(ctx, &out); err != nil {
		return nil, repository.Storage("decode shares", err)
	}
	return out, nil
}

func (r *Repository) RevokeShare(ctx context.Context, ownerID, id string) error {
	res, err := r.shares.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return repository.Storage("revoke share", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) ReplaceShareNotes(ctx context.Context, shareID string, notes []models.ProviderNote) error {
	res, err := r.shares.UpdateOne(ctx,
		bson.M{"_id": shareID},
		bson.M{"$set": bson.M{"notes": notes}})
	if err != nil {
		return repository.Storage("update share notes", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Access log

func (r *Repository) AppendAccessLog(ctx context.Context, entry models.AccessLogEntry) error {
	_, err := r.accessLog.InsertOne(ctx, entry)
	return repository.Storage("append access log", err)
}

func (r *Repository) ListAccessLog(ctx context.Context, recordID string) ([]models.AccessLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.accessLog.Find(ctx, bson.M{"record_id": recordID}, opts)
	if err != nil {
		return nil, repository.Storage("list access log", err)
	}
	defer cur.Close(ctx)
	var out []models.AccessLogEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, repository.Storage("decode access log", err)
	}
	return out, nil
}

// Refresh tokens

type refreshTokenDoc struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *Repository) CreateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.refreshTokens.InsertOne(ctx, refreshTokenDoc{
		Token: token, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
	})
	return repository.Storage("create refresh token", err)
}

func (r *Repository) GetRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	var doc refreshTokenDoc
	if err := r.refreshTokens.FindOne(ctx, bson.M{"_id": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", time.Time{}, repository.ErrNotFound
		}
		return "", time.Time{}, repository.Storage("get refresh token", err)
	}
	return doc.UserID, doc.ExpiresAt, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.refreshTokens.DeleteOne(ctx, bson.M{"_id": token})
	return repository.Storage("delete refresh token", err)
}
