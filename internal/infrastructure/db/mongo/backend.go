package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/altrapisos/crm/internal/core/domain"
	"github.com/altrapisos/crm/internal/core/ports"
)

// Backend is the hosted document store: one collection per CRM collection,
// keyed by _id. Realtime changes come from a database change stream.
type Backend struct {
	client   *mongo.Client
	db       *mongo.Database
	records  *mongo.Collection
	settings *mongo.Collection
	users    *mongo.Collection
	logs     *mongo.Collection
}

var _ ports.RemoteBackend = (*Backend)(nil)

// NewBackend wraps an already connected client.
func NewBackend(client *mongo.Client, db *mongo.Database) *Backend {
	return &Backend{
		client:   client,
		db:       db,
		records:  db.Collection(ports.CollectionRecords),
		settings: db.Collection(ports.CollectionSettings),
		users:    db.Collection(ports.CollectionUsers),
		logs:     db.Collection(ports.CollectionAuditLogs),
	}
}

// EnsureIndexes creates the audit timestamp index used by ListLogs.
func (b *Backend) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*defaultTimeout)
	defer cancel()

	_, err := b.logs.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "timestamp", Value: -1}}})
	return err
}

func (b *Backend) ListRecords(ctx context.Context) ([]domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := b.records.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	records := []domain.Record{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func (b *Backend) InsertRecords(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = r
	}
	if _, err := b.records.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	return nil
}

func (b *Backend) UpsertRecord(ctx context.Context, r domain.Record) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := b.records.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	return err
}

func (b *Backend) DeleteRecord(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := b.records.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (b *Backend) SetRecordOwner(ctx context.Context, id, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := b.records.UpdateByID(ctx, id, bson.M{"$set": bson.M{"owner": owner}})
	return err
}

type settingsDoc struct {
	ID                string `bson:"_id"`
	domain.AppOptions `bson:",inline"`
}

func (b *Backend) GetSettings(ctx context.Context) (domain.AppOptions, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc settingsDoc
	err := b.settings.FindOne(ctx, bson.M{"_id": ports.SettingsKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.AppOptions{}, false, nil
	}
	if err != nil {
		return domain.AppOptions{}, false, fmt.Errorf("find settings: %w", err)
	}
	return doc.AppOptions, true, nil
}

func (b *Backend) InsertSettings(ctx context.Context, o domain.AppOptions) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := b.settings.InsertOne(ctx, settingsDoc{ID: ports.SettingsKey, AppOptions: o})
	return err
}

func (b *Backend) UpsertSettings(ctx context.Context, o domain.AppOptions) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := settingsDoc{ID: ports.SettingsKey, AppOptions: o}
	_, err := b.settings.ReplaceOne(ctx, bson.M{"_id": ports.SettingsKey}, doc, options.Replace().SetUpsert(true))
	return err
}

func (b *Backend) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := b.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users := []domain.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (b *Backend) InsertUser(ctx context.Context, u domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := b.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUser replaces the document. _id is immutable in MongoDB, so a
// username change is written as insert-then-delete.
func (b *Backend) UpdateUser(ctx context.Context, username string, u domain.User) error {
	if u.Username != username {
		if err := b.InsertUser(ctx, u); err != nil {
			return err
		}
		return b.DeleteUser(ctx, username)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := b.users.ReplaceOne(ctx, bson.M{"_id": username}, u)
	if err != nil {
		return fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (b *Backend) SetUserProfile(ctx context.Context, username, name, email string) error {
	return b.setUserFields(ctx, username, bson.M{"name": name, "email": email})
}

func (b *Backend) SetUserPassword(ctx context.Context, username, password string) error {
	return b.setUserFields(ctx, username, bson.M{"password": password})
}

func (b *Backend) setUserFields(ctx context.Context, username string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := b.users.UpdateByID(ctx, username, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (b *Backend) DeleteUser(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := b.users.DeleteOne(ctx, bson.M{"_id": username})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (b *Backend) ListLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit))
	cur, err := b.logs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find logs: %w", err)
	}
	logs := []domain.AuditLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode logs: %w", err)
	}
	return logs, nil
}

func (b *Backend) InsertLog(ctx context.Context, l domain.AuditLog) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := b.logs.InsertOne(ctx, l)
	return err
}

func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return b.client.Ping(ctx, nil)
}

func (b *Backend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}
