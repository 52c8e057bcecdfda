package remote

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skywaveads/erp-core/internal/errors"
	"github.com/skywaveads/erp-core/internal/logging"
	"github.com/skywaveads/erp-core/internal/models"
)

// MongoConfig holds the remote connection settings.
type MongoConfig struct {
	URI      string
	Database string
	// OpTimeout bounds each individual remote call.
	OpTimeout time.Duration
}

// MongoConfigFromEnv reads the connection settings from the environment.
func MongoConfigFromEnv() MongoConfig {
	cfg := MongoConfig{
		URI:       os.Getenv("MONGO_URI"),
		Database:  os.Getenv("MONGO_DB"),
		OpTimeout: 10 * time.Second,
	}
	if cfg.Database == "" {
		cfg.Database = "erp_core"
	}
	return cfg
}

// MongoStore implements Store over a MongoDB deployment.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    MongoConfig
}

// ConnectMongo establishes the remote connection. It fails fast: the
// supervisor decides whether to keep retrying.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrRemoteUnavailable, "remote store is not configured")
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrRemoteUnavailable, "remote connect failed", err)
	}

	store := &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
		cfg:    cfg,
	}
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	store.ensureIndexes(ctx)
	return store, nil
}

// lookupIndexes lists the per-collection fields the engine queries the
// remote store by. Not unique: the local duplicate guard owns uniqueness,
// and a merge in progress may briefly hold two documents with one key.
var lookupIndexes = map[string]string{
	"clients":  "name",
	"projects": "client_id",
	"invoices": "invoice_number",
	"payments": "project_id",
	"accounts": "code",
	"expenses": "project_id",
	"services": "name",
	"users":    "username",
	"tasks":    "project_id",
}

func (s *MongoStore) ensureIndexes(ctx context.Context) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	for collection, field := range lookupIndexes {
		_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}},
		})
		if err != nil {
			// Index creation is best effort; lookups still work.
			logging.Warn("remote index creation failed", map[string]interface{}{
				"collection": collection,
				"field":      field,
				"error":      err.Error(),
			})
		}
	}
}

func (s *MongoStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.OpTimeout)
}

// Insert stores a new document and returns its assigned id as a hex
// string.
func (s *MongoStore) Insert(ctx context.Context, collection string, doc models.Document) (string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	payload := bson.M(doc)
	delete(payload, "_id")

	res, err := s.db.Collection(collection).InsertOne(ctx, payload)
	if err != nil {
		return "", errors.Wrap(errors.ErrRemoteUnavailable, "remote insert failed", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.Newf(errors.ErrInternal, "unexpected remote id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// Update replaces the document with the given remote id.
func (s *MongoStore) Update(ctx context.Context, collection, remoteID string, doc models.Document) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(remoteID)
	if err != nil {
		return errors.Newf(errors.ErrInternal, "invalid remote id %q", remoteID)
	}

	payload := bson.M(doc)
	delete(payload, "_id")

	_, err = s.db.Collection(collection).ReplaceOne(
		ctx, bson.M{"_id": oid}, payload,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrRemoteUnavailable, "remote update failed", err)
	}
	return nil
}

// Delete removes the document with the given remote id. A document that
// is already gone counts as deleted.
func (s *MongoStore) Delete(ctx context.Context, collection, remoteID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(remoteID)
	if err != nil {
		return errors.Newf(errors.ErrInternal, "invalid remote id %q", remoteID)
	}

	_, err = s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(errors.ErrRemoteUnavailable, "remote delete failed", err)
	}
	return nil
}

// FetchAll returns every document in the collection with "_id" rendered
// as a hex string.
func (s *MongoStore) FetchAll(ctx context.Context, collection string) ([]models.Document, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrRemoteUnavailable, "remote fetch failed", err)
	}
	defer cursor.Close(ctx)

	var out []models.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, errors.Wrap(errors.ErrRemoteUnavailable, "remote decode failed", err)
		}
		doc := models.Document(raw)
		if oid, ok := raw["_id"].(primitive.ObjectID); ok {
			doc["_id"] = oid.Hex()
		}
		out = append(out, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrRemoteUnavailable, "remote cursor failed", err)
	}
	return out, nil
}

// Ping verifies the connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Ping(ctx, nil); err != nil {
		return errors.Wrap(errors.ErrRemoteUnavailable, "remote ping failed", err)
	}
	return nil
}

// Close releases the connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
