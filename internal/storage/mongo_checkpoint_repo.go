package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB checkpoint repository.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. platformer
	Collection string // e.g. checkpoints
}

// MongoCheckpointRepo implements CheckpointRepo on MongoDB backend.
type MongoCheckpointRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type checkpointDoc struct {
	Slot    string    `bson:"slot"`
	Level   string    `bson:"level"`
	X       int       `bson:"x"`
	Y       int       `bson:"y"`
	SavedAt time.Time `bson:"saved_at"`
}

// NewMongoCheckpointRepo establishes connection and ensures the unique slot index.
func NewMongoCheckpointRepo(ctx context.Context, cfg MongoConfig) (*MongoCheckpointRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "platformer"
	}
	if cfg.Collection == "" {
		cfg.Collection = "checkpoints"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	repo := &MongoCheckpointRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func (m *MongoCheckpointRepo) ensureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "slot", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("slot_unique"),
	}
	if _, err := m.collection.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (m *MongoCheckpointRepo) Save(ctx context.Context, key string, cp Checkpoint) error {
	if err := validateKey(key); err != nil {
		return err
	}
	doc := toDoc(key, cp)
	_, err := m.collection.ReplaceOne(ctx, bson.M{"slot": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save %q: %w", key, err)
	}
	return nil
}

func (m *MongoCheckpointRepo) Load(ctx context.Context, key string) (Checkpoint, bool, error) {
	if err := validateKey(key); err != nil {
		return Checkpoint{}, false, err
	}
	var doc checkpointDoc
	err := m.collection.FindOne(ctx, bson.M{"slot": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("mongo load %q: %w", key, err)
	}
	cp := Checkpoint{Level: doc.Level, SavedAt: doc.SavedAt}
	cp.Position.X, cp.Position.Y = doc.X, doc.Y
	return cp, true, nil
}

func (m *MongoCheckpointRepo) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	res, err := m.collection.DeleteOne(ctx, bson.M{"slot": key})
	if err != nil {
		return fmt.Errorf("mongo delete %q: %w", key, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("слот %q: %w", key, ErrCheckpointNotFound)
	}
	return nil
}

// BatchSave uses one unordered bulk write of upserts
func (m *MongoCheckpointRepo) BatchSave(ctx context.Context, checkpoints map[string]Checkpoint) error {
	if len(checkpoints) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(checkpoints))
	for key, cp := range checkpoints {
		if err := validateKey(key); err != nil {
			return err
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"slot": key}).
			SetReplacement(toDoc(key, cp)).
			SetUpsert(true))
	}
	if _, err := m.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("mongo batch save: %w", err)
	}
	return nil
}

func (m *MongoCheckpointRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func toDoc(key string, cp Checkpoint) checkpointDoc {
	return checkpointDoc{
		Slot:    key,
		Level:   cp.Level,
		X:       cp.Position.X,
		Y:       cp.Position.Y,
		SavedAt: cp.SavedAt.UTC(),
	}
}
