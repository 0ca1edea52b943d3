package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scribeflow/scribeflow/internal/types"
)

// MongoStore keeps the task list in a MongoDB collection, one document
// per row. Used when several machines work the same list; Mark is a
// single-document update, so two workers never clobber each other's
// rows.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoStore connects to the configured collection.
func NewMongoStore(uri, database, collection string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

// taskDoc is the collection schema.
type taskDoc struct {
	Row    int    `bson:"row"`
	Title  string `bson:"title"`
	Status string `bson:"status"`
}

func (s *MongoStore) Pending() ([]types.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filter := bson.M{"status": bson.M{"$nin": bson.A{
		string(types.StatusCompleted),
		string(types.StatusFailed),
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "row", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("find: %w", err)}
	}
	defer cursor.Close(ctx)

	var tasks []types.Task
	for cursor.Next(ctx) {
		var doc taskDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("decode: %w", err)}
		}
		tasks = append(tasks, types.Task{
			Row:    doc.Row,
			Title:  doc.Title,
			Status: types.TaskStatus(doc.Status),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("cursor: %w", err)}
	}
	return tasks, nil
}

func (s *MongoStore) Mark(row int, status types.TaskStatus) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := s.collection.UpdateOne(ctx,
		bson.M{"row": row},
		bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("update: %w", err)}
	}
	if res.MatchedCount == 0 {
		return &types.StoreError{Backend: "mongodb", Err: fmt.Errorf("row %d not found", row)}
	}
	s.logger.Debug("task marked", "row", row, "status", string(status))
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
