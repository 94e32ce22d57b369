// Package audit provides operational telemetry sinks for the warmer:
// a record of each warm cycle's outcome, not a cache of upstream
// repodata. This is purely diagnostic history about the proxy's own
// background behavior.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/regro/metachannel/pkg/store"
)

// cycleRecord is the document shape written for each warm cycle.
type cycleRecord struct {
	Channels string    `bson:"channels"`
	Arch     string    `bson:"arch"`
	OK       bool      `bson:"ok"`
	Error    string    `bson:"error,omitempty"`
	Duration int64     `bson:"duration_ms"`
	At       time.Time `bson:"at"`
}

// MongoSink records warmer-cycle outcomes to a MongoDB collection.
// Writes are best-effort: a failure to record a cycle is logged by the
// caller but never fails the warm cycle itself.
type MongoSink struct {
	collection *mongo.Collection
}

// NewMongoSink returns a MongoSink writing to the given collection.
func NewMongoSink(client *mongo.Client, database, collection string) *MongoSink {
	return &MongoSink{collection: client.Database(database).Collection(collection)}
}

// Connect dials uri and returns a ready MongoSink writing to
// database.collection.
func Connect(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return NewMongoSink(client, database, collection), nil
}

// RecordCycle implements store.AuditSink.
func (s *MongoSink) RecordCycle(ctx context.Context, target store.Target, ok bool, cause error, duration time.Duration, at time.Time) {
	record := cycleRecord{
		Channels: target.Channels.String(),
		Arch:     string(target.Arch),
		OK:       ok,
		Duration: duration.Milliseconds(),
		At:       at,
	}
	if cause != nil {
		record.Error = cause.Error()
	}

	// Best-effort: a dropped audit write must never surface to the warmer.
	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _ = s.collection.InsertOne(insertCtx, record)
}

var _ store.AuditSink = (*MongoSink)(nil)
