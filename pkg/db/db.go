// Package db provides the persistence layer used by the application. It wraps
// a MongoDB database and exposes helper methods for the user, song, playlist,
// rating and report collections. Callers are expected to open a single DB
// instance using New at startup and pass it to the components that need it;
// there is no package-level client.
//
// Counter updates (likes, dislikes) are applied with server-side $inc so
// concurrent raters never lose updates; nothing in this package does a
// read-modify-write on a counter.

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a referenced document does not exist. Handlers
// translate it into a 404 response.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when an insert violates a unique index, e.g.
// registering an email twice.
var ErrDuplicate = errors.New("duplicate document")

// DB bundles the collection handles used by the rest of the application.
type DB struct {
	client *mongo.Client

	users           *mongo.Collection
	songs           *mongo.Collection
	playlists       *mongo.Collection
	playlistRatings *mongo.Collection
	songRatings     *mongo.Collection
	reports         *mongo.Collection
}

// New connects to the MongoDB instance at uri and prepares the named database
// for use, creating the indexes the application relies on. The returned DB
// owns the client; call Close on shutdown.
func New(ctx context.Context, uri, name string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	d := client.Database(name)
	db := &DB{
		client:          client,
		users:           d.Collection("users"),
		songs:           d.Collection("songs"),
		playlists:       d.Collection("playlists"),
		playlistRatings: d.Collection("playlist_ratings"),
		songRatings:     d.Collection("song_ratings"),
		reports:         d.Collection("playlist_reports"),
	}
	if err := db.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("init indexes: %w", err)
	}
	return db, nil
}

// ensureIndexes creates the unique indexes backing the dedup and
// one-rating-per-user invariants. Creation is idempotent.
func (db *DB) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	sparseUnique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetSparse(true)}
	}

	type indexed struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}
	models := []indexed{
		{db.users, unique(bson.D{{Key: "email", Value: 1}})},
		{db.songs, sparseUnique(bson.D{{Key: "spotify_id", Value: 1}})},
		{db.playlistRatings, unique(bson.D{{Key: "target_id", Value: 1}, {Key: "user_id", Value: 1}})},
		{db.songRatings, unique(bson.D{{Key: "target_id", Value: 1}, {Key: "user_id", Value: 1}})},
		{db.playlists, mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}}},
		{db.reports, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}},
	}
	for _, m := range models {
		if _, err := m.coll.Indexes().CreateOne(ctx, m.model); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects the underlying client. Safe to defer from main.
func (db *DB) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// wrapErr maps driver sentinel errors onto the package's own so callers do
// not import the driver to classify failures.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
