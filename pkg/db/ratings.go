// Rating operations for playlists and songs. Both targets share the same
// semantics: at most one rating per (target, user), rating changes collapse
// into an idempotent upsert, and the denormalised like/dislike counters on
// the target document are adjusted with server-side $inc in a single update
// so concurrent raters cannot lose increments.

package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// counterField maps a rating kind onto the counter field it drives.
func counterField(k RatingKind) string {
	if k == RatingLike {
		return "likes"
	}
	return "dislikes"
}

// RatePlaylist records the user's like or dislike for a playlist. Repeating
// the same rating is a no-op; switching kind flips both counters in one
// atomic update. The returned flag reports whether anything changed.
func (db *DB) RatePlaylist(ctx context.Context, playlistID, userID primitive.ObjectID, kind RatingKind) (bool, error) {
	return db.rate(ctx, db.playlistRatings, db.playlists, playlistID, userID, kind)
}

// RateSong is RatePlaylist for song targets.
func (db *DB) RateSong(ctx context.Context, songID, userID primitive.ObjectID, kind RatingKind) (bool, error) {
	return db.rate(ctx, db.songRatings, db.songs, songID, userID, kind)
}

// UnratePlaylist removes the user's rating and decrements the matching
// counter. ErrNotFound is returned when no rating exists.
func (db *DB) UnratePlaylist(ctx context.Context, playlistID, userID primitive.ObjectID) error {
	return db.unrate(ctx, db.playlistRatings, db.playlists, playlistID, userID)
}

// UnrateSong is UnratePlaylist for song targets.
func (db *DB) UnrateSong(ctx context.Context, songID, userID primitive.ObjectID) error {
	return db.unrate(ctx, db.songRatings, db.songs, songID, userID)
}

// PlaylistRatingOf returns the user's current rating kind for the playlist,
// or "" when the user has not rated it.
func (db *DB) PlaylistRatingOf(ctx context.Context, playlistID, userID primitive.ObjectID) (RatingKind, error) {
	return ratingOf(ctx, db.playlistRatings, playlistID, userID)
}

// SongRatingOf is PlaylistRatingOf for song targets.
func (db *DB) SongRatingOf(ctx context.Context, songID, userID primitive.ObjectID) (RatingKind, error) {
	return ratingOf(ctx, db.songRatings, songID, userID)
}

// flipFilter matches the user's rating for the target only while it holds a
// kind other than want. Of two concurrent flips to the same kind exactly one
// matches; the loser must not touch the counters.
func flipFilter(targetID, userID primitive.ObjectID, want RatingKind) bson.M {
	return bson.M{"target_id": targetID, "user_id": userID, "type": bson.M{"$ne": want}}
}

// flipCounters builds the single $inc document that moves one rating from one
// counter to the other.
func flipCounters(from, to RatingKind) bson.M {
	return bson.M{counterField(from): -1, counterField(to): 1}
}

func (db *DB) rate(ctx context.Context, ratings, targets *mongo.Collection, targetID, userID primitive.ObjectID, kind RatingKind) (bool, error) {
	now := time.Now().UTC()

	// Claim the rating document in one conditional command. The $ne guard
	// ties the counter adjustment to the request that actually changed the
	// stored kind.
	var prev Rating
	err := ratings.FindOneAndUpdate(ctx, flipFilter(targetID, userID, kind),
		bson.M{"$set": bson.M{"type": kind, "updated_at": now}}).Decode(&prev)
	switch {
	case err == nil:
		// One update adjusts both counters so readers never observe the
		// flip half-applied.
		_, err := targets.UpdateOne(ctx, bson.M{"_id": targetID},
			bson.M{"$inc": flipCounters(prev.Kind, kind)})
		return true, wrapErr(err)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return false, wrapErr(err)
	}

	// Nothing matched: the user has no rating yet, or already holds this
	// kind. The unique (target_id, user_id) index decides which on insert.
	r := Rating{TargetID: targetID, UserID: userID, Kind: kind, CreatedAt: now, UpdatedAt: now}
	if _, err := ratings.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Same-kind repeat, or a concurrent request from the same
			// user won; no counter change is owed either way.
			return false, nil
		}
		return false, wrapErr(err)
	}
	_, err = targets.UpdateOne(ctx, bson.M{"_id": targetID},
		bson.M{"$inc": bson.M{counterField(kind): 1}})
	return true, wrapErr(err)
}

func (db *DB) unrate(ctx context.Context, ratings, targets *mongo.Collection, targetID, userID primitive.ObjectID) error {
	// Find and delete in one command: of two concurrent unrates only the
	// one that removed the document decrements, the other sees no rating
	// and reports ErrNotFound.
	var existing Rating
	err := ratings.FindOneAndDelete(ctx,
		bson.M{"target_id": targetID, "user_id": userID}).Decode(&existing)
	if err != nil {
		return wrapErr(err)
	}
	_, err = targets.UpdateOne(ctx, bson.M{"_id": targetID},
		bson.M{"$inc": bson.M{counterField(existing.Kind): -1}})
	return wrapErr(err)
}

func ratingOf(ctx context.Context, ratings *mongo.Collection, targetID, userID primitive.ObjectID) (RatingKind, error) {
	var r Rating
	err := ratings.FindOne(ctx, bson.M{"target_id": targetID, "user_id": userID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", wrapErr(err)
	}
	return r.Kind, nil
}
