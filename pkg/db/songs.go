package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateSong inserts a new song record and writes the generated ID back to s.
// ErrDuplicate is returned when another song already carries the same
// spotify_id; callers importing from the catalog should look the song up
// first and treat the existing record as authoritative.
func (db *DB) CreateSong(ctx context.Context, s *Song) error {
	s.CreatedAt = time.Now().UTC()
	res, err := db.songs.InsertOne(ctx, s)
	if err != nil {
		return wrapErr(err)
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindSongByID fetches a single song record.
func (db *DB) FindSongByID(ctx context.Context, id primitive.ObjectID) (*Song, error) {
	var s Song
	if err := db.songs.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, wrapErr(err)
	}
	return &s, nil
}

// FindSongByExternalID looks a song up by the remote catalog's identifier,
// the natural dedup key for imports.
func (db *DB) FindSongByExternalID(ctx context.Context, spotifyID string) (*Song, error) {
	var s Song
	if err := db.songs.FindOne(ctx, bson.M{"spotify_id": spotifyID}).Decode(&s); err != nil {
		return nil, wrapErr(err)
	}
	return &s, nil
}

// ListSongs returns all songs in insertion order.
func (db *DB) ListSongs(ctx context.Context) ([]Song, error) {
	cur, err := db.songs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cur.Close(ctx)
	songs := []Song{}
	if err := cur.All(ctx, &songs); err != nil {
		return nil, wrapErr(err)
	}
	return songs, nil
}

// FindSongsByIDs fetches the referenced songs and returns them in the order
// of ids, repeating records for duplicate references. Unknown IDs are simply
// absent from the result so a playlist with a dangling reference still loads.
func (db *DB) FindSongsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Song, error) {
	if len(ids) == 0 {
		return []Song{}, nil
	}
	cur, err := db.songs.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cur.Close(ctx)
	var fetched []Song
	if err := cur.All(ctx, &fetched); err != nil {
		return nil, wrapErr(err)
	}
	byID := make(map[primitive.ObjectID]Song, len(fetched))
	for _, s := range fetched {
		byID[s.ID] = s
	}
	ordered := make([]Song, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

// UpdateSong applies the non-nil fields of upd to the song document.
func (db *DB) UpdateSong(ctx context.Context, id primitive.ObjectID, upd SongUpdate) error {
	set, ok := upd.setDoc()
	if !ok {
		return nil
	}
	res, err := db.songs.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSong removes the song record. References held by playlists are left
// in place; playlist loading tolerates dangling references.
func (db *DB) DeleteSong(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.songs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
