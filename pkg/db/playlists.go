package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreatePlaylist inserts a new playlist and writes the generated ID back to
// p. The songs slice is normalised to an empty (never nil) array so $push
// works immediately.
func (db *DB) CreatePlaylist(ctx context.Context, p *Playlist) error {
	if p.Songs == nil {
		p.Songs = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := db.playlists.InsertOne(ctx, p)
	if err != nil {
		return wrapErr(err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindPlaylistByID fetches a single playlist.
func (db *DB) FindPlaylistByID(ctx context.Context, id primitive.ObjectID) (*Playlist, error) {
	var p Playlist
	if err := db.playlists.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

// ListPlaylistsByOwner returns every playlist owned by the given user, newest
// first.
func (db *DB) ListPlaylistsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]Playlist, error) {
	return db.findPlaylists(ctx, bson.M{"owner_id": ownerID})
}

// ListPublicPlaylists returns every playlist marked public, newest first.
func (db *DB) ListPublicPlaylists(ctx context.Context) ([]Playlist, error) {
	return db.findPlaylists(ctx, bson.M{"is_public": true})
}

func (db *DB) findPlaylists(ctx context.Context, filter bson.M) ([]Playlist, error) {
	cur, err := db.playlists.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cur.Close(ctx)
	playlists := []Playlist{}
	if err := cur.All(ctx, &playlists); err != nil {
		return nil, wrapErr(err)
	}
	return playlists, nil
}

// DeletePlaylist removes the playlist document along with its ratings.
func (db *DB) DeletePlaylist(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.playlists.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	// Ratings for a deleted playlist are dead weight; failure here is not
	// fatal since nothing reads them once the playlist is gone.
	db.playlistRatings.DeleteMany(ctx, bson.M{"target_id": id})
	return nil
}

// AppendPlaylistSong appends a song reference to the end of the playlist's
// ordered list.
func (db *DB) AppendPlaylistSong(ctx context.Context, playlistID, songID primitive.ObjectID) error {
	update := bson.M{
		"$push": bson.M{"songs": songID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := db.playlists.UpdateOne(ctx, bson.M{"_id": playlistID}, update)
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemovePlaylistSong removes every reference to songID from the playlist.
func (db *DB) RemovePlaylistSong(ctx context.Context, playlistID, songID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"songs": songID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := db.playlists.UpdateOne(ctx, bson.M{"_id": playlistID}, update)
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPlaylistDuration stores the derived total duration for the playlist.
func (db *DB) SetPlaylistDuration(ctx context.Context, id primitive.ObjectID, seconds int) error {
	update := bson.M{"$set": bson.M{"total_duration": seconds, "updated_at": time.Now().UTC()}}
	res, err := db.playlists.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePlaylist applies the non-nil fields of upd to the playlist document.
func (db *DB) UpdatePlaylist(ctx context.Context, id primitive.ObjectID, upd PlaylistUpdate) error {
	set, ok := upd.setDoc()
	if !ok {
		return nil
	}
	set["updated_at"] = time.Now().UTC()
	res, err := db.playlists.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
