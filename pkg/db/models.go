// Canonical document shapes for the application. The previous drafts of the
// system carried several incompatible definitions per entity; these are the
// single authoritative versions.

package db

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. PasswordHash is never serialized to clients.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	Username       string             `bson:"username" json:"username"`
	PasswordHash   string             `bson:"password_hash" json:"-"`
	ProfilePicture string             `bson:"profile_picture" json:"profile_picture"`
	Bio            string             `bson:"bio" json:"bio"`
	IsAdmin        bool               `bson:"is_admin" json:"is_admin"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Song is a catalog track known locally. SpotifyID is the external identifier
// used as the natural dedup key; Artist holds the ", "-joined artist names in
// source order. Duration is whole seconds.
type Song struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SpotifyID  string             `bson:"spotify_id,omitempty" json:"spotify_id,omitempty"`
	Title      string             `bson:"title" json:"title"`
	Artist     string             `bson:"artist" json:"artist"`
	Album      string             `bson:"album" json:"album"`
	Duration   int                `bson:"duration" json:"duration"`
	PreviewURL string             `bson:"preview_url,omitempty" json:"preview_url,omitempty"`
	ImageURL   string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Likes      int                `bson:"likes" json:"likes"`
	Dislikes   int                `bson:"dislikes" json:"dislikes"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// DurationSeconds implements music.Durationer.
func (s Song) DurationSeconds() int { return s.Duration }

// Playlist owns an ordered list of song references. TotalDuration is derived
// from the member songs and stored so listings do not need a join.
type Playlist struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	OwnerID       primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	Songs         []primitive.ObjectID `bson:"songs" json:"songs"`
	SpotifyID     string               `bson:"spotify_id,omitempty" json:"spotify_id,omitempty"`
	IsPublic      bool                 `bson:"is_public" json:"is_public"`
	ImageURL      string               `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Likes         int                  `bson:"likes" json:"likes"`
	Dislikes      int                  `bson:"dislikes" json:"dislikes"`
	TotalDuration int                  `bson:"total_duration" json:"total_duration"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// RatingKind enumerates the two rating values.
type RatingKind string

const (
	RatingLike    RatingKind = "like"
	RatingDislike RatingKind = "dislike"
)

// Valid reports whether k is one of the two allowed values.
func (k RatingKind) Valid() bool {
	return k == RatingLike || k == RatingDislike
}

// Rating links a user to a playlist or song with a like or dislike. At most
// one rating exists per (target, user) pair, enforced by a unique index.
type Rating struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TargetID  primitive.ObjectID `bson:"target_id" json:"target_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Kind      RatingKind         `bson:"type" json:"type"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Report statuses move pending -> dismissed or reviewed.
const (
	ReportPending   = "pending"
	ReportDismissed = "dismissed"
	ReportReviewed  = "reviewed"
)

// Report records a user flagging a playlist for moderation.
type Report struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlaylistID primitive.ObjectID `bson:"playlist_id" json:"playlist_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Reason     string             `bson:"reason" json:"reason"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	ReviewedBy primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
}
