// Typed update commands. Each struct enumerates exactly the fields a caller
// may change on the corresponding entity; nil pointers mean "leave alone".
// Unknown fields never reach the store because request decoding rejects them
// and these are the only paths that build $set documents.

package db

import "go.mongodb.org/mongo-driver/bson"

// ProfileUpdate describes the mutable fields of a user profile.
type ProfileUpdate struct {
	Username       *string
	Bio            *string
	ProfilePicture *string
}

func (u ProfileUpdate) setDoc() (bson.M, bool) {
	set := bson.M{}
	if u.Username != nil {
		set["username"] = *u.Username
	}
	if u.Bio != nil {
		set["bio"] = *u.Bio
	}
	if u.ProfilePicture != nil {
		set["profile_picture"] = *u.ProfilePicture
	}
	return set, len(set) > 0
}

// SongUpdate describes the mutable fields of a song. Everything else on a
// song is immutable after creation except the rating counters.
type SongUpdate struct {
	ImageURL *string
}

func (u SongUpdate) setDoc() (bson.M, bool) {
	set := bson.M{}
	if u.ImageURL != nil {
		set["image_url"] = *u.ImageURL
	}
	return set, len(set) > 0
}

// PlaylistUpdate describes the mutable metadata of a playlist. The song list
// and counters have dedicated operations.
type PlaylistUpdate struct {
	Title    *string
	IsPublic *bool
}

func (u PlaylistUpdate) setDoc() (bson.M, bool) {
	set := bson.M{}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.IsPublic != nil {
		set["is_public"] = *u.IsPublic
	}
	return set, len(set) > 0
}
