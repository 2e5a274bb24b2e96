package db

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateUser inserts a new account. Emails are normalised to lower case so
// the unique index catches case-variant duplicates; ErrDuplicate is returned
// when the address is already registered. The generated ID is written back to
// u.
func (db *DB) CreateUser(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.ProfilePicture == "" {
		u.ProfilePicture = "default.jpg"
	}
	u.CreatedAt = time.Now().UTC()
	res, err := db.users.InsertOne(ctx, u)
	if err != nil {
		return wrapErr(err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindUserByEmail looks an account up by its normalised email address.
func (db *DB) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u User
	if err := db.users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, wrapErr(err)
	}
	return &u, nil
}

// FindUserByID fetches the account with the given ID.
func (db *DB) FindUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var u User
	if err := db.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, wrapErr(err)
	}
	return &u, nil
}

// UpdateProfile applies the non-nil fields of upd to the user document.
// ErrNotFound is returned when the user does not exist; a no-op update (all
// fields nil) succeeds without touching the store.
func (db *DB) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set, ok := upd.setDoc()
	if !ok {
		return nil
	}
	res, err := db.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
