package handlers_test

// In-memory Store and Catalog fakes backing the handler tests. The fake
// mirrors the persistence layer's observable behaviour: sentinel errors,
// idempotent rating upserts, ordered song resolution, and documents copied
// on write and read so no memory is shared with the caller.

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"Mumundo-Go/pkg/db"
	"Mumundo-Go/pkg/music"
)

type fakeStore struct {
	mu              sync.Mutex
	users           map[primitive.ObjectID]*db.User
	songs           map[primitive.ObjectID]*db.Song
	playlists       map[primitive.ObjectID]*db.Playlist
	reports         map[primitive.ObjectID]*db.Report
	playlistRatings map[string]db.RatingKind
	songRatings     map[string]db.RatingKind
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:           map[primitive.ObjectID]*db.User{},
		songs:           map[primitive.ObjectID]*db.Song{},
		playlists:       map[primitive.ObjectID]*db.Playlist{},
		reports:         map[primitive.ObjectID]*db.Report{},
		playlistRatings: map[string]db.RatingKind{},
		songRatings:     map[string]db.RatingKind{},
	}
}

func ratingKey(target, user primitive.ObjectID) string {
	return target.Hex() + "/" + user.Hex()
}

func (f *fakeStore) CreateUser(ctx context.Context, u *db.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return db.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	if u.ProfilePicture == "" {
		u.ProfilePicture = "default.jpg"
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd db.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	return nil
}

func (f *fakeStore) CreateSong(ctx context.Context, s *db.Song) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.SpotifyID != "" {
		for _, existing := range f.songs {
			if existing.SpotifyID == s.SpotifyID {
				return db.ErrDuplicate
			}
		}
	}
	s.ID = primitive.NewObjectID()
	s.CreatedAt = time.Now()
	cp := *s
	f.songs[s.ID] = &cp
	return nil
}

func (f *fakeStore) FindSongByID(ctx context.Context, id primitive.ObjectID) (*db.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.songs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) FindSongByExternalID(ctx context.Context, spotifyID string) (*db.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.songs {
		if s.SpotifyID == spotifyID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) ListSongs(ctx context.Context) ([]db.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.Song, 0, len(f.songs))
	for _, s := range f.songs {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) FindSongsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]db.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.Song, 0, len(ids))
	for _, id := range ids {
		if s, ok := f.songs[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSong(ctx context.Context, id primitive.ObjectID, upd db.SongUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.songs[id]
	if !ok {
		return db.ErrNotFound
	}
	if upd.ImageURL != nil {
		s.ImageURL = *upd.ImageURL
	}
	return nil
}

func (f *fakeStore) DeleteSong(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.songs[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.songs, id)
	return nil
}

func (f *fakeStore) CreatePlaylist(ctx context.Context, p *db.Playlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now()
	if p.Songs == nil {
		p.Songs = []primitive.ObjectID{}
	}
	cp := *p
	cp.Songs = append([]primitive.ObjectID(nil), p.Songs...)
	f.playlists[p.ID] = &cp
	return nil
}

func (f *fakeStore) FindPlaylistByID(ctx context.Context, id primitive.ObjectID) (*db.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	cp.Songs = append([]primitive.ObjectID(nil), p.Songs...)
	return &cp, nil
}

func (f *fakeStore) ListPlaylistsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]db.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Playlist
	for _, p := range f.playlists {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPublicPlaylists(ctx context.Context) ([]db.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Playlist
	for _, p := range f.playlists {
		if p.IsPublic {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) DeletePlaylist(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.playlists[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.playlists, id)
	return nil
}

func (f *fakeStore) AppendPlaylistSong(ctx context.Context, playlistID, songID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[playlistID]
	if !ok {
		return db.ErrNotFound
	}
	p.Songs = append(p.Songs, songID)
	return nil
}

func (f *fakeStore) RemovePlaylistSong(ctx context.Context, playlistID, songID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[playlistID]
	if !ok {
		return db.ErrNotFound
	}
	kept := p.Songs[:0]
	for _, id := range p.Songs {
		if id != songID {
			kept = append(kept, id)
		}
	}
	p.Songs = kept
	return nil
}

func (f *fakeStore) SetPlaylistDuration(ctx context.Context, id primitive.ObjectID, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	if !ok {
		return db.ErrNotFound
	}
	p.TotalDuration = seconds
	return nil
}

func (f *fakeStore) UpdatePlaylist(ctx context.Context, id primitive.ObjectID, upd db.PlaylistUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	if !ok {
		return db.ErrNotFound
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.IsPublic != nil {
		p.IsPublic = *upd.IsPublic
	}
	return nil
}

func (f *fakeStore) RatePlaylist(ctx context.Context, playlistID, userID primitive.ObjectID, kind db.RatingKind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[playlistID]
	if !ok {
		return false, db.ErrNotFound
	}
	return rateFake(f.playlistRatings, ratingKey(playlistID, userID), kind, &p.Likes, &p.Dislikes), nil
}

func (f *fakeStore) UnratePlaylist(ctx context.Context, playlistID, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[playlistID]
	if !ok {
		return db.ErrNotFound
	}
	return unrateFake(f.playlistRatings, ratingKey(playlistID, userID), &p.Likes, &p.Dislikes)
}

func (f *fakeStore) PlaylistRatingOf(ctx context.Context, playlistID, userID primitive.ObjectID) (db.RatingKind, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playlistRatings[ratingKey(playlistID, userID)], nil
}

func (f *fakeStore) RateSong(ctx context.Context, songID, userID primitive.ObjectID, kind db.RatingKind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.songs[songID]
	if !ok {
		return false, db.ErrNotFound
	}
	return rateFake(f.songRatings, ratingKey(songID, userID), kind, &s.Likes, &s.Dislikes), nil
}

func (f *fakeStore) UnrateSong(ctx context.Context, songID, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.songs[songID]
	if !ok {
		return db.ErrNotFound
	}
	return unrateFake(f.songRatings, ratingKey(songID, userID), &s.Likes, &s.Dislikes)
}

func (f *fakeStore) SongRatingOf(ctx context.Context, songID, userID primitive.ObjectID) (db.RatingKind, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.songRatings[ratingKey(songID, userID)], nil
}

func rateFake(ratings map[string]db.RatingKind, key string, kind db.RatingKind, likes, dislikes *int) bool {
	existing, rated := ratings[key]
	if rated && existing == kind {
		return false
	}
	if rated {
		if existing == db.RatingLike {
			*likes--
		} else {
			*dislikes--
		}
	}
	ratings[key] = kind
	if kind == db.RatingLike {
		*likes++
	} else {
		*dislikes++
	}
	return true
}

func unrateFake(ratings map[string]db.RatingKind, key string, likes, dislikes *int) error {
	existing, rated := ratings[key]
	if !rated {
		return db.ErrNotFound
	}
	delete(ratings, key)
	if existing == db.RatingLike {
		*likes--
	} else {
		*dislikes--
	}
	return nil
}

func (f *fakeStore) CreateReport(ctx context.Context, r *db.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = primitive.NewObjectID()
	r.Status = db.ReportPending
	r.CreatedAt = time.Now()
	cp := *r
	f.reports[r.ID] = &cp
	return nil
}

func (f *fakeStore) ListReports(ctx context.Context) ([]db.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.Report, 0, len(f.reports))
	for _, r := range f.reports {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) FindReportByID(ctx context.Context, id primitive.ObjectID) (*db.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) ResolveReport(ctx context.Context, id primitive.ObjectID, status string, reviewerID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return db.ErrNotFound
	}
	r.Status = status
	r.ReviewedBy = reviewerID
	r.ReviewedAt = time.Now()
	return nil
}

// fakeCatalog serves canned search and track lookups, plus an optional
// playlist listing for import tests.
type fakeCatalog struct {
	tracks   map[string]*music.Track
	playlist *music.PlaylistInfo
	pages    map[int]*music.TrackPage
}

func (f *fakeCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]music.Track, error) {
	var out []music.Track
	for _, t := range f.tracks {
		out = append(out, *t)
	}
	if len(out) == 0 {
		return nil, music.ErrNoTracks
	}
	return out, nil
}

func (f *fakeCatalog) GetTrack(ctx context.Context, id string) (*music.Track, error) {
	t, ok := f.tracks[id]
	if !ok {
		return nil, music.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeCatalog) GetPlaylist(ctx context.Context, id string) (*music.PlaylistInfo, error) {
	if f.playlist == nil || f.playlist.ExternalID != id {
		return nil, music.ErrNotFound
	}
	cp := *f.playlist
	return &cp, nil
}

func (f *fakeCatalog) GetPlaylistTracks(ctx context.Context, id string, offset int) (*music.TrackPage, error) {
	page, ok := f.pages[offset]
	if !ok {
		return &music.TrackPage{}, nil
	}
	return page, nil
}
