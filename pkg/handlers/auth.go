// Package handlers contains HTTP handlers for Mumundo-Go. This file groups
// account endpoints (registration, login, identity) and the helpers other
// handlers use to enforce authentication. Sessions are stateless bearer
// tokens: an HS256 JWT carrying the user id as its subject, minted on login
// and presented in the Authorization header on every request.

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"Mumundo-Go/pkg/db"
)

const minPasswordLength = 8

// Register creates a new account from a JSON payload. Emails must be unique;
// a duplicate registration is reported as a validation failure rather than an
// internal error.
func (app *Application) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondJSONError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Username == "" {
		respondJSONError(w, http.StatusBadRequest, "username is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondJSONError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("hash password")
		respondJSONError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	user := &db.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := app.DB.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			respondJSONError(w, http.StatusBadRequest, "email already registered")
			return
		}
		respondStoreError(w, err, "user")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login verifies the credentials and returns a bearer token. Unknown emails
// and wrong passwords produce the same response so the endpoint does not leak
// which accounts exist.
func (app *Application) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := app.DB.FindUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		respondStoreError(w, err, "user")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondJSONError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := app.mintToken(user.ID)
	if err != nil {
		log.WithError(err).Error("sign token")
		respondJSONError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Me returns the account of the authenticated caller.
func (app *Application) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// mintToken issues a signed JWT whose subject is the user id.
func (app *Application) mintToken(userID primitive.ObjectID) (string, error) {
	ttl := app.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(app.SignKey)
}

// userFromToken validates the Authorization header and returns the user id
// embedded in the bearer token.
func (app *Application) userFromToken(r *http.Request) (primitive.ObjectID, error) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return primitive.NilObjectID, errors.New("missing bearer token")
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return app.SignKey, nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, errors.New("invalid token")
	}
	return primitive.ObjectIDFromHex(claims.Subject)
}

// requireUser is a helper used by handlers to enforce authentication. It
// writes a 401 response on failure and returns the authenticated user
// otherwise.
func (app *Application) requireUser(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	id, err := app.userFromToken(r)
	if err != nil {
		respondJSONError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	user, err := app.DB.FindUserByID(r.Context(), id)
	if err != nil {
		// A valid token for a deleted account is still unauthenticated.
		if errors.Is(err, db.ErrNotFound) {
			respondJSONError(w, http.StatusUnauthorized, "authentication required")
			return nil, false
		}
		respondStoreError(w, err, "user")
		return nil, false
	}
	return user, true
}

// requireAdmin enforces that the caller is an authenticated administrator. It
// writes a 403 response for authenticated non-admins.
func (app *Application) requireAdmin(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin {
		respondJSONError(w, http.StatusForbidden, "administrator access required")
		return nil, false
	}
	return user, true
}
