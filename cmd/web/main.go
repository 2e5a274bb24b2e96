// Command web initializes the Mumundo application and starts the HTTP
// server. Configuration is provided via environment variables (a .env file is
// honoured in development) for the MongoDB connection, Spotify API
// credentials and the token signing key. The server exposes a JSON API plus
// a Prometheus metrics endpoint.

package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"Mumundo-Go/pkg/db"
	"Mumundo-Go/pkg/handlers"
	"Mumundo-Go/pkg/importer"
	"Mumundo-Go/pkg/spotify"
)

// main configures application dependencies and starts the HTTP server.
func main() {
	// A local .env file is convenient in development; in production the
	// variables come from the environment directly, so a missing file is
	// not an error.
	_ = godotenv.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(lvl)
	}
	log := logrus.WithField("component", "web")

	signingKey := os.Getenv("SIGNING_KEY")
	if signingKey == "" {
		log.Fatal("SIGNING_KEY must be set")
	}

	// MongoDB stores every collection the application uses. The database
	// name defaults so a bare local mongod works out of the box.
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGODB_DB")
	if mongoDB == "" {
		mongoDB = "mumundo"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.New(ctx, mongoURI, mongoDB)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("mongodb init")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		database.Close(ctx)
	}()

	app := &handlers.Application{
		DB:        database,
		SignKey:   []byte(signingKey),
		TokenTTL:  tokenTTL(log),
		UploadDir: uploadDir(),
	}

	// Spotify credentials are optional: without them the catalog endpoints
	// report a configuration error while the rest of the API keeps
	// working.
	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		catalog, err := spotify.New(clientID, clientSecret)
		if err != nil {
			log.WithError(err).Fatal("spotify client init")
		}
		app.Catalog = catalog
		app.Importer = &importer.Importer{
			Songs:     database,
			Playlists: database,
			Catalog:   catalog,
			Log:       logrus.WithField("component", "importer"),
		}
	} else {
		log.Warn("SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET not set; catalog endpoints disabled")
	}

	addr := ":" + port()
	log.WithField("addr", addr).Info("starting server")
	srv := newServer(addr, app.Routes())
	if err := srv.ListenAndServe(); err != nil {
		log.WithError(err).Fatal("http server error")
	}
}

func port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "4000"
}

func uploadDir() string {
	if d := os.Getenv("UPLOAD_DIR"); d != "" {
		return d
	}
	return "uploads"
}

// newServer applies the listener timeouts. The write timeout stays above the
// playlist import deadline so long imports are not cut off mid-response.
func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}

// tokenTTL parses TOKEN_TTL as a Go duration, defaulting to 24h.
func tokenTTL(log *logrus.Entry) time.Duration {
	raw := os.Getenv("TOKEN_TTL")
	if raw == "" {
		return 24 * time.Hour
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		log.WithField("value", raw).Warn("invalid TOKEN_TTL, using 24h")
		return 24 * time.Hour
	}
	return ttl
}
