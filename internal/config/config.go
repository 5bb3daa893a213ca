// Package config loads server configuration from the environment.
//
// A .env file in the working directory is honoured when present (godotenv),
// matching how the mobile team runs the backend locally. Real deployments
// set plain environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start. Optional capabilities
// are signalled by empty values: an empty DBPath disables persistence, an
// empty GeminiAPIKey disables the AI model.
type Config struct {
	Port int

	// DataDir is the fixed root for all file storage. Uploaded scans live
	// under DataDir/static/scans. Relative image paths are always resolved
	// against DataDir, never against the process working directory.
	DataDir string

	// DBPath is the SQLite database file. Empty means persistence is
	// disabled and the null store is used.
	DBPath string

	GeminiAPIKey string
	GeminiModel  string

	// FirebaseProjectID scopes identity-token verification (issuer and
	// audience checks).
	FirebaseProjectID string

	// DevAuthToken, when set, is accepted as a bearer credential mapping to
	// a fixed test identity. Development only; never set in production.
	DevAuthToken string
}

const (
	defaultPort  = 8080
	defaultModel = "gemini-2.0-flash"
)

// Load reads the .env file (if any) and the environment.
func Load() (Config, error) {
	// Ignore the error: a missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Port:              defaultPort,
		DataDir:           "data",
		DBPath:            os.Getenv("DB_PATH"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       defaultModel,
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		DevAuthToken:      os.Getenv("DEV_AUTH_TOKEN"),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("config: resolving DATA_DIR: %w", err)
	}
	cfg.DataDir = abs

	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}

	if cfg.FirebaseProjectID == "" && cfg.DevAuthToken == "" {
		return Config{}, fmt.Errorf("config: FIREBASE_PROJECT_ID is required (or set DEV_AUTH_TOKEN for local development)")
	}

	return cfg, nil
}

// StaticDir is the directory served under /static/.
func (c Config) StaticDir() string {
	return filepath.Join(c.DataDir, "static")
}

// ScansDir is the fixed root all uploaded scans are written to and all
// caller-supplied image paths must resolve inside.
func (c Config) ScansDir() string {
	return filepath.Join(c.DataDir, "static", "scans")
}
