// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"

	AuthFirebase = "firebase"
	AuthDev      = "dev"
)

// Config holds every environment setting of the service.
type Config struct {
	Port string

	// GCP
	GCPProjectID             string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	GCPCreds                 string // GOOGLE_APPLICATION_CREDENTIALS
	ProfileBucket            string

	// Backends
	StoreBackend  string // firestore | memory
	AuthMode      string // firebase | dev
	DevAuthSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Checkout
	UPIID   string
	UPIName string

	AdminEmails []string

	// Contact triage and owner mail
	SendGridAPIKey       string
	SendGridAPIKeySecret string
	SendGridFrom         string
	ContactNotifyTo      string
	GeminiAPIKey         string
	GeminiAPIKeySecret   string
	GeminiModel          string

	CORSAllowedOrigins []string
	AccessPolicyFile   string

	LogLevel  string
	LogFormat string
}

// Load reads a .env file when present, then the environment.
// Variables already set in the environment win over .env entries.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup, which keeps tests off the
// process environment.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	defaultProject := get("GCP_PROJECT_ID", get("GOOGLE_CLOUD_PROJECT", ""))

	cfg := &Config{
		Port: get("PORT", "8080"),

		GCPProjectID:             defaultProject,
		FirestoreProjectID:       get("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: get("FIRESTORE_CREDENTIALS_FILE", ""),
		GCPCreds:                 get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		ProfileBucket:            get("PROFILE_BUCKET", ""),

		StoreBackend:  strings.ToLower(get("STORE_BACKEND", StoreFirestore)),
		AuthMode:      strings.ToLower(get("AUTH_MODE", AuthFirebase)),
		DevAuthSecret: get("DEV_AUTH_SECRET", ""),

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),
		RedisDB:       atoiDefault(get("REDIS_DB", ""), 0),

		UPIID:   get("UPI_ID", ""),
		UPIName: get("UPI_NAME", "Optivista"),

		AdminEmails: splitList(get("ADMIN_EMAILS", "")),

		SendGridAPIKey:       get("SENDGRID_API_KEY", ""),
		SendGridAPIKeySecret: get("SENDGRID_API_KEY_SECRET", ""),
		SendGridFrom:         get("SENDGRID_FROM", ""),
		ContactNotifyTo:      get("CONTACT_NOTIFY_TO", ""),
		GeminiAPIKey:         get("GEMINI_API_KEY", ""),
		GeminiAPIKeySecret:   get("GEMINI_API_KEY_SECRET", ""),
		GeminiModel:          get("GEMINI_MODEL", "gemini-2.5-flash"),

		CORSAllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "http://localhost:9002")),
		AccessPolicyFile:   get("ACCESS_POLICY_FILE", ""),

		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "json"),
	}
	return cfg
}

// CredentialsFile is the credentials file shared by the GCP clients, empty
// meaning Application Default Credentials.
func (c *Config) CredentialsFile() string {
	if c.FirestoreCredentialsFile != "" {
		return c.FirestoreCredentialsFile
	}
	return c.GCPCreds
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
