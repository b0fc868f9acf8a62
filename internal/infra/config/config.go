// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the environment configuration for the storefront service.
type Config struct {
	Port string

	GCPCreds                 string
	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// Firebase Auth project (defaults to the GCP project)
	FirebaseProjectID string

	// Postgres DSN for the order archive; empty disables the archive.
	ArchiveDSN string

	// SendGrid confirmation mail; empty key disables mail.
	// The key may also be resolved from Secret Manager (SENDGRID_SECRET_NAME).
	SendGridAPIKey     string
	SendGridSecretName string
	MailFrom           string

	// Per-call timeout for persistence/identity calls made by the checkout workflow.
	CheckoutCallTimeout time.Duration
}

// Load reads the environment and returns a Config.
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "")

	return &Config{
		Port: getenvDefault("PORT", "8080"),

		GCPCreds:                 os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),

		FirebaseProjectID: getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		ArchiveDSN: os.Getenv("ORDER_ARCHIVE_DSN"),

		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		SendGridSecretName: os.Getenv("SENDGRID_SECRET_NAME"),
		MailFrom:           getenvDefault("MAIL_FROM", "orders@tcon.example"),

		CheckoutCallTimeout: getenvDuration("CHECKOUT_CALL_TIMEOUT_SECONDS", 15*time.Second),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
