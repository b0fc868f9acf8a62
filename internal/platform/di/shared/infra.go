// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	pgarchive "tcon/internal/adapters/out/db"
	appcfg "tcon/internal/infra/config"
)

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firestore/FirebaseAuth/SecretManager/Postgres)
// - owns env/config-resolved runtime settings
//
// Infra must NOT depend on routers, handlers, or usecases.
type Infra struct {
	// Config
	Config    *appcfg.Config
	ProjectID string

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client
	ArchiveDB     *sql.DB

	// Resolved secrets
	SendGridAPIKey string
}

// NewInfra initializes shared infra.
// Firestore is strict (return error). Firebase/Auth, SecretManager and the
// Postgres archive are best-effort (warn + continue).
func NewInfra(ctx context.Context) (*Infra, error) {
	cfg := appcfg.Load()
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}

	projectID := resolveProjectID(cfg)
	if projectID == "" {
		return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GOOGLE_CLOUD_PROJECT)")
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: projectID,
	}

	// Credentials file (optional; mainly for local dev)
	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds) // GOOGLE_APPLICATION_CREDENTIALS
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[shared.infra] Using credentials file for GCP clients: %s", redactPath(credFile))
	} else {
		log.Printf("[shared.infra] Using Application Default Credentials (no credentials file configured)")
	}

	// 1) Firestore (strict)
	{
		fsClient, err := firestore.NewClient(ctx, inf.ProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: firestore.NewClient failed (project=%s): %w", inf.ProjectID, err)
		}
		inf.Firestore = fsClient
		log.Printf("[shared.infra] Firestore connected project=%s", inf.ProjectID)
	}

	// 2) Firebase App/Auth (best-effort)
	{
		fbCfg := &firebase.Config{ProjectID: inf.ProjectID}
		fbApp, err := firebase.NewApp(ctx, fbCfg, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: firebase app init failed: %v", err)
		} else {
			inf.FirebaseApp = fbApp
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				log.Printf("[shared.infra] WARN: firebase auth init failed: %v", err)
			} else {
				inf.FirebaseAuth = authClient
				log.Printf("[shared.infra] Firebase Auth initialized")
			}
		}
	}

	// 3) Secret Manager (best-effort; used to resolve the SendGrid key)
	{
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: secretmanager.NewClient failed: %v (secret-resolved settings disabled)", err)
			sm = nil
		}
		inf.SecretManager = sm
	}

	// 4) SendGrid key: env takes priority, then Secret Manager
	inf.SendGridAPIKey = strings.TrimSpace(cfg.SendGridAPIKey)
	if inf.SendGridAPIKey == "" && strings.TrimSpace(cfg.SendGridSecretName) != "" && inf.SecretManager != nil {
		key, err := inf.accessSecret(ctx, cfg.SendGridSecretName)
		if err != nil {
			log.Printf("[shared.infra] WARN: sendgrid secret resolve failed: %v (confirmation mail disabled)", err)
		} else {
			inf.SendGridAPIKey = key
		}
	}

	// 5) Postgres order archive (best-effort)
	if dsn := strings.TrimSpace(cfg.ArchiveDSN); dsn != "" {
		db, err := pgarchive.Open(ctx, dsn)
		if err != nil {
			log.Printf("[shared.infra] WARN: order archive connect failed: %v (archive disabled)", err)
		} else {
			inf.ArchiveDB = db
			log.Printf("[shared.infra] Order archive connected")
		}
	} else {
		log.Printf("[shared.infra] Order archive not configured (ORDER_ARCHIVE_DSN empty)")
	}

	if inf.Firestore == nil {
		_ = inf.Close()
		return nil, errors.New("shared.infra: firestore client is nil after initialization (unexpected)")
	}

	return inf, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Firestore != nil {
		_ = i.Firestore.Close()
	}
	if i.SecretManager != nil {
		_ = i.SecretManager.Close()
	}
	if i.ArchiveDB != nil {
		_ = i.ArchiveDB.Close()
	}
	return nil
}

// accessSecret reads the latest version of a Secret Manager secret.
func (i *Infra) accessSecret(ctx context.Context, secretID string) (string, error) {
	if i == nil || i.SecretManager == nil {
		return "", errors.New("shared.infra: secret manager client is nil")
	}
	sid := strings.TrimSpace(secretID)
	if sid == "" {
		return "", errors.New("shared.infra: secretID is empty")
	}

	name := "projects/" + i.ProjectID + "/secrets/" + sid + "/versions/latest"
	resp, err := i.SecretManager.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("shared.infra: AccessSecretVersion failed (%s): %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("shared.infra: empty payload (%s)", name)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

func resolveProjectID(cfg *appcfg.Config) string {
	// Priority:
	// 1) cfg.FirestoreProjectID (resolved by config.Load)
	// 2) FIRESTORE_PROJECT_ID
	// 3) GCP_PROJECT_ID
	// 4) GOOGLE_CLOUD_PROJECT (often set in Cloud Run)
	// 5) FIREBASE_PROJECT_ID (fallback)
	if cfg != nil {
		if v := strings.TrimSpace(cfg.FirestoreProjectID); v != "" {
			return v
		}
	}

	for _, k := range []string{
		"FIRESTORE_PROJECT_ID",
		"GCP_PROJECT_ID",
		"GOOGLE_CLOUD_PROJECT",
		"FIREBASE_PROJECT_ID",
	} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}

	return ""
}

func redactPath(p string) string {
	// Keep only the last path segment in logs
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
