package types

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

const (
	BackendFirebase = "firebase"
	BackendSupabase = "supabase"
	BackendDDB      = "ddb"
	BackendRedis    = "redis"

	DefaultReadLimit = 5
	MaxReadLimit     = 100
)

// KnownBackends is every backend name the service can check, in display order.
var KnownBackends = []string{BackendFirebase, BackendSupabase, BackendDDB, BackendRedis}

// Secret names for the Firebase Admin SDK service account. They mirror the fields of a
// service-account credential document, prefixed with "firebase_admin_sdk_".
const (
	SecretFirebaseType                    = "firebase_admin_sdk_type"
	SecretFirebaseProjectID               = "firebase_admin_sdk_project_id"
	SecretFirebasePrivateKeyID            = "firebase_admin_sdk_private_key_id"
	SecretFirebasePrivateKey              = "firebase_admin_sdk_private_key"
	SecretFirebaseClientEmail             = "firebase_admin_sdk_client_email"
	SecretFirebaseClientID                = "firebase_admin_sdk_client_id"
	SecretFirebaseAuthURI                 = "firebase_admin_sdk_auth_uri"
	SecretFirebaseTokenURI                = "firebase_admin_sdk_token_uri"
	SecretFirebaseAuthProviderX509CertURL = "firebase_admin_sdk_auth_provider_x509_cert_url"
	SecretFirebaseClientX509CertURL       = "firebase_admin_sdk_client_x509_cert_url"
	SecretFirebaseUniverseDomain          = "firebase_admin_sdk_universe_domain"

	SecretSupabaseURL = "supabase_url"
	SecretSupabaseKey = "supabase_key"
)

var FirebaseSecretNames = []string{
	SecretFirebaseType,
	SecretFirebaseProjectID,
	SecretFirebasePrivateKeyID,
	SecretFirebasePrivateKey,
	SecretFirebaseClientEmail,
	SecretFirebaseClientID,
	SecretFirebaseAuthURI,
	SecretFirebaseTokenURI,
	SecretFirebaseAuthProviderX509CertURL,
	SecretFirebaseClientX509CertURL,
	SecretFirebaseUniverseDomain,
}

var SupabaseSecretNames = []string{SecretSupabaseURL, SecretSupabaseKey}

// FirebaseConfig is the service-account credential document for the Firebase Admin SDK.
// The json tags are the field names Google expects in a credentials file.
type FirebaseConfig struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
	UniverseDomain          string `json:"universe_domain"`
}

// CredentialsJSON renders the config as a credentials file.
func (c FirebaseConfig) CredentialsJSON() ([]byte, error) {
	return json.Marshal(c)
}

// SupabaseConfig holds the project URL and the API key (anon or service role).
type SupabaseConfig struct {
	URL string
	Key string
}

// ServerConfig is read from the environment by envconfig.
type ServerConfig struct {
	Port                int      `envconfig:"PORT" default:"8501"`
	SecretsFile         string   `envconfig:"SECRETS_FILE" default:"secrets.yml"`
	Backends            []string `envconfig:"BACKENDS" default:"firebase,supabase"`
	LogLevel            string   `envconfig:"LOG_LEVEL" default:"info"`
	ReadLimit           int      `envconfig:"READ_LIMIT" default:"5"`
	FirestoreCollection string   `envconfig:"FIRESTORE_COLLECTION" default:"test_connectivity"`
	FirestoreDocument   string   `envconfig:"FIRESTORE_DOCUMENT" default:"streamlit_test_doc"`
	SupabaseTable       string   `envconfig:"SUPABASE_TABLE" default:"messages"`
	RecordsTable        string   `envconfig:"RECORDS_TABLE" default:"messages"`
	WriteEventsSNSArn   string   `envconfig:"WRITE_EVENTS_SNS_ARN"`
}

func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one backend is required")
	}
	for _, b := range c.Backends {
		if !slices.Contains(KnownBackends, b) {
			return Err(ErrUnknownBackend, nil, "backend %q", b)
		}
	}
	if c.ReadLimit < 1 || c.ReadLimit > MaxReadLimit {
		return fmt.Errorf("read_limit must be between 1 and %d", MaxReadLimit)
	}
	if c.FirestoreCollection == "" || c.FirestoreDocument == "" {
		return fmt.Errorf("firestore collection and document are required")
	}
	if c.SupabaseTable == "" || c.RecordsTable == "" {
		return fmt.Errorf("supabase_table and records_table are required")
	}
	return nil
}

// DocRef returns the fixed Firestore document the service writes and reads.
func (c ServerConfig) DocRef() DocRef {
	return DocRef{Collection: c.FirestoreCollection, ID: c.FirestoreDocument}
}
