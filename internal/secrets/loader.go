package secrets

import (
	"conncheck/internal/types"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Require reads every name from the store. If any is absent or empty it returns a
// *types.ConfigurationError naming exactly the missing keys, in the order given, and no values.
func Require(store Store, backend string, names []string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	missing := lo.Filter(names, func(name string, _ int) bool {
		v, ok := store.Lookup(name)
		if !ok || v == "" {
			return true
		}
		values[name] = v
		return false
	})
	if len(missing) > 0 {
		log.WithFields(log.Fields{
			"backend": backend,
			"missing": missing,
		}).Error("Missing secrets")
		return nil, &types.ConfigurationError{Backend: backend, Missing: missing}
	}
	return values, nil
}

// LoadFirebaseConfig assembles the service-account credential document.
// The private key is stored with literal "\n" sequences; they are turned into real newlines.
func LoadFirebaseConfig(store Store) (types.FirebaseConfig, error) {
	v, err := Require(store, types.BackendFirebase, types.FirebaseSecretNames)
	if err != nil {
		return types.FirebaseConfig{}, err
	}
	cfg := types.FirebaseConfig{
		Type:                    v[types.SecretFirebaseType],
		ProjectID:               v[types.SecretFirebaseProjectID],
		PrivateKeyID:            v[types.SecretFirebasePrivateKeyID],
		PrivateKey:              NormalizePrivateKey(v[types.SecretFirebasePrivateKey]),
		ClientEmail:             v[types.SecretFirebaseClientEmail],
		ClientID:                v[types.SecretFirebaseClientID],
		AuthURI:                 v[types.SecretFirebaseAuthURI],
		TokenURI:                v[types.SecretFirebaseTokenURI],
		AuthProviderX509CertURL: v[types.SecretFirebaseAuthProviderX509CertURL],
		ClientX509CertURL:       v[types.SecretFirebaseClientX509CertURL],
		UniverseDomain:          v[types.SecretFirebaseUniverseDomain],
	}
	log.WithField("project_id", cfg.ProjectID).Debug("Firebase service account config loaded from secrets")
	return cfg, nil
}

func LoadSupabaseConfig(store Store) (types.SupabaseConfig, error) {
	v, err := Require(store, types.BackendSupabase, types.SupabaseSecretNames)
	if err != nil {
		return types.SupabaseConfig{}, err
	}
	return types.SupabaseConfig{
		URL: strings.TrimRight(v[types.SecretSupabaseURL], "/"),
		Key: v[types.SecretSupabaseKey],
	}, nil
}

func NormalizePrivateKey(k string) string {
	return strings.ReplaceAll(k, `\n`, "\n")
}
