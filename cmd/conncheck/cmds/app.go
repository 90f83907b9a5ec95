package cmds

import (
	"conncheck/internal/api"
	"conncheck/internal/backends"
	"conncheck/internal/flow"
	"conncheck/internal/ports"
	"conncheck/internal/secrets"
	"conncheck/internal/types"
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// LoadEnvFile loads ENV_FILE (default .env) into the environment. A missing file is not an error.
func LoadEnvFile() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Info("The .env file not found.")
	}
}

// LoadServerConfig reads and validates types.ServerConfig from the environment.
func LoadServerConfig() (types.ServerConfig, error) {
	var cfg types.ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func ConfigureLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

// SecretStore is the environment first, then the YAML secrets file.
func SecretStore(path string) (secrets.Store, error) {
	file, err := secrets.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return secrets.Chain{secrets.Env{}, file}, nil
}

// Build wires a handler for the enabled backends. Secrets are checked here, so a
// *types.ConfigurationError comes back before any client exists. Clients are built lazily.
func Build(ctx context.Context, cfg types.ServerConfig, store secrets.Store) (*api.Handler, error) {
	var docs *api.DocumentBackend
	tables := map[string]*api.TableBackend{}

	for _, b := range cfg.Backends {
		switch b {
		case types.BackendFirebase:
			fc, err := secrets.LoadFirebaseConfig(store)
			if err != nil {
				return nil, err
			}
			docs = &api.DocumentBackend{
				Cache: flow.NewClientCache(b, func(ctx context.Context) (ports.DocumentStore, error) {
					s, err := backends.FirebaseDocumentStore(ctx, fc)
					if err != nil {
						return nil, err
					}
					return s, nil
				}),
				Ref: cfg.DocRef(),
			}
		case types.BackendSupabase:
			sc, err := secrets.LoadSupabaseConfig(store)
			if err != nil {
				return nil, err
			}
			tables[b] = &api.TableBackend{
				Cache: flow.NewClientCache(b, func(ctx context.Context) (ports.RecordStore, error) {
					s, err := backends.SupabaseRecordStore(sc)
					if err != nil {
						return nil, err
					}
					return s, nil
				}),
				Table: cfg.SupabaseTable,
			}
		case types.BackendDDB:
			tables[b] = &api.TableBackend{
				Cache: flow.NewClientCache(b, backends.DDBRecordStoreFromEnv),
				Table: cfg.RecordsTable,
			}
		case types.BackendRedis:
			tables[b] = &api.TableBackend{
				Cache: flow.NewClientCache(b, backends.RedisRecordStoreFromEnv),
				Table: cfg.RecordsTable,
			}
		default:
			return nil, types.Err(types.ErrUnknownBackend, nil, "backend %q", b)
		}
	}

	var notifier *flow.Notifier
	if cfg.WriteEventsSNSArn != "" {
		p, err := backends.SNSPublisherFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		notifier = &flow.Notifier{Pub: p, Arn: cfg.WriteEventsSNSArn}
	}
	return api.NewHandler(docs, tables, notifier, cfg.ReadLimit), nil
}

// Warm builds every enabled client once. Failures are joined.
func Warm(ctx context.Context, h *api.Handler) error {
	var errs []error
	if h.Docs != nil {
		if _, err := h.Docs.Cache.Get(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, b := range h.Backends() {
		tbl, ok := h.Tables[b]
		if !ok {
			continue
		}
		if _, err := tbl.Cache.Get(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Serve runs the server until ctx is canceled or the listener fails, then closes every
// client the handler built. A canceled ctx is a clean exit.
func Serve(ctx context.Context, port int, h *api.Handler) error {
	stop, done := api.RunServerInterruptible(port, h)
	var err error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
		close(stop)
		err = <-done
	case err = <-done:
	}
	if cerr := h.Close(); cerr != nil {
		log.WithError(cerr).Warn("Failed to close clients")
	}
	return err
}
