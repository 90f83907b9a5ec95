package cmds

import (
	"conncheck/internal/api"
	"conncheck/internal/types"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// setup loads configuration and secrets and builds the handler. With warm set, every
// client is built up front so a bad credential fails the command instead of a request.
func setup(cmd *cobra.Command, warm bool) (types.ServerConfig, *api.Handler, error) {
	LoadEnvFile()
	cfg, err := LoadServerConfig()
	if err != nil {
		return cfg, nil, err
	}
	if err := ConfigureLogging(cfg.LogLevel); err != nil {
		return cfg, nil, err
	}
	store, err := SecretStore(cfg.SecretsFile)
	if err != nil {
		return cfg, nil, err
	}
	h, err := Build(cmd.Context(), cfg, store)
	if err != nil {
		return cfg, nil, err
	}
	if warm {
		if err := Warm(cmd.Context(), h); err != nil {
			return cfg, nil, err
		}
	}
	return cfg, h, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the connectivity pages and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, h, err := setup(cmd, true)
			if err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg.Port, h)
		},
	}
}

func newWriteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <backend> <message>",
		Short: "Write one message to a backend",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			author, err := cmd.Flags().GetString("author")
			if err != nil {
				return err
			}
			_, h, err := setup(cmd, false)
			if err != nil {
				return err
			}
			return Write(cmd.Context(), h, args[0], types.WriteRequest{Message: args[1], Author: author}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("author", "", "author name stored with the record")
	return cmd
}

func newReadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <backend>",
		Short: "Read the document or the newest records of a backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			_, h, err := setup(cmd, false)
			if err != nil {
				return err
			}
			return Read(cmd.Context(), h, args[0], limit, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Int("limit", 0, "maximum number of records to read")
	return cmd
}

// NewRootCommand returns the conncheck command tree. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	serve := newServeCommand()
	root := &cobra.Command{
		Use:           "conncheck",
		Short:         "Write and read test data against hosted backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newWriteCommand(), newReadCommand())
	return root
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
