package main

import (
	"conncheck/cmd/conncheck/cmds"
	"conncheck/internal/types"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmds.NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}
	var ce *types.ConfigurationError
	switch {
	case errors.As(err, &ce):
		log.WithFields(log.Fields{
			"backend": ce.Backend,
			"missing": ce.Missing,
		}).Error("Secrets are not configured")
	case errors.Is(err, types.ErrClientInit):
		log.WithError(err).Error("Client could not be initialized")
	default:
		log.WithError(err).Error("conncheck failed")
	}
	stop()
	os.Exit(1)
}
