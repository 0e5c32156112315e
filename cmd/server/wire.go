//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"tieba-server/services/messaging-api/internal/config"
)

// BuildApplication assembles the messaging API with Wire.
func BuildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(
		provideBackend,
		provideCoordination,
		provideAttachments,
		provideValidator,
		provideServices,
		provideHTTPServer,
		provideCrontab,
		NewApplication,
	)
	return nil, nil, nil
}
