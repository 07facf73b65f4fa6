package main

import (
	"context"
	"time"

	"github.com/cognition-bio/cognition/catalog"
	"github.com/cognition-bio/cognition/config"
	"github.com/cognition-bio/cognition/controllers"
	"github.com/cognition-bio/cognition/downloader"
	"github.com/cognition-bio/cognition/hpc"
	"github.com/cognition-bio/cognition/logging"
	"github.com/cognition-bio/cognition/routes"
)

func main() {
	log := logging.New("main")

	config.LoadSecrets()
	config.ConnectDatabase()

	cat := catalog.NewService(config.SnapshotDir())
	controllers.Setup(
		hpc.NewManager(config.ExecTimeout()),
		cat,
		downloader.NewManager(),
	)

	// Warm the proteome tables in the background so startup is not
	// held hostage by UniProt.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := cat.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("initial catalog refresh failed")
		}
		ref, other := cat.Counts()
		log.Info().Int("reference", ref).Int("other", other).Msg("catalog ready")
	}()

	r := routes.SetupRouter()

	addr := config.ListenAddr()
	log.Info().Str("addr", addr).Msg("server starting")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
