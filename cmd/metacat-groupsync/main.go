// Command metacat-groupsync backfills system admins into every group as
// ADMIN members on a cron schedule, so new groups are always
// administrable.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/curation-works/metacat/pkg/config"
	"github.com/curation-works/metacat/pkg/groups"
	"github.com/curation-works/metacat/pkg/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if cfg.Storage.Type != "postgres" {
		log.Fatal("group sync requires postgres storage")
	}

	db, err := store.OpenPostgres(cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer db.Close()

	syncer := groups.NewSyncer(groups.NewPostgresStore(db), groups.SyncerOptions{
		Logger:  log,
		Workers: cfg.GroupSync.Workers,
	})

	runSync := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.PostgresTimeout*10)
		defer cancel()
		added, err := syncer.SyncAdmins(ctx)
		if err != nil {
			log.WithError(err).Error("admin sync failed")
			return
		}
		log.WithField("memberships_added", added).Info("admin sync complete")
	}

	// one immediate pass, then the schedule
	runSync()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.GroupSync.Schedule, runSync); err != nil {
		log.WithError(err).Fatal("invalid sync schedule")
	}
	scheduler.Start()
	log.WithField("schedule", cfg.GroupSync.Schedule).Info("group sync scheduler started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx := scheduler.Stop()
	<-ctx.Done()
	log.Info("group sync scheduler stopped")
}
