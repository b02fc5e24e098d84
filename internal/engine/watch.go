package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ragdesk/internal/domain/ports"
)

// watchSettle gives the writing process time to finish before ingesting a
// freshly created or modified file.
const watchSettle = 500 * time.Millisecond

// WatchFolder ingests every new or modified file in dir into the given
// pipeline until ctx is cancelled. Ingestion failures are logged, not
// fatal: the watcher keeps running.
func (e *Engine) WatchFolder(ctx context.Context, watcher ports.FileWatcher, dir, pipelineID string) error {
	if _, err := e.GetPipeline(pipelineID); err != nil {
		return err
	}

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	log := e.log.WithFields(logrus.Fields{"pipeline": pipelineID, "dir": dir})
	log.Info("watch folder active")

	go func() {
		for event := range events {
			if event.Operation == ports.FileDeleted {
				continue
			}

			select {
			case <-time.After(watchSettle):
			case <-ctx.Done():
				return
			}

			if _, err := e.Ingest(ctx, pipelineID, []string{event.Path}, nil); err != nil {
				log.WithError(err).WithField("file", event.Path).Warn("watched file ingestion failed")
				continue
			}
			log.WithField("file", event.Path).Info("watched file ingested")
		}
	}()

	return nil
}
