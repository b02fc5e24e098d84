package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ragdesk/internal/adapters/filewatcher"
	"ragdesk/internal/adapters/ollama"
	"ragdesk/internal/adapters/parser"
	"ragdesk/internal/config"
	"ragdesk/internal/engine"
	httpserver "ragdesk/internal/infrastructure/http"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// .env is optional; real environment variables win either way.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading config")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("service", "ragdesk")

	client := ollama.NewClient(cfg.ModelServerURL)
	fileParser := parser.NewFileParser()

	eng, err := engine.New(cfg.DataDir, client, fileParser, log)
	if err != nil {
		log.WithError(err).Fatal("initializing engine")
	}

	if !client.Status(context.Background()) {
		log.WithField("url", cfg.ModelServerURL).Warn("model server not reachable; queries will fail until it is up")
	}

	if cfg.Watch.Dir != "" && cfg.Watch.PipelineID != "" {
		watcher, err := filewatcher.NewFSNotifyWatcher(fileParser.SupportedExtensions())
		if err != nil {
			log.WithError(err).Fatal("creating file watcher")
		}
		defer watcher.Stop()

		if err := eng.WatchFolder(context.Background(), watcher, cfg.Watch.Dir, cfg.Watch.PipelineID); err != nil {
			log.WithError(err).Fatal("starting watch folder")
		}
	}

	server := httpserver.NewServer(eng, log)
	if err := server.Run(cfg.ListenAddr); err != nil {
		log.WithError(err).Error("http server stopped")
		os.Exit(1)
	}
}
