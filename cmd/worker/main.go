package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatriver/chatriver/internal/pkg/cache"
	"github.com/chatriver/chatriver/internal/pkg/database"
	"github.com/chatriver/chatriver/internal/pkg/env"
	"github.com/chatriver/chatriver/internal/pkg/jobqueue"
)

// Standalone materialization worker. Runs the same queue manager as the HTTP
// server but without the HTTP surface, so ingestion and materialization can
// be scaled and deployed independently.
func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	manager := jobqueue.GetManager()
	manager.Start()
	log.Println("Worker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Worker shutting down...")
	manager.Stop()
	log.Println("Worker stopped")
}
