package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adfharrison1/go-ape/pkg/pipeline"
	"github.com/adfharrison1/go-ape/pkg/server"
	"github.com/adfharrison1/go-ape/pkg/storage"
)

func main() {
	// Command line flags
	var (
		pipelineFile = flag.String("pipeline", "", "Pipeline file (YAML or JSON) to run")
		dataDir      = flag.String("data-dir", ".", "Directory relative collection paths are resolved against")
		serve        = flag.Bool("serve", false, "Serve the workspace over HTTP after running the pipeline")
		port         = flag.String("port", "8080", "Server port")
		showHelp     = flag.Bool("help", false, "Show help message")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ngo-ape reshapes record collections through queued operations and indexed joins.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -pipeline users.yaml                    # Run a pipeline and write its outputs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -pipeline users.yaml -data-dir ./data   # Resolve files under ./data\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -serve -port 9090                       # Serve an empty workspace\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -pipeline users.yaml -serve             # Run, then serve the result\n", os.Args[0])
	}

	flag.Parse()

	if *showHelp || (*pipelineFile == "" && !*serve) {
		flag.Usage()
		os.Exit(0)
	}

	ws := storage.NewWorkspace(storage.WithDataDir(*dataDir))
	log.Printf("INFO: Using data directory: %s", *dataDir)

	if *pipelineFile != "" {
		p, err := pipeline.LoadFile(*pipelineFile)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		log.Printf("INFO: Running pipeline %s (%d steps)", *pipelineFile, len(p.Steps))
		if err := p.Run(ws); err != nil {
			log.Fatalf("ERROR: Pipeline failed: %v", err)
		}
	}

	if !*serve {
		return
	}

	srv := server.NewServer(ws)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:    ":" + *port,
		Handler: srv.Router(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting go-ape server on :%s", *port)
		log.Printf("API endpoints available at http://localhost:%s", *port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
