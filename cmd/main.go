package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/takak2166/backpack2keepassx/internal/backpack"
	"github.com/takak2166/backpack2keepassx/internal/config"
	"github.com/takak2166/backpack2keepassx/internal/exporter"
	"github.com/takak2166/backpack2keepassx/internal/locator"
	"github.com/takak2166/backpack2keepassx/internal/logger"
	"github.com/takak2166/backpack2keepassx/internal/notion"
)

func main() {
	// Parse command line flags
	credentialsFile := flag.String("credentials", "backpack.yml", "Path to the Backpack credentials file")
	pagesFile := flag.String("pages", "keepassx.yml", "Path to the page title to icon mapping")
	source := flag.String("source", "", "Notes service to read from: backpack or notion")
	notePattern := flag.String("note", exporter.DefaultNotePattern, "Title pattern of the note holding the access table")
	outputFile := flag.String("output", "", "File to write the XML to (default stdout)")
	indent := flag.Int("indent", 0, "Spaces to indent the XML with, 0 for a compact document")
	skipMissing := flag.Bool("skip-missing", false, "Skip pages or notes that cannot be found instead of failing")
	concurrency := flag.Int("concurrency", 0, "Number of pages fetched at once")
	baseURL := flag.String("base-url", "", "Override the Backpack site URL")
	flag.Parse()

	// Load .env file if there is one
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(config.Env("LOG_LEVEL", "info"), config.Env("LOG_FORMAT", "text")); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	if *source == "" {
		*source = config.Env("NOTES_SOURCE", "backpack")
	}
	if *concurrency == 0 {
		*concurrency = config.EnvInt("EXPORT_CONCURRENCY", 1)
	}

	requests, err := config.LoadPages(*pagesFile)
	if err != nil {
		logger.Error("Failed to load page configuration", err, nil)
		os.Exit(1)
	}

	var pageSource locator.PageSource
	switch *source {
	case "backpack":
		creds, err := config.LoadCredentials(*credentialsFile)
		if err != nil {
			logger.Error("Failed to load credentials", err, nil)
			os.Exit(1)
		}
		opts := []backpack.Option{
			backpack.WithHTTPClient(&http.Client{
				Timeout: time.Duration(config.EnvInt("BACKPACK_TIMEOUT", 30)) * time.Second,
			}),
		}
		if *baseURL != "" {
			opts = append(opts, backpack.WithBaseURL(*baseURL))
		}
		client, err := backpack.New(creds.Username, creds.Token, opts...)
		if err != nil {
			logger.Error("Failed to initialize Backpack client", err, nil)
			os.Exit(1)
		}
		pageSource = client
	case "notion":
		client, err := notion.New()
		if err != nil {
			logger.Error("Failed to initialize Notion client", err, nil)
			os.Exit(1)
		}
		pageSource = client
	default:
		logger.Error("Unknown notes source", fmt.Errorf("source %q is not supported", *source), nil)
		os.Exit(1)
	}

	policy := exporter.PolicyAbort
	if *skipMissing {
		policy = exporter.PolicySkip
	}

	exp := exporter.New(locator.New(pageSource), exporter.Options{
		NotePattern: *notePattern,
		Policy:      policy,
		Concurrency: *concurrency,
		Indent:      *indent,
	})

	logger.Info(fmt.Sprintf("Exporting %d pages", len(requests)), map[string]interface{}{
		"source": *source,
	})

	var buf bytes.Buffer
	if err := exp.Run(context.Background(), requests, &buf); err != nil {
		logger.Error("Export failed", err, nil)
		os.Exit(1)
	}

	if *outputFile == "" {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			logger.Error("Failed to write output", err, nil)
			os.Exit(1)
		}
		return
	}

	// The document holds passwords, keep it private
	if err := os.WriteFile(*outputFile, buf.Bytes(), 0600); err != nil {
		logger.Error("Failed to write output file", err, map[string]interface{}{
			"filepath": *outputFile,
		})
		os.Exit(1)
	}
}
