package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"cendeu-features-go/internal/dataset"
	"cendeu-features-go/internal/logger"
	"cendeu-features-go/internal/normalizer"
	"cendeu-features-go/internal/processor"
	"cendeu-features-go/internal/window"
)

type line struct {
	CUIT string `json:"cuit"`
	processor.Report
}

func main() {
	_ = godotenv.Load()

	input := flag.String("input", os.Getenv("DATASET_PATH"), "Path to the bureau xlsx export")
	asOf := flag.String("as-of", "", "Processing date (YYYY-MM-DD), default today")
	windowsPath := flag.String("windows", os.Getenv("WINDOWS_CONFIG"), "Optional window config YAML")
	flag.Parse()

	log := logger.New().WithField("component", "batch")
	if *input == "" {
		log.Fatal("--input is required")
	}

	now := time.Now()
	if *asOf != "" {
		parsed, err := normalizer.ParseDate(*asOf)
		if err != nil {
			log.WithError(err).Fatal("invalid --as-of")
		}
		now = parsed
	}

	windows := window.DefaultConfig()
	if *windowsPath != "" {
		cfg, err := window.LoadConfig(*windowsPath)
		if err != nil {
			log.WithError(err).Fatal("invalid window config")
		}
		windows = cfg
	}

	batch, err := dataset.Load(*input)
	if err != nil {
		log.WithError(err).Fatal("dataset load error")
	}

	enc := json.NewEncoder(os.Stdout)
	dropped := 0
	for _, cuit := range batch.Clients {
		report, err := processor.Aggregate(batch.Debts[cuit], now, windows)
		if err != nil {
			log.WithError(err).Fatal("aggregate failed")
		}
		dropped += len(report.Diagnostics)
		if err := enc.Encode(line{CUIT: cuit, Report: report}); err != nil {
			log.WithError(err).Fatal("write failed")
		}
	}
	log.WithField("clients", len(batch.Clients)).
		WithField("dropped_records", dropped).
		WithField("as_of", now.Format("2006-01-02")).
		Info("batch finished")
}
