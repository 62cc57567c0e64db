package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"health-importer/importer"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var configPath string
	var xmlPath string
	var dbPath string
	var batchSize int
	var commitEvery int
	var debug bool

	flag.StringVar(&configPath, "config", "", "YAML config file path.")
	flag.StringVar(&xmlPath, "xml", "", "Health export XML file to import.")
	flag.StringVar(&dbPath, "db", "archive.db", "Archive SQLite database path.")
	flag.IntVar(&batchSize, "batch-size", importer.DefaultBatchSize, "Per-type bulk insert batch size.")
	flag.IntVar(&commitEvery, "commit-every", importer.DefaultCommitEvery, "Entities processed between transaction commits.")
	flag.BoolVar(&debug, "debug", false, "Enable debug logs.")
	flag.Parse()

	visited := map[string]bool{}
	flag.CommandLine.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})

	// Base config from file (optional)
	fileCfg := &importer.FileConfig{}
	if configPath != "" {
		cfg, err := importer.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		fileCfg = cfg
	}

	// Merge config + CLI overrides
	finalXML := fileCfg.XML
	if visited["xml"] {
		finalXML = xmlPath
	}
	finalDB := fileCfg.DB
	if finalDB == "" {
		finalDB = "archive.db"
	}
	if visited["db"] {
		finalDB = dbPath
	}
	finalBatchSize := fileCfg.BatchSize
	if visited["batch-size"] {
		finalBatchSize = batchSize
	}
	finalCommitEvery := fileCfg.CommitEvery
	if visited["commit-every"] {
		finalCommitEvery = commitEvery
	}
	finalDebug := fileCfg.Debug
	if visited["debug"] {
		finalDebug = debug
	}

	if strings.TrimSpace(finalXML) == "" {
		fmt.Fprintln(os.Stderr, "missing export file (use --xml or config.yaml xml)")
		os.Exit(2)
	}

	imp, err := importer.NewImporter(importer.Config{
		DBPath:      finalDB,
		BatchSize:   finalBatchSize,
		CommitEvery: finalCommitEvery,
		Debug:       finalDebug,
	})
	if err != nil {
		log.Fatalf("init importer: %v", err)
	}

	stats, err := imp.ImportFile(finalXML)
	if stats != nil {
		fmt.Println(stats)
	}
	if err != nil {
		// Close rolls back the uncommitted tail; log.Fatalf would skip it.
		if cerr := imp.Close(); cerr != nil {
			log.Printf("close archive: %v", cerr)
		}
		log.Fatalf("import: %v", err)
	}
	if err := imp.Close(); err != nil {
		log.Fatalf("close archive: %v", err)
	}
}
