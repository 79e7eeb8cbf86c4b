// syncjob runs one synchronization job against the configured database and prints
// the JSON result. It lets an external scheduler trigger jobs without the HTTP server.
//
// Usage: syncjob -job=<sets|cards|slab_prices|set_values|population_import> [flags]
//
// Exit status is 0 when the job reports success, 1 otherwise.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/phuslu/log"

	"github.com/julianjca/op-portfolio-tracker/internal/config"
	"github.com/julianjca/op-portfolio-tracker/internal/database"
	"github.com/julianjca/op-portfolio-tracker/internal/models"
	"github.com/julianjca/op-portfolio-tracker/internal/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to TOML config file")
	job := flag.String("job", "", "Job to run: sets, cards, slab_prices, set_values, population_import (required)")
	setCode := flag.String("set", "", "Limit the job to one set code")
	noDecks := flag.Bool("no-decks", false, "sets: skip starter decks")
	noPrices := flag.Bool("no-prices", false, "cards: skip market price rows")
	promos := flag.Bool("promos", false, "cards: include promo cards")
	recalc := flag.Bool("recalculate", false, "cards, slab_prices: recompute set values afterwards")
	limit := flag.Int("limit", 0, "slab_prices: maximum cards to look up")
	cardIDs := flag.String("cards", "", "slab_prices: comma separated card ids")
	importFile := flag.String("file", "", "population_import: JSON file with population entries")
	flag.Parse()

	if *job == "" {
		fmt.Fprintln(os.Stderr, "Error: -job is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	// Keep stdout clean for the JSON result
	cfg.Logging.Format = "json"
	config.SetupLogging(cfg.Logging)
	log.DefaultLogger.Writer = &log.IOWriter{Writer: os.Stderr}

	db, err := database.Open(cfg.Database.Path, config.GormLogLevel(cfg.Database.LogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncService := services.NewSyncServiceFromConfig(cfg, db)

	var result any
	switch models.SyncKind(*job) {
	case models.SyncKindSets:
		includeDecks := !*noDecks
		result, err = syncService.SyncSets(ctx, services.SetSyncRequest{IncludeStarterDecks: &includeDecks})
	case models.SyncKindCards:
		syncPrices := !*noPrices
		result, err = syncService.SyncCards(ctx, services.CardSyncRequest{
			SetCode:           *setCode,
			SyncPrices:        &syncPrices,
			IncludePromos:     *promos,
			RecalculateValues: *recalc,
		})
	case models.SyncKindSlabPrices:
		ids, parseErr := parseIDs(*cardIDs)
		if parseErr != nil {
			log.Fatal().Err(parseErr).Msg("Invalid -cards")
		}
		result, err = syncService.SyncSlabPrices(ctx, services.SlabPriceSyncRequest{
			CardIDs:           ids,
			SetCode:           *setCode,
			Limit:             *limit,
			RecalculateValues: *recalc,
		})
	case models.SyncKindSetValues:
		result, err = syncService.CalculateSetValues(ctx, services.CalculateRequest{SetCode: *setCode})
	case models.SyncKindPopulationImport:
		entries, readErr := readPopulationFile(*importFile)
		if readErr != nil {
			log.Fatal().Err(readErr).Msg("Failed to read population file")
		}
		result, err = syncService.SyncPopulation(ctx, services.PopulationSyncRequest{
			Action: services.PopulationActionImport,
			Data:   entries,
		})
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown job %q\n", *job)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		log.Error().Err(encErr).Msg("Failed to encode result")
	}

	if err != nil {
		log.Error().Err(err).Str("job", *job).Msg("Job failed")
		os.Exit(1)
	}
	if env, ok := result.(interface{ Envelope() *models.JobResult }); ok && !env.Envelope().Success {
		os.Exit(1)
	}
}

func parseIDs(s string) ([]uint, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid card id %q: %w", part, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func readPopulationFile(path string) ([]models.PopulationImportEntry, error) {
	if path == "" {
		return nil, fmt.Errorf("-file is required for population_import")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []models.PopulationImportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, nil
}
