// Command tripflow plans multi-city trips from the terminal or serves
// the planning API over HTTP.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tripflow-ai/tripflow/cache"
	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/graph/emit"
	"github.com/tripflow-ai/tripflow/graph/store"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/oracle/anthropic"
	"github.com/tripflow-ai/tripflow/oracle/google"
	"github.com/tripflow-ai/tripflow/oracle/openai"
	"github.com/tripflow-ai/tripflow/server"
	"github.com/tripflow-ai/tripflow/travel"
	"github.com/tripflow-ai/tripflow/travel/agents"
	"github.com/tripflow-ai/tripflow/travel/sources"
	"github.com/tripflow-ai/tripflow/travel/workflow"
)

func main() {
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of planning interactively")
	addr := flag.String("addr", "", "HTTP bind address (overrides TRIPFLOW_HTTP_ADDR)")
	request := flag.String("request", "", "trip request; empty prompts on stdin")
	flag.Parse()

	settings, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		settings.HTTPAddr = *addr
	}

	ctx := context.Background()

	caller, err := buildCaller(ctx, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oracle: %v\n", err)
		os.Exit(1)
	}
	st, err := buildStore(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}
	cacheBackend, err := buildCache(ctx, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache: %v\n", err)
		os.Exit(1)
	}

	deps := workflow.Deps{
		Caller:   caller,
		Settings: settings,
		Store:    st,
		Emitter:  emit.NewLogEmitter(os.Stderr, settings.LogJSON),
		Registry: buildRegistry(),
		Cache:    cacheBackend,
	}
	if *serve {
		deps.Metrics = graph.NewMetrics(nil)
	}

	service, err := workflow.NewService(deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "workflow: %v\n", err)
		os.Exit(1)
	}

	if *serve {
		srv := server.New(service, cacheBackend)
		fmt.Printf("tripflow listening on %s\n", settings.HTTPAddr)
		if err := srv.Router().Run(settings.HTTPAddr); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := planInteractive(ctx, service, *request); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func buildCaller(ctx context.Context, settings *config.Settings) (oracle.Caller, error) {
	switch settings.OracleProvider {
	case "openai":
		return openai.New(settings.OpenAIAPIKey)
	case "anthropic":
		return anthropic.New(settings.AnthropicAPIKey)
	case "google":
		return google.New(ctx, settings.GoogleAPIKey)
	case "mock":
		return oracle.NewMockCaller(), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", settings.OracleProvider)
	}
}

func buildStore(settings *config.Settings) (store.Store[travel.TripState], error) {
	switch settings.StoreBackend {
	case "memory":
		return store.NewMemStore[travel.TripState](), nil
	case "sqlite":
		return store.NewSQLiteStore[travel.TripState](settings.SQLitePath)
	case "mysql":
		return store.NewMySQLStore[travel.TripState](settings.MySQLDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", settings.StoreBackend)
	}
}

// buildRegistry assembles the data sources. No live scraping backends
// ship yet, so the bundled sources return deterministic estimates and
// budgeting always has price data to work from.
func buildRegistry() *sources.Registry {
	registry := sources.NewRegistry()
	for _, name := range []string{
		sources.SourceRome2Rio,
		sources.SourceGoogleFlights,
		sources.SourceRedbus,
		sources.SourceTrainman,
		sources.SourceTwelveGoAsia,
	} {
		registry.RegisterTransport(sources.NewMockTransportSource(name))
	}
	registry.SetStations(sources.MockStationSource{})
	registry.SetPlaces(sources.MockPlacesSource{})
	return registry
}

func buildCache(ctx context.Context, settings *config.Settings) (cache.Cache, error) {
	switch settings.CacheBackend {
	case "memory":
		return cache.NewMemCache(settings.CacheTTLDefault), nil
	case "redis":
		return cache.NewRedisCache(ctx, settings.RedisAddr, settings.RedisDB, settings.CacheTTLDefault)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", settings.CacheBackend)
	}
}

// planInteractive runs one planning session in the terminal, pausing
// for clarification answers when the workflow asks for them.
func planInteractive(ctx context.Context, service *workflow.Service, request string) error {
	reader := bufio.NewReader(os.Stdin)

	if request == "" {
		fmt.Print("Describe your trip: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading request: %w", err)
		}
		request = strings.TrimSpace(line)
	}

	session, err := service.StartSession(ctx, request)
	if err != nil {
		return err
	}

	if session.Status == graph.StatusSuspended {
		fmt.Println("\nA few questions before planning:")
		fmt.Print(agents.ClarificationPrompt(session.State.ClarificationQuestions))

		answers := make(map[string]string)
		for _, q := range session.State.ClarificationQuestions {
			fmt.Printf("%s: ", q.QuestionID)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading answer: %w", err)
			}
			if answer := strings.TrimSpace(line); answer != "" {
				answers[q.QuestionID] = answer
			}
		}

		session, err = service.ResumeSession(ctx, session.ID, answers)
		if err != nil {
			return err
		}
	}

	if session.Status != graph.StatusCompleted {
		return fmt.Errorf("planning ended with status %s", session.Status)
	}
	printItinerary(session.State.FinalItinerary)
	return nil
}

func printItinerary(it *travel.Itinerary) {
	if it == nil {
		fmt.Println("No itinerary produced.")
		return
	}

	fmt.Printf("\n%s\n", it.TripTitle)
	fmt.Println(strings.Repeat("=", len(it.TripTitle)))
	if it.DestinationSummary != "" {
		fmt.Println(it.DestinationSummary)
	}
	fmt.Printf("Cities: %s\n", strings.Join(it.CitiesVisited, " -> "))
	if it.TotalEstimatedCostUSD > 0 {
		fmt.Printf("Estimated cost: $%.0f %s\n", it.TotalEstimatedCostUSD, "USD")
	}

	for _, day := range it.DailyPlans {
		fmt.Printf("\nDay %d - %s", day.DayNumber, day.City)
		if day.Date != "" {
			fmt.Printf(" (%s)", day.Date)
		}
		fmt.Println()
		for _, act := range day.Activities {
			fmt.Printf("  %-13s %s\n", act.TimeSlot, act.Title)
		}
	}

	if len(it.Warnings) > 0 {
		fmt.Println("\nNotes:")
		for _, w := range it.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}
