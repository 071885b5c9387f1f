// Command chatcore is a terminal chat client over the streaming providers.
// Configuration comes from a TOML file, a remote JSON document, or both;
// conversations persist across runs.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/codbun/chatcore/chat"
	"github.com/codbun/chatcore/config"
	"github.com/codbun/chatcore/providers/ai"
	"github.com/codbun/chatcore/providers/ai/anthropic"
	"github.com/codbun/chatcore/providers/ai/gemini"
	"github.com/codbun/chatcore/providers/ai/grok"
	"github.com/codbun/chatcore/providers/ai/meta"
	"github.com/codbun/chatcore/providers/ai/openai"
	"github.com/codbun/chatcore/providers/ai/qwen"
	"github.com/codbun/chatcore/providers/observability"
	"github.com/codbun/chatcore/providers/observability/slogobs"
	"github.com/codbun/chatcore/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chatcore:", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; a missing .env file is fine.
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "TOML configuration file")
		configURL  = flag.String("config-url", "", "remote JSON configuration URL")
		watch      = flag.String("watch", "", "reload the TOML configuration when this file changes")
		dbPath     = flag.String("db", "", "SQLite conversation database (default: JSON file under the user config dir)")
		kindFlag   = flag.String("provider", string(ai.KindGPT), "backend family: gpt, claude, gemini, qwen, grok, meta")
		model      = flag.String("model", "", "model identifier to chat with (required)")
		preamble   = flag.String("system", "You are a helpful assistant.", "system preamble")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *model == "" {
		return fmt.Errorf("-model is required")
	}
	kind := ai.Kind(*kindFlag)

	level := slog.LevelInfo
	if *verbose {
		level = slogobs.LevelTrace
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observer := slogobs.New(logger)

	// SIGINT cancels the in-flight exchange (below); only SIGTERM tears the
	// whole process context down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	ctx = observability.ContextWithObserver(ctx, observer)

	registry := config.NewRegistry()
	if *configPath != "" {
		if err := registry.LoadFile(*configPath); err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
	}
	if *configURL != "" {
		if err := registry.FetchRemote(ctx, nil, *configURL); err != nil {
			return fmt.Errorf("fetching configuration: %w", err)
		}
	}
	if *watch != "" {
		if err := registry.Watch(ctx, *watch, observer); err != nil {
			return fmt.Errorf("watching configuration: %w", err)
		}
	}

	medium, err := openMedium(*dbPath)
	if err != nil {
		return err
	}

	st := store.New(medium)
	st.Load(ctx)

	entitlements := ai.EntitlementsFunc(func() bool {
		return os.Getenv("CHATCORE_PREMIUM") == "1"
	})

	providers := ai.NewRegistry()
	providers.Register(openai.New(registry, entitlements))
	providers.Register(anthropic.New(registry, entitlements))
	providers.Register(gemini.New(registry, entitlements))
	providers.Register(qwen.New(registry, entitlements))
	providers.Register(grok.New(registry, entitlements))
	providers.Register(meta.New(registry, entitlements))

	conversation := st.CreateConversation(kind)
	orchestrator, err := chat.New(st, providers, conversation.ID)
	if err != nil {
		return err
	}
	orchestrator.WithSystemPreamble(*preamble)
	defer orchestrator.Close()

	// Interrupt cancels the in-flight exchange; /quit or SIGTERM exits.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		for range interrupts {
			orchestrator.Cancel()
		}
	}()

	return chatLoop(ctx, orchestrator, *model)
}

func openMedium(dbPath string) (store.Medium, error) {
	if dbPath != "" {
		medium, err := store.OpenSQLiteMedium(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening conversation database: %w", err)
		}
		return medium, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	return store.NewFileMedium(filepath.Join(configDir, "chatcore", "conversations.json")), nil
}

func chatLoop(ctx context.Context, orchestrator *chat.Orchestrator, model string) error {
	snapshots := orchestrator.Observe()

	// Print response growth incrementally as snapshots arrive.
	go func() {
		var printed int
		for snapshot := range snapshots {
			if len(snapshot) == 0 {
				continue
			}
			last := snapshot[len(snapshot)-1]
			if len(last.ResponseText) > printed {
				fmt.Print(last.ResponseText[printed:])
				printed = len(last.ResponseText)
			}
			if !last.InFlight {
				printed = 0
			}
		}
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !stdin.Scan() {
			return stdin.Err()
		}
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		exchange, err := orchestrator.Submit(ctx, line, nil, model)
		if err != nil {
			fmt.Fprintln(os.Stderr, "submit:", err)
			continue
		}
		if exchange.Failed() {
			fmt.Fprintln(os.Stderr, "\nerror:", exchange.FailureMessage)
		}
		fmt.Println()

		if ctx.Err() != nil {
			return nil
		}
	}
}
