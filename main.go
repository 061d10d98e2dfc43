// spotcore - line-based front end for the spotcore assistant backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/spotcore/internal/client"
	"github.com/jeranaias/spotcore/internal/config"
	"github.com/jeranaias/spotcore/internal/model"
	"github.com/jeranaias/spotcore/internal/protocol"
	"github.com/jeranaias/spotcore/internal/session"
	"github.com/jeranaias/spotcore/internal/speech"
	"github.com/jeranaias/spotcore/internal/storage"
	"github.com/jeranaias/spotcore/internal/util"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "version", "--version", "-v":
			fmt.Printf("spotcore %s (%s, built %s)\n", Version, GitCommit, BuildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		case "config":
			runConfigCommand(args[1:])
			return
		case "history":
			runHistoryCommand(args[1:])
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
			printUsage()
			os.Exit(1)
		}
	}

	if err := runChat(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`spotcore - assistant chat client

Usage:
  spotcore                       start an interactive chat
  spotcore config path           print the config file location
  spotcore config get <key>      print one config value
  spotcore config set <key> <v>  change one config value
  spotcore history list          list saved transcripts
  spotcore history search <q>    search saved transcripts
  spotcore history show <id>     print one transcript
  spotcore history delete <id>   delete one transcript
  spotcore history clear         delete all transcripts
  spotcore version               print version information

Chat commands:
  /reset            clear the current conversation
  /announce <mode>  set announcement policy (all, auto, off)
  /quit             exit
`)
}

// =============================================================================
// CHAT LOOP
// =============================================================================

func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	config.SetGlobal(cfg)

	backend := client.NewClientWithConfig(&client.ClientConfig{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
	})

	log := model.NewLog()
	gate := speech.NewGate()

	// A line-based terminal has no audio device, so announcements stay
	// off even when a speech key is configured. The gate still guards
	// turn submission.
	controller := session.NewController(log, backend, gate, nil, session.Config{
		Timeout:  time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		Announce: session.AnnounceMode(cfg.Speech.Announce),
	})

	var store *storage.TranscriptStore
	if cfg.Storage.Enabled {
		store, err = openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: transcript storage disabled: %v\n", err)
		} else {
			defer store.Close()
		}
	}

	// Pick up edits to the config file while the chat is running.
	watcher, err := config.NewWatcher(500*time.Millisecond, func(updated *config.Config, err error) {
		if err != nil {
			return
		}
		controller.SetAnnounceMode(session.AnnounceMode(updated.Speech.Announce))
	})
	if err == nil {
		if werr := watcher.Watch(); werr == nil {
			defer watcher.Close()
		}
	}

	ctx := context.Background()
	if err := backend.CheckRunning(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: backend not reachable at %s: %v\n", backend.BaseURL(), err)
	}

	fmt.Printf("spotcore %s - connected to %s (/quit to exit)\n", Version, backend.BaseURL())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runChatCommand(controller, line); quit {
				break
			}
			continue
		}

		result, err := controller.Submit(ctx, line)
		if err != nil {
			if errors.Is(err, session.ErrBusy) {
				fmt.Println("Still working on the previous query.")
				continue
			}
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			continue
		}

		if result.Assistant != nil {
			renderPayload(result.Assistant.Payload, cfg.UI)
		}

		if store != nil {
			if err := store.Save(log); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save transcript: %v\n", err)
			}
		}
	}

	return scanner.Err()
}

// runChatCommand handles a slash command. Returns true to exit the loop.
func runChatCommand(controller *session.Controller, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/reset":
		if err := controller.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot reset: %v\n", err)
		} else {
			fmt.Println("Conversation cleared.")
		}
	case "/announce":
		if len(fields) != 2 {
			fmt.Println("Usage: /announce <all|auto|off>")
			break
		}
		switch fields[1] {
		case "all", "auto", "off":
			controller.SetAnnounceMode(session.AnnounceMode(fields[1]))
			fmt.Printf("Announce mode set to %s.\n", fields[1])
		default:
			fmt.Println("Usage: /announce <all|auto|off>")
		}
	default:
		fmt.Printf("Unknown command %s\n", fields[0])
	}
	return false
}

// =============================================================================
// PAYLOAD RENDERING
// =============================================================================

// renderPayload prints one assistant payload as text. Every registered
// variant has its own shape; anything list-like is capped by the
// configured item limit.
func renderPayload(payload protocol.Payload, ui config.UIConfig) {
	limit := ui.MaxListItems
	if limit <= 0 {
		limit = 5
	}

	switch p := payload.(type) {
	case nil:
		return

	case *protocol.PlainText:
		fmt.Println(p.Text)

	case *protocol.ChatAnswer:
		fmt.Println(p.FinalAnswer)

	case *protocol.MovieShowtimes:
		fmt.Println(p.FinalAnswer)
		for i, t := range p.Response {
			if i >= limit {
				fmt.Printf("  ... and %d more theatres\n", len(p.Response)-limit)
				break
			}
			fmt.Printf("  %s - %s\n", t.Theatre, t.Movie)
			if !ui.CompactMode && len(t.Showtimes) > 0 {
				fmt.Printf("    %s\n", strings.Join(t.Showtimes, ", "))
			}
		}

	case *protocol.MovieInfo:
		for i, m := range p.Response {
			if i >= limit {
				fmt.Printf("  ... and %d more titles\n", len(p.Response)-limit)
				break
			}
			fmt.Printf("%s (%s)\n", m.Title, m.ReleaseDate)
			if !ui.CompactMode && m.Overview != "" {
				fmt.Printf("  %s\n", util.TruncateRunes(m.Overview, 200))
			}
		}

	case *protocol.Directions:
		r := p.Response
		fmt.Printf("Route from %s to %s\n", r.Origin, r.Destination)
		fmt.Printf("  Google Maps: %s\n", r.GoogleMapsURL)
		fmt.Printf("  Apple Maps:  %s\n", r.AppleMapsURL)

	case *protocol.WebSearch:
		fmt.Println(p.FinalAnswer)
		if box := p.Response.AnswerBox; !ui.CompactMode && box != nil && box.Snippet != nil {
			fmt.Printf("  %s\n", util.TruncateRunes(*box.Snippet, 200))
		}
		for i, hit := range p.Response.Organic {
			if i >= limit {
				break
			}
			fmt.Printf("  %d. %s\n     %s\n", hit.Position, hit.Title, hit.Link)
		}

	case *protocol.Encyclopedia:
		fmt.Println(p.FinalAnswer)
		if !ui.CompactMode {
			fmt.Printf("  %s\n", util.TruncateRunes(p.Response, 400))
		}
		fmt.Printf("  %s\n", p.PageURL)

	case *protocol.HourlyForecast:
		fmt.Println(p.FinalAnswer)
		for i, h := range p.Response {
			if i >= limit {
				break
			}
			fmt.Printf("  %s  %.0f\u00b0%s  %s (%d%% precip)\n",
				h.DateTime, h.Temperature.Value, h.Temperature.Unit,
				h.IconPhrase, h.PrecipitationProbability)
		}

	case *protocol.DailyForecast:
		fmt.Println(p.FinalAnswer)
		if headline := p.Response.Headline.Text; headline != "" {
			fmt.Printf("  %s\n", headline)
		}
		for i, d := range p.Response.DailyForecasts {
			if i >= limit {
				break
			}
			fmt.Printf("  %s  %.0f-%.0f\u00b0%s  day: %s, night: %s\n",
				d.Date, d.Temperature.Minimum.Value, d.Temperature.Maximum.Value,
				d.Temperature.Maximum.Unit, d.Day.IconPhrase, d.Night.IconPhrase)
		}

	case *protocol.Places:
		fmt.Println(p.FinalAnswer)
		for i, place := range p.Response.Places {
			if i >= limit {
				fmt.Printf("  ... and %d more places\n", len(p.Response.Places)-limit)
				break
			}
			fmt.Printf("  %d. %s (%.1f, %d ratings)\n     %s\n",
				place.Position, place.Title, place.Rating, place.RatingCount, place.Address)
		}

	case *protocol.ImageSearch:
		fmt.Println("Images:")
		for i, img := range p.Response.Images {
			if i >= limit {
				break
			}
			title := img.Title
			if ui.CompactMode {
				title = util.TruncateRunes(title, 60)
			}
			fmt.Printf("  %s\n     %s\n", title, img.ImageURL)
		}

	case *protocol.UnrecognizedTool:
		fmt.Printf("Unsupported response type %q:\n%s\n", p.Name, string(p.Raw))

	default:
		fmt.Println(payload.SpokenText())
	}
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func runConfigCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: spotcore config <path|get|set> ...")
		os.Exit(1)
	}

	switch args[0] {
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)

	case "get":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: spotcore config get <key>")
			os.Exit(1)
		}
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		value, err := cfg.Get(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "Known keys: %s\n", strings.Join(config.GetAllKeys(), ", "))
			os.Exit(1)
		}
		fmt.Printf("%v\n", value)

	case "set":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: spotcore config set <key> <value>")
			os.Exit(1)
		}
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Set(args[1], args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s = %s\n", args[1], args[2])

	default:
		fmt.Fprintf(os.Stderr, "unknown config command %q\n", args[0])
		os.Exit(1)
	}
}

// =============================================================================
// HISTORY COMMAND
// =============================================================================

func runHistoryCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: spotcore history <list|search|show|delete|clear> ...")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch args[0] {
	case "list":
		metas, err := store.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printMetas(metas)

	case "search":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: spotcore history search <query>")
			os.Exit(1)
		}
		metas, err := store.Search(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printMetas(metas)

	case "show":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: spotcore history show <id>")
			os.Exit(1)
		}
		transcript, err := store.Load(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s (%s)\n\n", transcript.Meta.Title, transcript.Meta.ID)
		for _, msg := range transcript.Messages {
			fmt.Printf("[%s] %s\n", msg.Origin.DisplayName(), msg.Timestamp.Format("2006-01-02 15:04"))
			if msg.Payload != nil {
				renderPayload(msg.Payload, cfg.UI)
			} else {
				fmt.Println(msg.Text)
			}
			fmt.Println()
		}

	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: spotcore history delete <id>")
			os.Exit(1)
		}
		if err := store.Delete(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Deleted.")

	case "clear":
		if err := store.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("All transcripts deleted.")

	default:
		fmt.Fprintf(os.Stderr, "unknown history command %q\n", args[0])
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (*storage.TranscriptStore, error) {
	path := cfg.Storage.DBPath
	if path == "" {
		var err error
		path, err = config.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return storage.NewTranscriptStore(path)
}

func printMetas(metas []storage.TranscriptMeta) {
	if len(metas) == 0 {
		fmt.Println("No transcripts.")
		return
	}
	for _, meta := range metas {
		title := meta.Title
		if title == "" {
			title = "(untitled)"
		}
		// Width-based truncation keeps CJK titles from blowing out
		// the column.
		fmt.Printf("%s  %s  %d messages  %s\n",
			meta.ID, meta.UpdatedAt.Format("2006-01-02 15:04"),
			meta.MessageCount, util.TruncateWidth(title, 60))
	}
}
