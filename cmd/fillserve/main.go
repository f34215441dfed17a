// Copyright 2025 The FillServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the form filling server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

FillServe learns what a user types into web forms and suggests values for
the next form. It classifies form fields from their name, id, class and
other attributes, remembers per-field histories, value transitions and
cross-field associations, and ranks suggestions from them. It runs as a
MessagePack IPC server behind a browser extension's native messaging host,
or as a CLI for testing and debugging.

# Usage

Start the server with default settings:

	fillserve

Keep learned data in sqlite and enable debug logs:

	fillserve -backend sqlite -state learned.db -d

Run in CLI mode for interactive testing:

	fillserve -c

# Configuration

Runtime configuration is managed through a TOML file:

	[model]
	history_size = 20
	max_links = 20
	related = ["firstName", "lastName", "email", "phone"]

	[classifier]
	threshold = 0.7
	weak_threshold = 0.3
	scorer = "dice"

	[store]
	backend = "file"
	path = "state"
	encrypt = true

The config file is automatically created with defaults if it doesn't exist.

# Profiles

Saved profiles fill whole forms at once. They are read from a YAML file
given with -profiles, or from the store itself (sealed like learned data)
when no file is given. The saveProfile and deleteProfile ops write edits
back to the same place.

# Command Line Flags

	-config string
	    Path to a config file (default [UserConfigDir]/fillserve/config.toml)
	-d  Enable debug mode with detailed logging
	-level string
	    Log level when not in debug mode (default "warn")
	-c  Run in CLI mode instead of server mode
	-limit int
	    Completions to show in CLI mode
	-backend string
	    Store backend: memory, file or sqlite
	-state string
	    Store location, relative to the config dir
	-profiles string
	    YAML profile book
	-rebuild-config
	    Overwrite the default config file with defaults and exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bastiangx/fillserve/internal/cli"
	"github.com/bastiangx/fillserve/internal/logger"
	"github.com/bastiangx/fillserve/internal/utils"
	"github.com/bastiangx/fillserve/pkg/config"
	"github.com/bastiangx/fillserve/pkg/profile"
	"github.com/bastiangx/fillserve/pkg/sequence"
	"github.com/bastiangx/fillserve/pkg/server"
	"github.com/bastiangx/fillserve/pkg/store"
	"github.com/bastiangx/fillserve/pkg/validate"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "fillserve"
	gh      = "https://github.com/bastiangx/fillserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	logLevel := flag.String("level", "warn", "Log level when not in debug mode: debug, info, warn, error")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", 0, fmt.Sprintf("Number of completions to show in CLI mode (default %d from config)", defaultConfig.CLI.DefaultLimit))
	backend := flag.String("backend", "", "Store backend: memory, file or sqlite (default from config)")
	statePath := flag.String("state", "", "Store location, relative to the config dir (default from config)")
	profilesPath := flag.String("profiles", "", "YAML profile book; empty reads profiles from the store")
	rebuildConfig := flag.Bool("rebuild-config", false, "Write a fresh default config file and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		logger.Setup(log.DebugLevel)
		log.SetDefault(logger.NewWithConfig("", log.DebugLevel, true, true, log.TextFormatter))
	} else {
		logger.Setup(logger.ParseLevel(*logLevel))
	}

	if *rebuildConfig {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote default config to %s\n", path)
		os.Exit(0)
	}

	appConfig, usedConfigPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedConfigPath))

	if *backend != "" {
		appConfig.Store.Backend = *backend
	}
	if *statePath != "" {
		appConfig.Store.Path = *statePath
	}
	if *limit > 0 {
		appConfig.CLI.DefaultLimit = *limit
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Print("Either env is not set or system is not supported")
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, pathResolver, appConfig.Store)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	model, err := sequence.Open(ctx, st, appConfig.SequenceConfig())
	if err != nil {
		log.Fatalf("Failed to load learned data: %v", err)
	}
	classifier := appConfig.NewClassifier()

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(model, classifier, appConfig.CLI.DefaultLimit, appConfig.CLI.Prompt)
		if err := inputHandler.Start(ctx); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	book, err := loadProfiles(ctx, st, *profilesPath)
	if err != nil {
		log.Warnf("Failed to load profiles, profile ops are disabled: %v", err)
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(model, classifier, book, appConfig)
	if book != nil {
		srv.SetProfileSaver(profileSaver(st, *profilesPath))
	}
	showStartupInfo(appConfig.Store, model)

	if err := srv.Start(ctx); err != nil {
		log.Errorf("Server stopped: %v", err)
		closeStore()
		os.Exit(1)
	}
}

// openStore resolves the configured location against the config dir and
// opens the backend
func openStore(ctx context.Context, pr *utils.PathResolver, cfg config.StoreConfig) (store.Store, func() error, error) {
	key, err := cfg.SealingKey()
	if err != nil {
		return nil, nil, err
	}

	path := cfg.Path
	switch strings.ToLower(cfg.Backend) {
	case "file":
		if path, err = pr.GetStateDir(path); err != nil {
			return nil, nil, err
		}
	case "sqlite":
		if path == "" {
			path = "state"
		}
		if path != ":memory:" && !filepath.IsAbs(path) {
			path = filepath.Join(pr.GetConfigDir(), path)
		}
	}
	log.Debugf("Opening %s store at %s (encrypt=%v)", cfg.Backend, path, cfg.Encrypt)

	return store.Open(ctx, store.Options{
		Backend: cfg.Backend,
		Path:    path,
		Encrypt: cfg.Encrypt,
		Key:     key,
	})
}

// loadProfiles reads the YAML book at path, or the book kept in st when
// path is empty. Invalid profiles are kept but reported.
func loadProfiles(ctx context.Context, st store.Store, path string) (*profile.Book, error) {
	var (
		book *profile.Book
		err  error
	)
	if path != "" {
		book, err = profile.LoadFile(path)
	} else {
		book, err = profile.LoadStore(ctx, st)
	}
	if err != nil {
		return nil, err
	}
	validators := validate.Default()
	for _, p := range book.Profiles {
		if err := p.Validate(validators); err != nil {
			log.Warnf("Profile %q: %v", p.Name, err)
		}
	}
	log.Debugf("Loaded profiles: %v", book.Names())
	return book, nil
}

// profileSaver writes edits back to where loadProfiles read them from
func profileSaver(st store.Store, path string) profile.Saver {
	if path != "" {
		return profile.FileSaver(path)
	}
	return profile.StoreSaver(st)
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ FillServe ] Learns your forms, fills them back!")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(st config.StoreConfig, model *sequence.Model) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " FillServe ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("session: %s", model.SessionID())
	log.Infof("store: %s (encrypted: %v)", st.Backend, st.Encrypt)
	log.Infof("learned values: %s", utils.FormatWithCommas(model.Stats()["values"]))
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")

	log.SetLevel(currentLevel)
}
