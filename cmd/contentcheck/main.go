// Package main provides the content pack linter: it loads every content
// directory, cross-validates all references, and verifies that each Lua
// predicate and hook is defined.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/neonreach/engine/internal/config"
	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/game/session"
	"github.com/neonreach/engine/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	content, err := session.LoadContent(cfg.Content, roller, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "content check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "content ok: archetypes=%d skills=%d statuses=%d enemies=%d scripts=%v [%s]\n",
		len(content.Archetypes.All()),
		len(content.Skills.All()),
		len(content.Statuses.All()),
		len(content.Enemies.All()),
		content.HasScripts(),
		time.Since(start),
	)
}
