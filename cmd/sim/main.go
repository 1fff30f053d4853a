// Package main provides the encounter simulator: it plays scripted parties
// against enemy groups in bulk and reports balance statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neonreach/engine/internal/config"
	"github.com/neonreach/engine/internal/game/character"
	"github.com/neonreach/engine/internal/game/combat"
	"github.com/neonreach/engine/internal/game/dice"
	"github.com/neonreach/engine/internal/game/enemy"
	"github.com/neonreach/engine/internal/game/session"
	"github.com/neonreach/engine/internal/observability"
	"github.com/neonreach/engine/internal/server"
	"github.com/neonreach/engine/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	partyFlag := flag.String("party", "gunslinger", "comma-separated archetype IDs for the party")
	enemyFlag := flag.String("enemy", "scrap-drone", "enemy template ID")
	enemyCount := flag.Int("enemy-count", 2, "enemies per encounter")
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

	loadRoller := dice.NewLoggedRoller(newSource(cfg.Sim.Seed, 0), logger)
	content, err := session.LoadContent(cfg.Content, loadRoller, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	tmpl, ok := content.Enemies.Get(*enemyFlag)
	if !ok {
		logger.Fatal("unknown enemy template", zap.String("enemy", *enemyFlag))
	}
	archetypeIDs := strings.Split(*partyFlag, ",")
	party, err := buildParty(content, archetypeIDs)
	if err != nil {
		logger.Fatal("building party", zap.Error(err))
	}

	sim := &simulation{
		cfg:        cfg,
		content:    content,
		party:      party,
		tmpl:       tmpl,
		enemyCount: *enemyCount,
		logger:     logger,
	}
	sim.ctx, sim.cancel = context.WithCancel(context.Background())

	if cfg.Sim.Persist {
		pool, err := postgres.NewPool(sim.ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		sim.encounters = postgres.NewEncounterRepository(pool.DB())
		sim.characters = postgres.NewCharacterRepository(pool.DB())
	}

	lc := server.NewLifecycle(logger)
	lc.Add("simulation", sim)
	if err := lc.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}

type runResult struct {
	result combat.Result
	rounds int
	record *postgres.EncounterRecord
	err    error
}

// simulation is the batch service: Start plays every encounter through a
// worker pool and prints the aggregate report; Stop cancels outstanding work.
type simulation struct {
	cfg        config.Config
	content    *session.Content
	party      []*character.Character
	tmpl       *enemy.Template
	enemyCount int
	logger     *zap.Logger

	encounters *postgres.EncounterRepository
	characters *postgres.CharacterRepository

	ctx    context.Context
	cancel context.CancelFunc
}

func (s *simulation) Stop() { s.cancel() }

func (s *simulation) Start() error {
	start := time.Now()
	simCfg := s.cfg.Sim

	s.logger.Info("starting simulation",
		zap.Int("encounters", simCfg.Encounters),
		zap.Int("workers", simCfg.Workers),
		zap.Int64("seed", simCfg.Seed),
		zap.String("enemy", s.tmpl.ID),
		zap.Int("enemy_count", s.enemyCount),
	)

	jobs := make(chan int)
	results := make(chan runResult)

	var wg sync.WaitGroup
	for w := 0; w < simCfg.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.runWorker(workerID, jobs, results)
		}(w)
	}
	go func() {
		defer close(jobs)
		for i := 0; i < simCfg.Encounters; i++ {
			select {
			case jobs <- i:
			case <-s.ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var victories, defeats, draws, failures, totalRounds int
	for res := range results {
		if res.err != nil {
			failures++
			s.logger.Error("encounter failed", zap.Error(res.err))
			continue
		}
		totalRounds += res.rounds
		switch res.result {
		case combat.ResultVictory:
			victories++
		case combat.ResultDefeat:
			defeats++
		default:
			draws++
		}
		if s.encounters != nil {
			if _, err := s.encounters.Record(s.ctx, res.record); err != nil {
				s.logger.Error("recording encounter", zap.Error(err))
			}
		}
	}

	completed := victories + defeats + draws
	xpPerVictory := s.tmpl.Experience * s.enemyCount
	for _, c := range s.party {
		levels := c.GainExperience(xpPerVictory * victories)
		s.logger.Info("party progression",
			zap.String("character", c.Name),
			zap.Int("level", c.Level),
			zap.Int("levels_gained", levels),
			zap.Int("experience", c.Experience),
		)
	}
	if s.characters != nil {
		s.persistParty()
	}

	avgRounds := 0.0
	if completed > 0 {
		avgRounds = float64(totalRounds) / float64(completed)
	}
	fmt.Fprintf(os.Stdout,
		"encounters=%d victories=%d defeats=%d draws=%d failures=%d avg_rounds=%.1f xp_awarded=%d [%s]\n",
		simCfg.Encounters, victories, defeats, draws, failures, avgRounds, xpPerVictory*victories, time.Since(start),
	)
	return nil
}

// runWorker plays encounters from jobs until the channel closes or the
// simulation is cancelled. Each worker owns a runner, so concurrent workers
// never share a Lua VM or dice stream.
func (s *simulation) runWorker(workerID int, jobs <-chan int, results chan<- runResult) {
	workerLogger := s.logger.With(zap.Int("worker", workerID))
	roller := dice.NewLoggedRoller(newSource(s.cfg.Sim.Seed, workerID), workerLogger)

	runner, err := session.NewRunner(s.content, roller, workerLogger)
	if err != nil {
		results <- runResult{err: fmt.Errorf("worker %d: %w", workerID, err)}
		for range jobs {
			// drain so the producer can finish
		}
		return
	}
	defer runner.Close()

	for range jobs {
		if s.ctx.Err() != nil {
			continue
		}
		results <- s.playEncounter(runner)
	}
}

func (s *simulation) playEncounter(runner *session.Runner) runResult {
	combatants := make([]*combat.Combatant, 0, len(s.party))
	for _, c := range s.party {
		arch, _ := s.content.Archetypes.Get(c.Archetype)
		pc, err := character.Combatant(c, arch)
		if err != nil {
			return runResult{err: err}
		}
		combatants = append(combatants, pc)
	}

	enc, err := runner.NewEncounter(combatants, enemy.SpawnGroup(s.tmpl, s.enemyCount))
	if err != nil {
		return runResult{err: err}
	}

	result, err := enc.Run(&combat.GreedySelector{}, s.cfg.Sim.MaxRounds)
	if err != nil {
		return runResult{err: err}
	}

	return runResult{
		result: result,
		rounds: enc.Round,
		record: &postgres.EncounterRecord{
			ID:         enc.ID,
			Seed:       s.cfg.Sim.Seed,
			Rounds:     enc.Round,
			Result:     result.String(),
			Snapshot:   enc.Snapshot(),
			Transcript: enc.Events,
		},
	}
}

func (s *simulation) persistParty() {
	for _, c := range s.party {
		if _, err := s.characters.Create(context.Background(), c); err != nil {
			s.logger.Error("creating character", zap.String("character", c.Name), zap.Error(err))
		}
	}
}

func buildParty(content *session.Content, archetypeIDs []string) ([]*character.Character, error) {
	party := make([]*character.Character, 0, len(archetypeIDs))
	for i, id := range archetypeIDs {
		id = strings.TrimSpace(id)
		arch, ok := content.Archetypes.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown archetype %q", id)
		}
		// Unique per run so persisted parties never collide on name.
		c, err := character.Build(fmt.Sprintf("sim-%s-%d-%d", id, i+1, time.Now().Unix()), arch, nil)
		if err != nil {
			return nil, err
		}
		party = append(party, c)
	}
	return party, nil
}

// newSource returns a per-worker dice source: seeded and reproducible when
// seed is non-zero, crypto-backed otherwise.
func newSource(seed int64, workerID int) dice.Source {
	if seed == 0 {
		return dice.NewCryptoSource()
	}
	return dice.NewSeededSource(seed + int64(workerID)*1_000_003)
}
