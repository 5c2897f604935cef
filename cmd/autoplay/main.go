// Package main runs computer-vs-computer matches between two catalog buttons
// and reports the results. It exercises the engine end to end without a
// server or database.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/buttonmen/internal/config"
	"github.com/cory-johannsen/buttonmen/internal/game/ai"
	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/cory-johannsen/buttonmen/internal/observability"
	"github.com/cory-johannsen/buttonmen/internal/scripting"
)

// decisionLimit bounds a single match so a stuck game fails instead of spinning.
const decisionLimit = 10_000

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	left := flag.String("left", "Avis", "button for seat 0")
	right := flag.String("right", "Kith", "button for seat 1")
	games := flag.Int("games", 1, "number of matches to play")
	maxWins := flag.Int("max-wins", 3, "round wins needed to take a match")
	seed := flag.Int64("seed", 0, "random seed (0 picks one)")
	profilePath := flag.String("profile", "", "optional YAML file with an ai profile")
	verbose := flag.Bool("v", false, "print every action log entry")
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

	catalog, err := button.LoadFile(cfg.Content.ButtonsFile)
	if err != nil {
		logger.Fatal("loading button catalog", zap.Error(err))
	}

	attacks := attack.DefaultRegistry()
	if dir := cfg.Content.AttackScriptsDir; dir != "" {
		mgr := scripting.NewManager(logger, scripting.DefaultInstructionLimit)
		defer mgr.Close()
		if err := mgr.LoadDir(dir); err != nil {
			logger.Fatal("loading attack scripts", zap.Error(err))
		}
		if err := mgr.RegisterInto(attacks); err != nil {
			logger.Fatal("registering scripted attacks", zap.Error(err))
		}
	}

	profile := ai.DefaultProfile
	if *profilePath != "" {
		profile, err = loadProfile(*profilePath)
		if err != nil {
			logger.Fatal("loading ai profile", zap.Error(err))
		}
	}

	if *seed == 0 {
		if *seed, err = dice.NewSeed(); err != nil {
			logger.Fatal("generating seed", zap.Error(err))
		}
	}
	logger.Info("autoplay starting",
		zap.String("left", *left),
		zap.String("right", *right),
		zap.Int("games", *games),
		zap.Int64("seed", *seed),
	)

	src := dice.NewSeededSource(*seed)
	wins := make([]int, 2)
	for i := 0; i < *games; i++ {
		start := time.Now()
		g, err := newMatch(catalog, attacks, src, logger, fmt.Sprintf("autoplay-%d", i), *left, *right, *maxWins)
		if err != nil {
			logger.Fatal("creating match", zap.Error(err))
		}
		players := []*ai.Player{
			ai.NewPlayer(0, profile, src, logger),
			ai.NewPlayer(1, profile, src, logger),
		}
		decisions, err := ai.Play(g, players, decisionLimit)
		if *verbose {
			printLog(g)
		}
		if err != nil {
			logger.Fatal("match failed", zap.Int("match", i), zap.Error(err))
		}
		scores := g.GameScores()
		for p, s := range scores {
			if s.W >= g.MaxWins() {
				wins[p]++
			}
		}
		logger.Info("match finished",
			zap.Int("match", i),
			zap.Int("decisions", decisions),
			zap.Any("scores", scores),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	fmt.Fprintf(os.Stdout, "%s %d - %d %s (%d matches, seed %d)\n", *left, wins[0], wins[1], *right, *games, *seed)
}

func newMatch(catalog *button.Catalog, attacks *attack.Registry, src dice.Source, logger *zap.Logger, id, left, right string, maxWins int) (*engine.Game, error) {
	buttons := make([]*button.Button, 2)
	for i, name := range []string{left, right} {
		b, err := catalog.Button(name)
		if err != nil {
			return nil, err
		}
		buttons[i] = b
	}
	g, err := engine.New(engine.Params{
		ID:        id,
		PlayerIDs: []string{"left", "right"},
		Buttons:   buttons,
		MaxWins:   maxWins,
		Source:    src,
		Attacks:   attacks,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return g, g.ProceedToNextUserAction()
}

func printLog(g *engine.Game) {
	names := []string{g.Button(0).Name, g.Button(1).Name}
	for _, e := range g.DrainActionLog() {
		fmt.Fprintln(os.Stdout, e.FriendlyMessage(names, g.RoundNumber(), g.State()))
	}
}

func loadProfile(path string) (ai.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ai.Profile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	p := ai.DefaultProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ai.Profile{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}
