// Command analyze prints quick, human-readable facts about the tile catalog
// and the rule configurations in the project's configs directory, and plays
// seeded games to check the board bookkeeping holds up over whole decks.
//
//	analyze catalog
//	analyze deck --config small --seed 7
//	analyze simulate --config matching --games 20 --strategy random
//	analyze validate [files...]
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/carcassonne/api"
	"github.com/wricardo/carcassonne/game/board"
	"github.com/wricardo/carcassonne/game/config"
	"github.com/wricardo/carcassonne/game/engine"
	"github.com/wricardo/carcassonne/game/tile"
	"github.com/wricardo/carcassonne/validate"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "inspect tiles, decks and seeded playthroughs",
		Commands: []*cli.Command{
			{
				Name:   "catalog",
				Usage:  "list every tile type with its edges and face",
				Action: catalogAction,
			},
			{
				Name:  "deck",
				Usage: "show a configuration's deck and the first draws for a seed",
				Flags: append(configFlags(),
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "shuffle seed"},
					&cli.IntFlag{Name: "show", Value: 10, Usage: "number of draws to preview"},
				),
				Action: deckAction,
			},
			{
				Name:  "simulate",
				Usage: "play seeded games to the end and check the board after every placement",
				Flags: append(configFlags(),
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "seed of the first game; later games count up from it"},
					&cli.IntFlag{Name: "games", Value: 10, Usage: "number of games"},
					&cli.StringFlag{Name: "strategy", Value: "first", Usage: "placement choice: first or random"},
				),
				Action: simulateAction,
			},
			{
				Name:      "validate",
				Usage:     "validate configuration files (all of --config-dir when none are given)",
				ArgsUsage: "[files...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing rule configurations"},
				},
				Action: validateAction,
			},
		},
	}
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.StandardID, Usage: "configuration name"},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing rule configurations"},
	}
}

func loadConfig(cmd *cli.Command) (*engine.GameConfig, error) {
	manager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, err
	}
	return manager.LoadConfig(cmd.String("config"))
}

func catalogAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer
	for _, t := range api.TileCatalog() {
		fmt.Fprintf(out, "%s ×%d  left=%s top=%s right=%s bottom=%s center=%s\n",
			t.Letter, t.Standard, t.Edges[0], t.Edges[1], t.Edges[2], t.Edges[3], t.Center)
		for _, row := range t.Face {
			fmt.Fprintf(out, "   %s\n", row)
		}
	}
	return nil
}

func deckAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer

	counts := cfg.DeckCounts()
	size := 0
	for _, n := range counts {
		size += n
	}
	start, rotation := cfg.Start()

	fmt.Fprintf(out, "Name: %s\n", cfg.Name)
	fmt.Fprintf(out, "Description: %s\n", cfg.Description)
	fmt.Fprintf(out, "Deck: %d tiles\n", size)
	fmt.Fprintf(out, "Start tile: %s (rotation %d)\n", start, rotation)
	fmt.Fprintf(out, "Edge matching: %v\n", cfg.EnforceEdges)

	var parts []string
	for id, n := range counts {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s×%d", tile.ID(id), n))
		}
	}
	fmt.Fprintf(out, "Counts: %s\n", strings.Join(parts, " "))

	seed := cmd.Int64("seed")
	game, err := engine.NewEngine(cfg, seed)
	if err != nil {
		return err
	}
	pile := game.GetState().Pile
	show := cmd.Int("show")
	if show > len(pile) {
		show = len(pile)
	}
	draws := make([]string, 0, show)
	for i := len(pile) - 1; i >= len(pile)-show; i-- {
		draws = append(draws, pile[i].String())
	}
	fmt.Fprintf(out, "First %d draws (seed %d): %s\n", show, seed, strings.Join(draws, " "))
	return nil
}

func simulateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	strategy := cmd.String("strategy")
	if strategy != "first" && strategy != "random" {
		return fmt.Errorf("unknown strategy %q: use first or random", strategy)
	}
	out := cmd.Root().Writer

	games := cmd.Int("games")
	if games <= 0 {
		return fmt.Errorf("games must be positive, got %d", games)
	}

	seed := cmd.Int64("seed")
	completed, stuck, totalPlaced, maxArea := 0, 0, 0, 0
	for i := 0; i < games; i++ {
		sim, err := simulate(cfg, seed+int64(i), strategy)
		if err != nil {
			return fmt.Errorf("game %d (seed %d): %w", i+1, seed+int64(i), err)
		}

		status := "complete"
		if sim.Stuck {
			status = fmt.Sprintf("stuck with %d left", sim.Left)
			stuck++
		} else {
			completed++
		}
		fmt.Fprintf(out, "game %d seed %d: placed %d, board %dx%d, %s\n",
			i+1, sim.Seed, sim.Placed, sim.Width, sim.Height, status)

		totalPlaced += sim.Placed
		if area := sim.Width * sim.Height; area > maxArea {
			maxArea = area
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	fmt.Fprintf(out, "games: %d, complete: %d, stuck: %d\n", games, completed, stuck)
	fmt.Fprintf(out, "average placed: %.1f, largest board: %d cells\n", float64(totalPlaced)/float64(games), maxArea)
	fmt.Fprintln(out, "✅ Board bookkeeping held after every placement")
	return nil
}

// simulation is the outcome of one seeded game.
type simulation struct {
	Seed   int64
	Placed int
	Left   int
	Width  int
	Height int
	Stuck  bool
}

// simulate plays a game until the pile is empty or the next tile fits
// nowhere. Board invariants are checked after every placement.
func simulate(cfg *engine.GameConfig, seed int64, strategy string) (simulation, error) {
	game, err := engine.NewEngine(cfg, seed)
	if err != nil {
		return simulation{}, err
	}
	rng := rand.New(rand.NewSource(seed))

	if err := checkInvariants(game); err != nil {
		return simulation{}, fmt.Errorf("after deal: %w", err)
	}

	sim := simulation{Seed: seed}
	for !game.IsGameOver() {
		type move struct {
			index    int
			rotation tile.Rotation
		}
		var moves []move
		for _, index := range game.EligibleIndices() {
			for r := tile.Rotation(0); r < 4; r++ {
				moves = append(moves, move{index, r})
			}
		}
		if strategy == "random" {
			rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
		}

		placed := false
		for _, m := range moves {
			if game.PlaceNext(m.index, m.rotation) {
				placed = true
				break
			}
		}
		if !placed {
			sim.Stuck = true
			break
		}

		sim.Placed++
		if err := checkInvariants(game); err != nil {
			return sim, fmt.Errorf("after placement %d: %w", sim.Placed, err)
		}
	}

	sim.Left = game.PileSize()
	sim.Width, sim.Height = game.Width(), game.Height()
	return sim, nil
}

// checkInvariants verifies the bookkeeping that must hold between placements.
func checkInvariants(game engine.Engine) error {
	remaining := 0
	for _, n := range game.RemainingCounts() {
		remaining += int(n)
	}
	if remaining != game.PileSize() {
		return fmt.Errorf("remaining counts sum to %d but the pile holds %d", remaining, game.PileSize())
	}

	width, height := game.Width(), game.Height()
	cells := game.Cells()
	if len(cells) != width*height {
		return fmt.Errorf("board is %dx%d but has %d cells", width, height, len(cells))
	}

	at := func(row, col int) board.State {
		if row < 0 || row >= height || col < 0 || col >= width {
			return board.Empty
		}
		return cells[row*width+col].State
	}

	placed := 0
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			state := at(row, col)
			if state == board.Placed {
				placed++
				if row == 0 || col == 0 || row == height-1 || col == width-1 {
					return fmt.Errorf("tile at (%d,%d) sits on the outer ring", row, col)
				}
				continue
			}
			touches := at(row-1, col) == board.Placed || at(row+1, col) == board.Placed ||
				at(row, col-1) == board.Placed || at(row, col+1) == board.Placed
			if touches != (state == board.Eligible) {
				return fmt.Errorf("cell (%d,%d) is %s, touching a tile: %v", row, col, state, touches)
			}
		}
	}

	if want := len(game.GetPlacementHistory()) + 1; placed != want {
		return fmt.Errorf("board holds %d tiles, expected %d", placed, want)
	}
	return nil
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	var results []validate.ValidationResult
	if cmd.Args().Len() > 0 {
		for _, file := range cmd.Args().Slice() {
			results = append(results, validate.ValidateConfig(file))
		}
	} else {
		var err error
		results, err = validate.ValidateDir(cmd.String("config-dir"))
		if err != nil {
			return err
		}
	}

	if !printValidation(cmd.Root().Writer, results) {
		return fmt.Errorf("some configurations have errors")
	}
	return nil
}

// printValidation writes a report and reports whether every file was valid.
func printValidation(out io.Writer, results []validate.ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(out, "  ❌ "+err)
			}
		}
		for _, info := range result.Info {
			fmt.Fprintln(out, "  "+info)
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(out, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(out, "❌ Some configurations have errors")
	}
	return allValid
}
