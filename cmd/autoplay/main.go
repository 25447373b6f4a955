// Command autoplay plays a session through the REST API until the pile is
// empty. Each turn it tries the eligible cells and rotations in order until
// the server accepts one. When the next tile fits nowhere, which can only
// happen with edge matching on, it resets the session and tries again with
// the candidates shuffled.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/carcassonne/game/tile"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play a game session to the end through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "config", Usage: "rule configuration for a new session"},
			&cli.Int64Flag{Name: "seed", Usage: "shuffle seed for a new session (random when unset)"},
			&cli.StringFlag{Name: "continue", Usage: "play an existing session by ID"},
			&cli.IntFlag{Name: "max-attempts", Value: 20, Usage: "resets allowed when a tile fits nowhere"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between placements"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	client := NewClient(cmd.String("url"))
	log.Printf("Connecting to game server at %s", cmd.String("url"))

	if id := cmd.String("continue"); id != "" {
		if _, err := client.Resume(ctx, id); err != nil {
			return err
		}
		log.Printf("🔄 Resuming session: %s", client.SessionID())
	} else {
		var seed *int64
		if cmd.IsSet("seed") {
			s := cmd.Int64("seed")
			seed = &s
		}
		session, err := client.CreateSession(ctx, cmd.String("config"), seed)
		if err != nil {
			return err
		}
		log.Printf("✨ Session created: %s (config %s, seed %d)", session.ID, session.ConfigName, session.Seed)
	}

	opts := playOptions{
		MaxAttempts: cmd.Int("max-attempts"),
		Delay:       cmd.Duration("delay"),
		Verbose:     cmd.Bool("v"),
	}
	outcome, err := play(ctx, client, opts)
	if err != nil {
		return err
	}

	log.Printf("Session: %s", client.SessionID())
	if !outcome.Complete {
		return fmt.Errorf("gave up after %d attempts with %d tiles left", outcome.Attempts, outcome.Left)
	}
	log.Printf("🎉 Pile emptied in attempt %d: %d tiles placed, board %dx%d",
		outcome.Attempts, outcome.Placed, outcome.Width, outcome.Height)
	return nil
}

type playOptions struct {
	MaxAttempts int
	Delay       time.Duration
	Verbose     bool
}

type outcome struct {
	Complete bool
	Attempts int
	Placed   int
	Left     int
	Width    int
	Height   int
}

type candidate struct {
	index    int
	rotation tile.Rotation
}

// play places tiles until the pile is empty. The first attempt continues the
// session as it is; later attempts start from a reset.
func play(ctx context.Context, client *Client, opts playOptions) (outcome, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	var result outcome
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result = outcome{Attempts: attempt}
		if attempt > 1 {
			if err := client.Reset(ctx); err != nil {
				return result, err
			}
		}
		rng := rand.New(rand.NewSource(int64(attempt)))

		board, err := client.Board(ctx)
		if err != nil {
			return result, err
		}

		for !board.GameOver {
			candidates := make([]candidate, 0, len(board.Eligible)*4)
			for _, index := range board.Eligible {
				for r := tile.Rotation(0); r < 4; r++ {
					candidates = append(candidates, candidate{index, r})
				}
			}
			if attempt > 1 {
				rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
			}

			placed := false
			for _, c := range candidates {
				res, err := client.Place(ctx, c.index, c.rotation)
				if err != nil {
					return result, err
				}
				if res.Success {
					board = res.Board
					placed = true
					if opts.Verbose {
						log.Printf("placed %s at (%d,%d) rot %d, pile %d",
							res.Placement.TileName, res.Placement.Row, res.Placement.Col, c.rotation, board.PileSize)
					}
					break
				}
			}
			if !placed {
				log.Printf("⚠️  Tile %s fits nowhere, %d left", board.NextTile, board.PileSize)
				break
			}
			result.Placed++

			if opts.Delay > 0 {
				time.Sleep(opts.Delay)
			}
		}

		result.Left = board.PileSize
		result.Width, result.Height = board.Width, board.Height
		log.Printf("Attempt %d: placed %d, left %d, board %dx%d", attempt, result.Placed, result.Left, result.Width, result.Height)

		if board.GameOver {
			result.Complete = true
			return result, nil
		}
	}
	return result, nil
}
