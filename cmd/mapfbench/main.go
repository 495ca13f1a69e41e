// Command mapfbench generates a random MAPF instance in-process, runs
// it through the solver façade, and prints the resulting metrics
// envelope as JSON. It is a development aid, not the scenario-generator
// or CLI-wrapper collaborators described in the façade's contract.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-solver/internal/solver"
)

func main() {
	app := &cli.App{
		Name:  "mapfbench",
		Usage: "run a generated MAPF instance through the solver façade",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "size", Value: 10, Usage: "grid side length, 5-20"},
			&cli.IntFlag{Name: "agents", Value: 4, Usage: "number of agents"},
			&cli.Float64Flag{Name: "obstacle-density", Value: 0.1, Usage: "fraction of cells blocked"},
			&cli.StringFlag{Name: "algorithm", Value: "cbs", Usage: "independent|cooperative|cbs|mip"},
			&cli.StringFlag{Name: "priority-policy", Value: "", Usage: "distance_first|constrained_first|id_order (cooperative only)"},
			&cli.Float64Flag{Name: "max-time", Value: 10, Usage: "wall-clock budget in seconds"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "scenario RNG seed"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := buildLogger(c.Bool("verbose"))
	defer log.Sync() //nolint:errcheck

	req, err := generateScenario(
		c.Int("size"),
		c.Int("agents"),
		c.Float64("obstacle-density"),
		c.String("algorithm"),
		c.String("priority-policy"),
		c.Float64("max-time"),
		c.Int64("seed"),
	)
	if err != nil {
		return err
	}

	resp, err := solver.Solve(context.Background(), req, log)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func buildLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// generateScenario builds a random blocked-cell grid and a set of
// agents with distinct, passable start/goal cells, matching the wire
// shape the façade expects (spec.md §6).
func generateScenario(size, numAgents int, density float64, algorithm, priorityPolicy string, maxTime float64, seed int64) (solver.Request, error) {
	if size < 5 || size > 20 {
		return solver.Request{}, fmt.Errorf("size must be in [5,20], got %d", size)
	}
	rng := rand.New(rand.NewSource(seed))

	blocks := make([][]bool, size)
	for r := range blocks {
		blocks[r] = make([]bool, size)
		for c := range blocks[r] {
			blocks[r][c] = rng.Float64() < density
		}
	}

	free := make([]solver.Coord, 0, size*size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if !blocks[r][c] {
				free = append(free, solver.Coord{r, c})
			}
		}
	}
	if len(free) < numAgents*2 {
		return solver.Request{}, fmt.Errorf("obstacle density too high for %d agents on a %dx%d grid", numAgents, size, size)
	}
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	agents := make([]solver.AgentSpec, numAgents)
	for i := 0; i < numAgents; i++ {
		agents[i] = solver.AgentSpec{
			ID:    i,
			Start: free[2*i],
			Goal:  free[2*i+1],
		}
	}

	return solver.Request{
		Blocks:         blocks,
		Size:           size,
		Agents:         agents,
		AlgorithmName:  algorithm,
		MaxTimeSeconds: maxTime,
		PriorityPolicy: priorityPolicy,
	}, nil
}
