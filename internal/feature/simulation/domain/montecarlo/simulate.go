// Package montecarlo generates sample paths of the mean-reverting short-rate
// process.
//
// Both schemes reduce to the same per-step recursion
//
//	r' = theta + (r - theta)·a + b·Z,  Z ~ N(0, 1)
//
// EXACT uses a = e^{-kappa·dt}, b = sigma·sqrt((1-e^{-2·kappa·dt})/(2·kappa)),
// which samples the transition density without discretization error.
// EULER uses a = 1 - kappa·dt, b = sigma·sqrt(dt).
//
// Paths are split into fixed blocks, each with its own generator seeded from
// the master seed, so output depends only on the seed and never on the
// number of workers.
package montecarlo

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
)

// blockSize is the number of paths driven by one generator.
const blockSize = 1024

// Simulate draws cfg.NPaths paths of cfg.Horizon steps of size params.DT,
// all starting at r0.
func Simulate(ctx context.Context, params entity.ParameterSet, cfg entity.SimulationConfig, r0 float64) (*entity.PathEnsemble, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSimulation, err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSimulation, err)
	}
	if math.IsNaN(r0) || math.IsInf(r0, 0) {
		return nil, fmt.Errorf("%w: r0 must be finite, got %v", domain.ErrSimulation, r0)
	}

	scheme, err := entity.ParseScheme(string(cfg.Scheme))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSimulation, err)
	}
	a, b, err := coefficients(params, scheme)
	if err != nil {
		return nil, err
	}

	var seed uint64
	if cfg.Seed != nil {
		seed = uint64(*cfg.Seed)
	} else if seed, err = freshSeed(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSimulation, err)
	}

	n, steps := cfg.NPaths, cfg.Horizon+1
	data := make([]float64, n*steps)
	floats.AddConst(r0, data[:n])

	nBlocks := (n + blockSize - 1) / blockSize
	master := rand.New(rand.NewPCG(seed, 0))
	blockSeeds := make([]uint64, nBlocks)
	for i := range blockSeeds {
		blockSeeds[i] = master.Uint64()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for blk := range nBlocks {
		g.Go(func() error {
			lo, hi := blk*blockSize, min((blk+1)*blockSize, n)
			rng := rand.New(rand.NewPCG(blockSeeds[blk], uint64(blk)))
			z := make([]float64, hi-lo)
			for t := 1; t < steps; t++ {
				if t%64 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				for i := range z {
					z[i] = rng.NormFloat64()
				}
				step(data[t*n+lo:t*n+hi], data[(t-1)*n+lo:(t-1)*n+hi], z, params.Theta, a, b)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSimulation, err)
	}
	return entity.NewPathEnsemble(n, steps, seed, data), nil
}

// step writes theta + (prev-theta)·a + b·z into next.
func step(next, prev, z []float64, theta, a, b float64) {
	copy(next, prev)
	floats.AddConst(-theta, next)
	floats.Scale(a, next)
	floats.AddConst(theta, next)
	floats.AddScaled(next, b, z)
}

func coefficients(p entity.ParameterSet, scheme entity.Scheme) (a, b float64, err error) {
	switch scheme {
	case entity.SchemeExact:
		return p.Decay(p.DT), math.Sqrt(p.ConditionalVariance(p.DT)), nil
	case entity.SchemeEuler:
		return 1 - p.Kappa*p.DT, p.Sigma * math.Sqrt(p.DT), nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown scheme %q", domain.ErrSimulation, scheme)
	}
}

func freshSeed() (uint64, error) {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("draw seed: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
