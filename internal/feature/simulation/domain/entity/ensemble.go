package entity

import "gonum.org/v1/gonum/mat"

// PathEnsemble is an n_paths × (horizon+1) grid of simulated rates.
//
// Storage is time-major: all paths of step t are contiguous, which is the
// order in which the simulator produces them.
type PathEnsemble struct {
	nPaths int
	steps  int
	seed   uint64
	data   []float64
}

// NewPathEnsemble wraps data produced by a simulator. data must hold
// steps·nPaths values in time-major order; the ensemble takes ownership.
func NewPathEnsemble(nPaths, steps int, seed uint64, data []float64) *PathEnsemble {
	if nPaths <= 0 || steps <= 0 || len(data) != nPaths*steps {
		panic("entity: ensemble dimensions do not match data")
	}
	return &PathEnsemble{nPaths: nPaths, steps: steps, seed: seed, data: data}
}

// Paths is the number of rows.
func (e *PathEnsemble) Paths() int { return e.nPaths }

// Steps is the number of columns, horizon+1.
func (e *PathEnsemble) Steps() int { return e.steps }

// Horizon is the number of simulated steps after the starting column.
func (e *PathEnsemble) Horizon() int { return e.steps - 1 }

// Seed is the master seed the ensemble was generated from.
func (e *PathEnsemble) Seed() uint64 { return e.seed }

// At returns the rate of path p at step t.
func (e *PathEnsemble) At(p, t int) float64 {
	return e.data[t*e.nPaths+p]
}

// Column returns all paths at step t. The slice shares storage with the
// ensemble and must not be modified.
func (e *PathEnsemble) Column(t int) []float64 {
	return e.data[t*e.nPaths : (t+1)*e.nPaths]
}

// Terminal returns a copy of the last column.
func (e *PathEnsemble) Terminal() []float64 {
	out := make([]float64, e.nPaths)
	copy(out, e.Column(e.steps-1))
	return out
}

// Row returns a copy of path p across all steps.
func (e *PathEnsemble) Row(p int) []float64 {
	out := make([]float64, e.steps)
	for t := range out {
		out[t] = e.data[t*e.nPaths+p]
	}
	return out
}

// Dense returns the ensemble as an n_paths × (horizon+1) matrix.
func (e *PathEnsemble) Dense() *mat.Dense {
	m := mat.NewDense(e.nPaths, e.steps, nil)
	for t := 0; t < e.steps; t++ {
		m.SetCol(t, e.Column(t))
	}
	return m
}
