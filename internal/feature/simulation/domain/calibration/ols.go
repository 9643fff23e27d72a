package calibration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	ratesentity "rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
)

// transitions holds consecutive pairs (x=r[t], y=r[t+1]) and the sufficient
// statistics of the Gaussian AR(1) likelihood. Sums are taken over values
// centered on the series mean to limit cancellation.
type transitions struct {
	x, y   []float64
	center float64

	n                     float64
	sx, sy, sxx, sxy, syy float64
}

func newTransitions(series ratesentity.RateSeries) (*transitions, error) {
	if series.Len() < MinObservations {
		return nil, fmt.Errorf("%w: %w: need at least %d observations, got %d",
			domain.ErrCalibration, domain.ErrData, MinObservations, series.Len())
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrData, err)
	}

	r := series.Rates()
	tr := &transitions{
		x:      r[:len(r)-1],
		y:      r[1:],
		center: stat.Mean(r, nil),
		n:      float64(len(r) - 1),
	}
	if stat.Variance(tr.x, nil) == 0 {
		return nil, fmt.Errorf("%w: %w: series is constant", domain.ErrCalibration, domain.ErrData)
	}
	for i := range tr.x {
		xc, yc := tr.x[i]-tr.center, tr.y[i]-tr.center
		tr.sx += xc
		tr.sy += yc
		tr.sxx += xc * xc
		tr.sxy += xc * yc
		tr.syy += yc * yc
	}
	return tr, nil
}

// negLogLikelihood is the exact negative log-likelihood of the pairs under
// the OU transition density with step dt.
func (tr *transitions) negLogLikelihood(kappa, theta, sigma, dt float64) float64 {
	if !(kappa > 0) || !(sigma > 0) {
		return math.Inf(1)
	}
	phi := math.Exp(-kappa * dt)
	v := sigma * sigma * -math.Expm1(-2*kappa*dt) / (2 * kappa)
	if !(v > 0) || math.IsInf(v, 0) {
		return math.Inf(1)
	}

	// Residual e = y - phi·x - c with c = theta·(1-phi), in centered coordinates.
	c := (theta - tr.center) * (1 - phi)
	sse := tr.syy + phi*phi*tr.sxx + tr.n*c*c - 2*phi*tr.sxy - 2*c*tr.sy + 2*phi*c*tr.sx
	if sse < 0 {
		sse = 0
	}
	nll := 0.5*tr.n*math.Log(2*math.Pi*v) + sse/(2*v)
	if math.IsNaN(nll) {
		return math.Inf(1)
	}
	return nll
}

// fitOLS maps the AR(1) regression r[t+1] = a + b·r[t] + ε onto the process:
// kappa = -ln(b)/dt, theta = a/(1-b), sigma = sd(ε)·sqrt(2·kappa/(1-b²)).
func fitOLS(tr *transitions, dt float64) (entity.ParameterSet, error) {
	a, b := stat.LinearRegression(tr.x, tr.y, nil, false)
	if !(b > 0 && b < 1) {
		return entity.ParameterSet{}, fmt.Errorf("%w: regression slope %.6f outside (0, 1), series is not mean-reverting",
			domain.ErrCalibration, b)
	}

	var ss float64
	for i := range tr.x {
		e := tr.y[i] - (a + b*tr.x[i])
		ss += e * e
	}
	sdEps := math.Sqrt(ss / (tr.n - 2))

	kappa := -math.Log(b) / dt
	p := entity.ParameterSet{
		Kappa: kappa,
		Theta: a / (1 - b),
		Sigma: sdEps * math.Sqrt(2*kappa/(1-b*b)),
		DT:    dt,
	}
	if err := p.Validate(); err != nil {
		return entity.ParameterSet{}, fmt.Errorf("%w: %v", domain.ErrCalibration, err)
	}
	return p, nil
}
