package em

import "math"

const (
	DefaultMaxIterations        = 50
	DefaultConvergenceThreshold = 1e-6
)

// Config bounds the iteration.
type Config struct {
	MaxIterations        int
	ConvergenceThreshold float64
}

// DefaultConfig returns the stock iteration limits.
func DefaultConfig() Config {
	return Config{
		MaxIterations:        DefaultMaxIterations,
		ConvergenceThreshold: DefaultConvergenceThreshold,
	}
}

// Result is the outcome of one EM run.
type Result struct {
	// Posterior is index aligned with the input likelihoods and sums to 1
	// when non-empty.
	Posterior  []float64
	Iterations int
	Converged  bool
	// MaxChange is the largest prior delta observed in the final iteration.
	MaxChange float64
}

// mStep derives the next prior from the current posterior.
type mStep func(posterior []float64) []float64

// singleSequenceMStep is the M-step for one consensus sequence: the posterior
// becomes the prior. A pooled estimator across sequences would replace it.
func singleSequenceMStep(posterior []float64) []float64 {
	next := make([]float64, len(posterior))
	copy(next, posterior)
	return next
}

// Run iterates until the prior changes by less than cfg.ConvergenceThreshold
// or cfg.MaxIterations is reached. Likelihoods that are negative or not finite
// count as zero.
func Run(likelihoods []float64, cfg Config) Result {
	return run(likelihoods, cfg, singleSequenceMStep)
}

func run(likelihoods []float64, cfg Config, step mStep) Result {
	n := len(likelihoods)
	if n == 0 {
		return Result{Posterior: []float64{}}
	}

	weights := make([]float64, n)
	for i, l := range likelihoods {
		if l > 0 && !math.IsInf(l, 1) {
			weights[i] = l
		}
	}

	prior := uniform(n)
	if cfg.MaxIterations <= 0 {
		return Result{Posterior: prior}
	}

	var res Result
	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		posterior := expectation(weights, prior)
		next := step(posterior)

		change := maxAbsDelta(next, prior)
		res.Posterior = posterior
		res.Iterations = iter
		res.MaxChange = change
		if change < cfg.ConvergenceThreshold {
			res.Converged = true
			return res
		}
		prior = next
	}
	return res
}

// expectation weights prior by likelihood and normalizes. When every weighted
// term is zero the result falls back to uniform.
func expectation(weights, prior []float64) []float64 {
	posterior := make([]float64, len(weights))
	total := 0.0
	for i := range weights {
		posterior[i] = weights[i] * prior[i]
		total += posterior[i]
	}
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		return uniform(len(weights))
	}
	for i := range posterior {
		posterior[i] /= total
	}
	return posterior
}

func uniform(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0 / float64(n)
	}
	return out
}

func maxAbsDelta(a, b []float64) float64 {
	largest := 0.0
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > largest {
			largest = d
		}
	}
	return largest
}
