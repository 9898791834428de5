package solvers

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/diffusion2d/types"
	"github.com/notargets/diffusion2d/utils"
)

const (
	DefaultTolerance     = 1.e-10
	DefaultMaxIterations = 1000
	DefaultOmega         = 1.25
)

type Method uint8

const (
	M_Jacobi Method = iota
	M_GaussSeidel
	M_SOR
)

var (
	MethodNames = map[string]Method{
		"jacobi":       M_Jacobi,
		"gauss_seidel": M_GaussSeidel,
		"gauss-seidel": M_GaussSeidel,
		"gaussseidel":  M_GaussSeidel,
		"gs":           M_GaussSeidel,
		"sor":          M_SOR,
	}
	MethodPrintNames = []string{"Jacobi", "Gauss-Seidel", "SOR"}
)

func (m Method) Print() (txt string) {
	txt = MethodPrintNames[m]
	return
}

func NewMethod(label string) (m Method, err error) {
	var ok bool
	if m, ok = MethodNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use solver method named %q: %w", label, types.ErrInput)
	}
	return
}

// Solver holds a square system A x = b together with the defaults used by
// every call. Per-call options never change the stored defaults.
type Solver struct {
	A       mat.Matrix
	B       []float64
	N       int
	X0      []float64
	Tol     float64
	MaxIter int
	Logger  *zap.Logger
	rows    rowWalker
}

type Result struct {
	X          *mat.VecDense
	Method     Method
	Iterations int
	Converged  bool
	Change     float64 // Last relative (or absolute, from a zero iterate) update norm
}

type Option func(c *callConfig)

type callConfig struct {
	x0      []float64
	tol     float64
	maxIter int
	logger  *zap.Logger
	procs   int
}

func WithInitialGuess(x0 []float64) Option {
	return func(c *callConfig) { c.x0 = x0 }
}

func WithTolerance(tol float64) Option {
	return func(c *callConfig) { c.tol = tol }
}

func WithMaxIterations(maxIter int) Option {
	return func(c *callConfig) { c.maxIter = maxIter }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *callConfig) { c.logger = logger }
}

// WithParallelDegree spreads each Jacobi sweep over procs goroutines, zero
// meaning one per CPU. The ordered sweeps of Gauss-Seidel and SOR ignore it.
func WithParallelDegree(procs int) Option {
	return func(c *callConfig) { c.procs = procs }
}

func NewSolver(A mat.Matrix, b mat.Vector) (s *Solver, err error) {
	var (
		nr, nc = A.Dims()
	)
	if nr != nc {
		return nil, fmt.Errorf("A must be square, have %d x %d: %w", nr, nc, types.ErrInput)
	}
	if b.Len() != nr {
		return nil, fmt.Errorf("b has length %d, A is %d x %d: %w", b.Len(), nr, nc, types.ErrInput)
	}
	s = &Solver{
		A:       A,
		B:       make([]float64, nr),
		N:       nr,
		X0:      make([]float64, nr),
		Tol:     DefaultTolerance,
		MaxIter: DefaultMaxIterations,
		Logger:  zap.NewNop(),
		rows:    newRowWalker(A),
	}
	for i := range s.B {
		s.B[i] = b.AtVec(i)
	}
	return
}

func (s *Solver) configure(opts []Option) (c callConfig, x []float64, err error) {
	c = callConfig{
		x0:      s.X0,
		tol:     s.Tol,
		maxIter: s.MaxIter,
		logger:  s.Logger,
		procs:   1,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if len(c.x0) != s.N {
		err = fmt.Errorf("initial guess has length %d, system has %d unknowns: %w", len(c.x0), s.N, types.ErrInput)
		return
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	x = make([]float64, s.N)
	copy(x, c.x0)
	return
}

// diagonal extracts diag(A) and fails on the first exactly-zero entry.
func (s *Solver) diagonal(method Method) (d []float64, err error) {
	d = make([]float64, s.N)
	for i := 0; i < s.N; i++ {
		s.rows.walk(i, func(j int, v float64) {
			if j == i {
				d[i] += v
			}
		})
		if d[i] == 0 {
			return nil, fmt.Errorf("%s: zero diagonal entry at row %d: %w", method.Print(), i, types.ErrNumerical)
		}
	}
	return
}

// relativeChange is ||xNew - xOld|| / ||xOld||, falling back to the absolute
// norm when xOld is zero.
func relativeChange(xNew, xOld []float64) float64 {
	diff := floats.Distance(xNew, xOld, 2)
	if denom := floats.Norm(xOld, 2); denom != 0 {
		return diff / denom
	}
	return diff
}

// iterate drives a sweep function until the update test passes or the
// iteration budget runs out. Running out is not an error.
func (s *Solver) iterate(method Method, opts []Option,
	sweep func(c callConfig, xNew, xOld []float64)) (res Result, err error) {
	var (
		c    callConfig
		x    []float64
		xNew = make([]float64, s.N)
	)
	if c, x, err = s.configure(opts); err != nil {
		return
	}
	res.Method = method
	for res.Iterations < c.maxIter {
		sweep(c, xNew, x)
		res.Iterations++
		res.Change = relativeChange(xNew, x)
		x, xNew = xNew, x
		if res.Change < c.tol {
			res.Converged = true
			break
		}
	}
	res.X = mat.NewVecDense(s.N, x)
	c.logger.Debug("iterative solve finished",
		zap.String("method", method.Print()),
		zap.Int("iterations", res.Iterations),
		zap.Bool("converged", res.Converged),
		zap.Float64("change", res.Change),
		zap.Float64("tolerance", c.tol))
	return
}

// forRows calls fn on every row, split over a PartitionMap when more than one
// worker is requested. Rows are independent within a call.
func (s *Solver) forRows(procs int, fn func(i int)) {
	np := utils.ParallelDegree(procs, s.N)
	if np == 1 {
		for i := 0; i < s.N; i++ {
			fn(i)
		}
		return
	}
	var (
		pm = utils.NewPartitionMap(np, s.N)
		wg sync.WaitGroup
	)
	for n := 0; n < np; n++ {
		wg.Add(1)
		go func(rMin, rMax int) {
			defer wg.Done()
			for i := rMin; i < rMax; i++ {
				fn(i)
			}
		}(pm.GetBucketRange(n))
	}
	wg.Wait()
}

// Jacobi iterates x_new = D^-1 (b - (A - D) x).
func (s *Solver) Jacobi(opts ...Option) (res Result, err error) {
	var d []float64
	if d, err = s.diagonal(M_Jacobi); err != nil {
		return
	}
	return s.iterate(M_Jacobi, opts, func(c callConfig, xNew, x []float64) {
		s.forRows(c.procs, func(i int) {
			sum := s.B[i]
			s.rows.walk(i, func(j int, v float64) {
				if j != i {
					sum -= v * x[j]
				}
			})
			xNew[i] = sum / d[i]
		})
	})
}

// GaussSeidel splits A = L + U with the diagonal in L and solves
// L x_new = b - U x by forward substitution.
func (s *Solver) GaussSeidel(opts ...Option) (res Result, err error) {
	var d []float64
	if d, err = s.diagonal(M_GaussSeidel); err != nil {
		return
	}
	return s.iterate(M_GaussSeidel, opts, func(_ callConfig, xNew, x []float64) {
		for i := 0; i < s.N; i++ {
			sum := s.B[i]
			s.rows.walk(i, func(j int, v float64) {
				switch {
				case j < i:
					sum -= v * xNew[j]
				case j > i:
					sum -= v * x[j]
				}
			})
			xNew[i] = sum / d[i]
		}
	})
}

// SOR splits A = D + L + U with strict triangles and solves
// (D + omega L) x_new = ((1 - omega) D - omega U) x + omega b.
// omega = 1 is Gauss-Seidel.
func (s *Solver) SOR(omega float64, opts ...Option) (res Result, err error) {
	var d []float64
	if d, err = s.diagonal(M_SOR); err != nil {
		return
	}
	return s.iterate(M_SOR, opts, func(_ callConfig, xNew, x []float64) {
		for i := 0; i < s.N; i++ {
			rhs := (1-omega)*d[i]*x[i] + omega*s.B[i]
			s.rows.walk(i, func(j int, v float64) {
				switch {
				case j < i:
					rhs -= omega * v * xNew[j]
				case j > i:
					rhs -= omega * v * x[j]
				}
			})
			xNew[i] = rhs / d[i]
		}
	})
}

func (s *Solver) Solve(method Method, omega float64, opts ...Option) (res Result, err error) {
	switch method {
	case M_Jacobi:
		return s.Jacobi(opts...)
	case M_GaussSeidel:
		return s.GaussSeidel(opts...)
	case M_SOR:
		return s.SOR(omega, opts...)
	}
	err = fmt.Errorf("unknown solver method %d: %w", method, types.ErrInput)
	return
}

// Residual returns ||b - A x||_2.
func (s *Solver) Residual(x mat.Vector) float64 {
	var r = make([]float64, s.N)
	for i := 0; i < s.N; i++ {
		r[i] = s.B[i]
		s.rows.walk(i, func(j int, v float64) {
			r[i] -= v * x.AtVec(j)
		})
	}
	return floats.Norm(r, 2)
}
