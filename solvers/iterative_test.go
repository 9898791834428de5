package solvers

import (
	"errors"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/diffusion2d/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// 4x + 3y = 24, 3x + 4y - z = 30, -y + 4z = -24, solution (3, 4, -5)
func textbookSystem() (A *mat.Dense, b *mat.VecDense) {
	A = mat.NewDense(3, 3, []float64{
		4, 3, 0,
		3, 4, -1,
		0, -1, 4,
	})
	b = mat.NewVecDense(3, []float64{24, 30, -24})
	return
}

func TestSolvers(t *testing.T) {
	var (
		tol   = 1.e-6
		exact = []float64{3, 4, -5}
	)
	A, b := textbookSystem()
	s, err := NewSolver(A, b)
	require.NoError(t, err)
	{ // All methods land on the exact solution
		for _, m := range []Method{M_Jacobi, M_GaussSeidel, M_SOR} {
			res, err := s.Solve(m, DefaultOmega)
			require.NoError(t, err)
			assert.True(t, res.Converged, m.Print())
			assert.Equal(t, m, res.Method)
			assert.Less(t, res.Iterations, DefaultMaxIterations)
			assert.InDeltaSlice(t, exact, res.X.RawVector().Data, tol, m.Print())
			assert.Less(t, s.Residual(res.X), 1.e-6)
		}
	}
	{ // Gauss-Seidel needs fewer sweeps than Jacobi, SOR with omega = 1 is Gauss-Seidel
		rj, _ := s.Jacobi()
		rg, _ := s.GaussSeidel()
		rs, _ := s.SOR(1)
		assert.Less(t, rg.Iterations, rj.Iterations)
		assert.Equal(t, rg.Iterations, rs.Iterations)
		assert.InDeltaSlice(t, rg.X.RawVector().Data, rs.X.RawVector().Data, 1.e-12)
	}
	{ // One sweep from (1, 1, 1)
		opts := []Option{WithInitialGuess([]float64{1, 1, 1}), WithMaxIterations(1)}
		rj, err := s.Jacobi(opts...)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{5.25, 7, -5.75}, rj.X.RawVector().Data, 1.e-14)
		assert.False(t, rj.Converged)
		assert.Equal(t, 1, rj.Iterations)
		rg, err := s.GaussSeidel(opts...)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{5.25, 3.8125, -5.046875}, rg.X.RawVector().Data, 1.e-14)
		rs, err := s.SOR(1.25, opts...)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{6.3125, 3.51953125, -6.650146484375}, rs.X.RawVector().Data, 1.e-12)
	}
	{ // Running out of iterations is reported, not raised
		res, err := s.GaussSeidel(WithMaxIterations(3))
		require.NoError(t, err)
		assert.False(t, res.Converged)
		assert.Equal(t, 3, res.Iterations)
		assert.Greater(t, res.Change, DefaultTolerance)
	}
	{ // Per call options leave the stored defaults alone
		x0 := []float64{1, 1, 1}
		_, err := s.Jacobi(WithInitialGuess(x0), WithTolerance(1.e-3), WithMaxIterations(5))
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1, 1}, x0)
		assert.Equal(t, []float64{0, 0, 0}, s.X0)
		assert.Equal(t, DefaultTolerance, s.Tol)
		assert.Equal(t, DefaultMaxIterations, s.MaxIter)
	}
	{ // A solution already in hand converges on the first sweep
		res, err := s.SOR(DefaultOmega, WithInitialGuess(exact))
		require.NoError(t, err)
		assert.True(t, res.Converged)
		assert.Equal(t, 1, res.Iterations)
	}
	{ // Wrong length initial guess
		_, err := s.Jacobi(WithInitialGuess([]float64{1, 1}))
		assert.True(t, errors.Is(err, types.ErrInput))
	}
}

func TestSolverErrors(t *testing.T) {
	{ // Zero diagonal fails before any iteration for every method
		A := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
		s, err := NewSolver(A, mat.NewVecDense(2, []float64{1, 1}))
		require.NoError(t, err)
		for _, m := range []Method{M_Jacobi, M_GaussSeidel, M_SOR} {
			res, err := s.Solve(m, DefaultOmega)
			assert.True(t, errors.Is(err, types.ErrNumerical), m.Print())
			assert.Nil(t, res.X)
			assert.Contains(t, err.Error(), "row 0")
		}
	}
	{ // Shape errors
		_, err := NewSolver(mat.NewDense(2, 3, nil), mat.NewVecDense(2, nil))
		assert.True(t, errors.Is(err, types.ErrInput))
		_, err = NewSolver(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), mat.NewVecDense(3, nil))
		assert.True(t, errors.Is(err, types.ErrInput))
	}
	{ // Method names
		for label, want := range map[string]Method{
			"jacobi": M_Jacobi, "Gauss_Seidel": M_GaussSeidel, " SOR ": M_SOR, "gs": M_GaussSeidel,
		} {
			m, err := NewMethod(label)
			require.NoError(t, err)
			assert.Equal(t, want, m)
		}
		_, err := NewMethod("conjugate_gradient")
		assert.True(t, errors.Is(err, types.ErrInput))
		s, _ := NewSolver(mat.NewDense(1, 1, []float64{1}), mat.NewVecDense(1, []float64{1}))
		_, err = s.Solve(Method(7), 1)
		assert.True(t, errors.Is(err, types.ErrInput))
	}
}

func TestSparseSolve(t *testing.T) {
	A, b := textbookSystem()
	dok := sparse.NewDOK(3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if v := A.At(i, j); v != 0 {
				dok.Set(i, j, v)
			}
		}
	}
	dense, err := NewSolver(A, b)
	require.NoError(t, err)
	for _, M := range []mat.Matrix{dok.ToCSR(), dok} {
		s, err := NewSolver(M, b)
		require.NoError(t, err)
		for _, m := range []Method{M_Jacobi, M_GaussSeidel, M_SOR} {
			rs, err := s.Solve(m, DefaultOmega)
			require.NoError(t, err)
			rd, err := dense.Solve(m, DefaultOmega)
			require.NoError(t, err)
			assert.True(t, rs.Converged)
			assert.InDeltaSlice(t, rd.X.RawVector().Data, rs.X.RawVector().Data, 1.e-8)
		}
	}
}

func TestParallelJacobi(t *testing.T) {
	// Tridiagonal 1D Laplacian plus absorption, large enough to split
	var (
		N = 200
		A = mat.NewDense(N, N, nil)
		b = mat.NewVecDense(N, nil)
	)
	for i := 0; i < N; i++ {
		A.Set(i, i, 2.5)
		if i > 0 {
			A.Set(i, i-1, -1)
		}
		if i < N-1 {
			A.Set(i, i+1, -1)
		}
		b.SetVec(i, 1)
	}
	s, err := NewSolver(A, b)
	require.NoError(t, err)
	serial, err := s.Jacobi()
	require.NoError(t, err)
	for _, np := range []int{2, 7, 0} {
		par, err := s.Jacobi(WithParallelDegree(np))
		require.NoError(t, err)
		assert.Equal(t, serial.Iterations, par.Iterations)
		assert.Equal(t, serial.X.RawVector().Data, par.X.RawVector().Data)
	}
}

func TestSolverLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	A, b := textbookSystem()
	s, err := NewSolver(A, b)
	require.NoError(t, err)
	_, err = s.GaussSeidel(WithLogger(zap.New(core)))
	require.NoError(t, err)
	entries := logs.FilterMessage("iterative solve finished").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Gauss-Seidel", fields["method"])
	assert.Equal(t, true, fields["converged"])
}
