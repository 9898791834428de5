package Diffusion2D

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/diffusion2d/solvers"
	"github.com/notargets/diffusion2d/types"
	"github.com/notargets/diffusion2d/utils"
)

// Diffusion couples a mesh, its assembled system and the iterative solution
type Diffusion struct {
	Mesh    *Mesh
	System  *LinearSystem
	Storage utils.StorageType
	Result  solvers.Result
	Logger  *zap.Logger
	solved  bool
}

func NewDiffusion(NX, NY int, materials []types.MaterialSpec, storage utils.StorageType,
	logger *zap.Logger) (c *Diffusion, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c = &Diffusion{
		Storage: storage,
		Logger:  logger,
	}
	if c.Mesh, err = NewMesh(NX, NY, materials); err != nil {
		return nil, err
	}
	c.Logger.Debug("mesh built",
		zap.Int("nx", NX), zap.Int("ny", NY),
		zap.Float64("dx", c.Mesh.DX), zap.Float64("dy", c.Mesh.DY),
		zap.Ints("cellsPerMaterial", c.Mesh.CellsPerMaterial),
		zap.Ints("interfaces", c.Mesh.Interfaces))
	c.System = NewAssembler(c.Mesh, storage).Assemble()
	if ce := c.Logger.Check(zap.DebugLevel, "system assembled"); ce != nil {
		margin, row := c.System.DiagonalDominance()
		ok, r, col := c.System.Symmetric(utils.NODETOL)
		ce.Write(zap.String("storage", c.System.A.Name()),
			zap.Int("unknowns", c.Mesh.NumCells()),
			zap.Float64("dominanceMargin", margin), zap.Int("dominanceRow", row),
			zap.Bool("symmetric", ok), zap.Int("asymmetricRow", r), zap.Int("asymmetricCol", col))
	}
	return
}

// Solve runs the chosen stationary iteration on the assembled system. Failing
// to converge is reported through Result, only invalid input or a zero pivot
// returns an error.
func (c *Diffusion) Solve(method solvers.Method, omega float64, opts ...solvers.Option) (res solvers.Result, err error) {
	var s *solvers.Solver
	if s, err = solvers.NewSolver(c.System.A.Operator(), c.System.B); err != nil {
		return
	}
	s.Logger = c.Logger
	if res, err = s.Solve(method, omega, opts...); err != nil {
		return
	}
	if !utils.IsFinite(res.X.RawVector().Data) {
		err = fmt.Errorf("%s produced a non finite flux after %d iterations: %w",
			method.Print(), res.Iterations, types.ErrNumerical)
		return
	}
	c.Result, c.solved = res, true
	if !res.Converged {
		c.Logger.Warn("solver did not converge",
			zap.String("method", method.Print()),
			zap.Int("iterations", res.Iterations),
			zap.Float64("change", res.Change))
	}
	return
}

// FluxField returns the last solution as an NY x NX grid, row 0 at the top
func (c *Diffusion) FluxField() (phi *mat.Dense, err error) {
	if !c.solved {
		return nil, fmt.Errorf("no solution available, call Solve first: %w", types.ErrInput)
	}
	phi = utils.VecToGrid(c.Result.X, c.Mesh.NX, c.Mesh.NY)
	return
}

// FluxAt returns the solved flux of cell (i, j), row 0 at the top
func (c *Diffusion) FluxAt(i, j int) (phi float64, err error) {
	if !c.solved {
		return 0, fmt.Errorf("no solution available, call Solve first: %w", types.ErrInput)
	}
	if err = utils.CheckCell(i, j, c.Mesh.NX, c.Mesh.NY); err != nil {
		return 0, fmt.Errorf("%v: %w", err, types.ErrInput)
	}
	return c.Result.X.AtVec(utils.CellIndex(i, j, c.Mesh.NX, c.Mesh.NY)), nil
}
