package Diffusion2D

import (
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/diffusion2d/types"
	"github.com/notargets/diffusion2d/utils"
)

/*
	Finite volume balance for cell (i, j) of -div(D grad phi) + SigmaA phi = s:

		(SigmaA + sum_f C_f) phi_ij - sum_{interior f} C_f phi_nb = s_ij

	C_f is the face conductance D_f * (face length) / (centre spacing). Boundary
	faces add to the diagonal only: vacuum faces use the full spacing, reflective
	faces half of it. Afterwards every cell on a vacuum edge is stamped with
	phi = 0, row and column together so the operator stays symmetric.
*/
type LinearSystem struct {
	NX, NY int
	A      utils.SystemMatrix
	B      *mat.VecDense
}

type Assembler struct {
	mesh    *Mesh
	storage utils.StorageType
}

func NewAssembler(m *Mesh, storage utils.StorageType) *Assembler {
	return &Assembler{mesh: m, storage: storage}
}

func (as *Assembler) Assemble() (ls *LinearSystem) {
	var (
		m  = as.mesh
		N  = m.NumCells()
		NX = m.NX
		NY = m.NY
	)
	ls = &LinearSystem{
		NX: NX,
		NY: NY,
		A:  utils.NewSystemMatrix(as.storage, N),
		B:  mat.NewVecDense(N, nil),
	}
	for i := 0; i < NY; i++ {
		for j := 0; j < NX; j++ {
			as.assembleCell(ls, i, j)
		}
	}
	as.EnforceVacuum(ls)
	return
}

func (as *Assembler) assembleCell(ls *LinearSystem, i, j int) {
	var (
		m       = as.mesh
		ic      = utils.CellIndex(i, j, m.NX, m.NY)
		dij     = m.D.At(i, j)
		outflow float64
	)
	// Left and right faces, perpendicular length dy, spacing dx
	for _, nbj := range [2]int{j - 1, j + 1} {
		var f = types.Left
		if nbj > j {
			f = types.Right
		}
		if nbj < 0 || nbj >= m.NX {
			outflow += as.boundaryConductance(f, dij, m.DY, m.DX, j)
			continue
		}
		dFace := dij
		if m.IsInterface(j) || m.IsInterface(nbj) {
			dFace = 0.5 * (dij + m.D.At(i, nbj))
		}
		c := dFace * m.DY / m.DX
		ls.A.Accumulate(ic, utils.CellIndex(i, nbj, m.NX, m.NY), -c)
		outflow += c
	}
	// Top and bottom faces, perpendicular length dx, spacing dy
	for _, nbi := range [2]int{i - 1, i + 1} {
		var f = types.Top
		if nbi > i {
			f = types.Bottom
		}
		if nbi < 0 || nbi >= m.NY {
			outflow += as.boundaryConductance(f, dij, m.DX, m.DY, j)
			continue
		}
		c := 0.5 * (dij + m.D.At(nbi, j)) * m.DX / m.DY
		ls.A.Accumulate(ic, utils.CellIndex(nbi, j, m.NX, m.NY), -c)
		outflow += c
	}
	ls.A.Accumulate(ic, ic, m.SigmaA.At(i, j)+outflow)
	ls.B.SetVec(ic, m.Source.At(i, j))
}

func (as *Assembler) boundaryConductance(f types.Face, dij, perp, spacing float64, j int) float64 {
	if as.mesh.BoundaryVacuum(f, j) {
		return dij * perp / spacing
	}
	return dij * perp / (2. * spacing)
}

// OnVacuumEdge reports whether cell (i, j) touches a vacuum-flagged edge of the
// domain.
func (as *Assembler) OnVacuumEdge(i, j int) bool {
	var m = as.mesh
	switch {
	case j == 0 && m.BoundaryVacuum(types.Left, j):
		return true
	case j == m.NX-1 && m.BoundaryVacuum(types.Right, j):
		return true
	case i == 0 && m.BoundaryVacuum(types.Top, j):
		return true
	case i == m.NY-1 && m.BoundaryVacuum(types.Bottom, j):
		return true
	}
	return false
}

// EnforceVacuum replaces the balance equation of every vacuum edge cell with
// phi = 0. It must run once, after the full stencil is in place.
func (as *Assembler) EnforceVacuum(ls *LinearSystem) (stamped utils.Index) {
	var m = as.mesh
	for i := 0; i < m.NY; i++ {
		for j := 0; j < m.NX; j++ {
			if !as.OnVacuumEdge(i, j) {
				continue
			}
			ic := utils.CellIndex(i, j, m.NX, m.NY)
			ls.A.ZeroRowCol(ic)
			ls.A.Set(ic, ic, 1)
			ls.B.SetVec(ic, 0)
			stamped = append(stamped, ic)
		}
	}
	return
}

// DiagonalDominance returns the smallest margin A_ii - sum_j |A_ij| over all
// rows, and the row where it occurs. Only stored non-zeros are visited.
func (ls *LinearSystem) DiagonalDominance() (margin float64, row int) {
	var (
		N, _ = ls.A.Dims()
	)
	row = -1
	for i := 0; i < N; i++ {
		var diag, off float64
		ls.A.DoRowNonZero(i, func(i, j int, v float64) {
			switch {
			case j == i:
				diag = v
			case v < 0:
				off -= v
			default:
				off += v
			}
		})
		if d := diag - off; row < 0 || d < margin {
			margin, row = d, i
		}
	}
	return
}

// Symmetric compares every stored A_ij with A_ji within tol, returning the
// first offending pair.
func (ls *LinearSystem) Symmetric(tol float64) (ok bool, row, col int) {
	var (
		N, _ = ls.A.Dims()
	)
	ok, row, col = true, -1, -1
	for i := 0; i < N && ok; i++ {
		ls.A.DoRowNonZero(i, func(i, j int, v float64) {
			if !ok {
				return
			}
			if d := v - ls.A.At(j, i); d > tol || d < -tol {
				ok, row, col = false, i, j
			}
		})
	}
	return
}
