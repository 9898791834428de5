package Diffusion2D

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/diffusion2d/types"
	"github.com/notargets/diffusion2d/utils"
)

/*
	The domain is a single row of slabs laid left to right, all of the same
	height. Vacuum faces on the outside of the row are pushed outwards by the
	extrapolation length so the zero flux point of diffusion theory lands on the
	outer cell ring. Fields are stored NY x NX with row 0 at the physical top.
*/
type Mesh struct {
	NX, NY    int
	Materials []types.MaterialSpec
	// Extrapolation distances added beyond the physical slab row
	ExtrapTop, ExtrapBottom float64
	ExtrapLeft, ExtrapRight float64
	TotalWidth, TotalHeight float64
	DX, DY                  float64
	CellsPerMaterial        utils.Index
	Interfaces              utils.Index // Interior columns where two materials meet
	D, SigmaA, Source       *mat.Dense  // NY x NX
	columnMaterial          []int
}

// NewMesh validates the material row and builds every per-cell field. All
// geometry and consistency checks run before any field is allocated.
func NewMesh(NX, NY int, materials []types.MaterialSpec) (m *Mesh, err error) {
	if m, err = newMeshGeometry(NX, NY, materials); err != nil {
		return nil, err
	}
	if err = m.CreateFieldMatrices(); err != nil {
		return nil, err
	}
	return
}

func newMeshGeometry(NX, NY int, materials []types.MaterialSpec) (m *Mesh, err error) {
	if len(materials) == 0 {
		return nil, fmt.Errorf("no materials supplied: %w", types.ErrGeometry)
	}
	if NX <= 0 || NY <= 0 {
		return nil, fmt.Errorf("cell counts must be positive, have NX = %d, NY = %d: %w",
			NX, NY, types.ErrGeometry)
	}
	m = &Mesh{
		NX:        NX,
		NY:        NY,
		Materials: materials,
	}
	if err = m.ComputeExtrapolatedBoundariesY(); err != nil {
		return nil, err
	}
	m.ComputeExtrapolatedBoundariesX()
	if _, _, err = m.ComputeCellSizes(); err != nil {
		return nil, err
	}
	if err = m.ComputeCellsPerMaterial(); err != nil {
		return nil, err
	}
	return
}

func (m *Mesh) ComputeExtrapolatedBoundariesY() (err error) {
	if err = m.checkRowConsistency(); err != nil {
		return
	}
	m.ExtrapTop, m.ExtrapBottom = 0, 0
	for _, mtl := range m.Materials {
		if mtl.BoundType.Vacuum(types.Top) {
			m.ExtrapTop = math.Max(m.ExtrapTop, mtl.ExtrapolationLength())
		}
		if mtl.BoundType.Vacuum(types.Bottom) {
			m.ExtrapBottom = math.Max(m.ExtrapBottom, mtl.ExtrapolationLength())
		}
	}
	return
}

func (m *Mesh) checkRowConsistency() (err error) {
	for k := 0; k < len(m.Materials)-1; k++ {
		cur, next := m.Materials[k], m.Materials[k+1]
		for _, f := range []types.Face{types.Top, types.Bottom} {
			if cur.BoundType.Vacuum(f) != next.BoundType.Vacuum(f) {
				return fmt.Errorf("%s boundaries of adjacent materials %d [%s] and %d [%s] differ (%s vs %s): %w",
					f, k, cur.Name, k+1, next.Name, cur.BoundType.Flag(f), next.BoundType.Flag(f),
					types.ErrConsistency)
			}
		}
		if cur.Height != next.Height {
			return m.heightMismatch(k, k+1)
		}
	}
	return
}

func (m *Mesh) heightMismatch(k1, k2 int) error {
	return fmt.Errorf("materials %d and %d have heights %g and %g, all materials must share one height: %w, %w",
		k1, k2, m.Materials[k1].Height, m.Materials[k2].Height, types.ErrConsistency, types.ErrGeometry)
}

// ComputeExtrapolatedBoundariesX only looks at the outer faces of the row;
// interior slab faces never extrapolate.
func (m *Mesh) ComputeExtrapolatedBoundariesX() {
	var (
		left  = m.Materials[0]
		right = m.Materials[len(m.Materials)-1]
	)
	m.ExtrapLeft, m.ExtrapRight = 0, 0
	if left.BoundType.Vacuum(types.Left) {
		m.ExtrapLeft = left.ExtrapolationLength()
	}
	if right.BoundType.Vacuum(types.Right) {
		m.ExtrapRight = right.ExtrapolationLength()
	}
}

func (m *Mesh) ComputeTotalSize() (err error) {
	var (
		width  float64
		height = m.Materials[0].Height
	)
	for k, mtl := range m.Materials {
		if mtl.Width < 0 {
			return fmt.Errorf("material %d [%s] has negative width %g: %w", k, mtl.Name, mtl.Width, types.ErrGeometry)
		}
		if mtl.Height != height {
			return m.heightMismatch(0, k)
		}
		width += mtl.Width
	}
	m.TotalWidth = width + m.ExtrapLeft + m.ExtrapRight
	m.TotalHeight = height + m.ExtrapTop + m.ExtrapBottom
	if !(m.TotalWidth > 0) || !(m.TotalHeight > 0) {
		return fmt.Errorf("total size must be positive, have width = %g, height = %g: %w",
			m.TotalWidth, m.TotalHeight, types.ErrGeometry)
	}
	return
}

// ComputeCellSizes recomputes the totals first, so repeated calls on an
// unchanged material row give identical spacings.
func (m *Mesh) ComputeCellSizes() (dx, dy float64, err error) {
	if err = m.ComputeTotalSize(); err != nil {
		return
	}
	m.DX = m.TotalWidth / float64(m.NX)
	m.DY = m.TotalHeight / float64(m.NY)
	return m.DX, m.DY, nil
}

// ComputeCellsPerMaterial splits NX columns among the materials in proportion
// to their physical widths (extrapolation excluded): each gets the floor of its
// ideal share, and the leftover columns go to the largest fractional remainders.
// Equal remainders favour the material further to the right.
func (m *Mesh) ComputeCellsPerMaterial() (err error) {
	var (
		nMat       = len(m.Materials)
		totalWidth float64
		ideal      = make([]float64, nMat)
		order      = make([]int, nMat)
	)
	for _, mtl := range m.Materials {
		totalWidth += mtl.Width
	}
	if !(totalWidth > 0) {
		return fmt.Errorf("total material width must be positive, have %g: %w", totalWidth, types.ErrGeometry)
	}
	m.CellsPerMaterial = utils.NewIndex(nMat)
	for k, mtl := range m.Materials {
		ideal[k] = float64(m.NX) * (mtl.Width / totalWidth)
		m.CellsPerMaterial[k] = int(math.Floor(ideal[k]))
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra := ideal[order[a]] - float64(m.CellsPerMaterial[order[a]])
		rb := ideal[order[b]] - float64(m.CellsPerMaterial[order[b]])
		if ra == rb {
			return order[a] > order[b]
		}
		return ra > rb
	})
	leftover := m.NX - m.CellsPerMaterial.Sum()
	for n := 0; n < leftover; n++ {
		m.CellsPerMaterial[order[n%nMat]]++
	}
	// Rounding in the ideal shares can leave a residue, it is absorbed by the last material
	if diff := m.NX - m.CellsPerMaterial.Sum(); diff != 0 {
		m.CellsPerMaterial[nMat-1] += diff
	}
	m.columnMaterial = make([]int, 0, m.NX)
	for k, nc := range m.CellsPerMaterial {
		for c := 0; c < nc; c++ {
			m.columnMaterial = append(m.columnMaterial, k)
		}
	}
	return
}

func (m *Mesh) CreateFieldMatrices() (err error) {
	if _, _, err = m.ComputeCellSizes(); err != nil {
		return
	}
	if err = m.ComputeCellsPerMaterial(); err != nil {
		return
	}
	m.D = mat.NewDense(m.NY, m.NX, nil)
	m.SigmaA = mat.NewDense(m.NY, m.NX, nil)
	m.Source = mat.NewDense(m.NY, m.NX, nil)

	var startX int
	for k, material := range m.Materials {
		var (
			endX   = startX + m.CellsPerMaterial[k]
			dVal   = material.DiffusionCoefficient()
			saVal  = material.SigmaA
			srcVal = material.S
		)
		for i := 0; i < m.NY; i++ {
			for j := startX; j < endX; j++ {
				m.D.Set(i, j, dVal)
				m.SigmaA.Set(i, j, saVal)
				m.Source.Set(i, j, srcVal)
			}
		}
		startX = endX
	}
	m.MarkInterfaces()
	m.averageInterfaceColumns()
	return
}

// MarkInterfaces records the strictly interior prefix sums of the per-material
// column counts.
func (m *Mesh) MarkInterfaces() {
	m.Interfaces = utils.Index{}
	for _, next := range m.CellsPerMaterial.PrefixSums() {
		if next > 0 && next < m.NX {
			// A zero width material would repeat the previous interface
			if len(m.Interfaces) > 0 && m.Interfaces[len(m.Interfaces)-1] == next {
				continue
			}
			m.Interfaces = append(m.Interfaces, next)
		}
	}
}

// averageInterfaceColumns replaces each interface column with the mean of the
// column to its left and itself, both taken before any averaging. It runs once.
func (m *Mesh) averageInterfaceColumns() {
	fields := []*mat.Dense{m.D, m.SigmaA, m.Source}
	snapshots := make([]*mat.Dense, len(fields))
	for n, f := range fields {
		snapshots[n] = mat.DenseCopyOf(f)
	}
	for _, jIF := range m.Interfaces {
		for n, f := range fields {
			orig := snapshots[n]
			for i := 0; i < m.NY; i++ {
				f.Set(i, jIF, 0.5*(orig.At(i, jIF-1)+orig.At(i, jIF)))
			}
		}
	}
}

// MaterialAtColumn returns the index of the material owning column j.
func (m *Mesh) MaterialAtColumn(j int) int {
	return m.columnMaterial[j]
}

func (m *Mesh) IsInterface(j int) bool {
	return m.Interfaces.Contains(j)
}

// BoundaryVacuum reports whether a face of the whole domain is vacuum. The x
// faces come from the outer materials; the y faces are shared by the row.
func (m *Mesh) BoundaryVacuum(f types.Face, j int) bool {
	switch f {
	case types.Left:
		return m.Materials[0].BoundType.Vacuum(types.Left)
	case types.Right:
		return m.Materials[len(m.Materials)-1].BoundType.Vacuum(types.Right)
	default:
		return m.Materials[m.MaterialAtColumn(j)].BoundType.Vacuum(f)
	}
}

func (m *Mesh) NumCells() int { return m.NX * m.NY }

func (m *Mesh) Print() {
	fmt.Printf("Mesh %d x %d cells (NX x NY), dx = %8.5f, dy = %8.5f\n", m.NX, m.NY, m.DX, m.DY)
	fmt.Printf("Total size %8.5f x %8.5f, extrapolation L/R/B/T = %8.5f/%8.5f/%8.5f/%8.5f\n",
		m.TotalWidth, m.TotalHeight, m.ExtrapLeft, m.ExtrapRight, m.ExtrapBottom, m.ExtrapTop)
	fmt.Printf("Cells per material = %v, interfaces at columns %v\n", m.CellsPerMaterial, m.Interfaces)
}
