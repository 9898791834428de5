package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// SparseSystem assembles into a dictionary of keys and converts to CSR for the
// solver. The row and column patterns are tracked alongside the DOK so that a
// row/column pair can be cleared without scanning every stored entry.
type SparseSystem struct {
	M          *sparse.DOK
	rowPattern []map[int]struct{}
	colPattern []map[int]struct{}
}

func NewSparseSystem(N int) (R *SparseSystem) {
	if N <= 0 {
		panic(fmt.Errorf("mismatch in allocation: NewSparseSystem N = %v", N))
	}
	R = &SparseSystem{
		M:          sparse.NewDOK(N, N),
		rowPattern: make([]map[int]struct{}, N),
		colPattern: make([]map[int]struct{}, N),
	}
	for i := 0; i < N; i++ {
		R.rowPattern[i] = make(map[int]struct{}, 5)
		R.colPattern[i] = make(map[int]struct{}, 5)
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m *SparseSystem) Dims() (r, c int)    { return m.M.Dims() }
func (m *SparseSystem) At(i, j int) float64 { return m.M.At(i, j) }
func (m *SparseSystem) T() mat.Matrix       { return m.M.T() }

func (m *SparseSystem) Name() string { return "sparse" }

func (m *SparseSystem) Accumulate(i, j int, val float64) {
	m.Set(i, j, m.M.At(i, j)+val)
}

func (m *SparseSystem) Set(i, j int, val float64) {
	m.M.Set(i, j, val)
	m.rowPattern[i][j] = struct{}{}
	m.colPattern[j][i] = struct{}{}
}

func (m *SparseSystem) ZeroRowCol(k int) {
	for j := range m.rowPattern[k] {
		m.M.Set(k, j, 0)
		delete(m.colPattern[j], k)
	}
	for i := range m.colPattern[k] {
		m.M.Set(i, k, 0)
		delete(m.rowPattern[i], k)
	}
	m.rowPattern[k] = make(map[int]struct{}, 1)
	m.colPattern[k] = make(map[int]struct{}, 1)
}

func (m *SparseSystem) DoRowNonZero(i int, fn func(i, j int, v float64)) {
	cols := make([]int, 0, len(m.rowPattern[i]))
	for j := range m.rowPattern[i] {
		cols = append(cols, j)
	}
	sort.Ints(cols)
	for _, j := range cols {
		if v := m.M.At(i, j); v != 0 {
			fn(i, j, v)
		}
	}
}

// NNZ counts the structurally non-zero entries still tracked.
func (m *SparseSystem) NNZ() (nnz int) {
	for _, row := range m.rowPattern {
		nnz += len(row)
	}
	return
}

func (m *SparseSystem) Operator() mat.Matrix { return m.M.ToCSR() }
