package utils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/diffusion2d/types"
)

// SystemMatrix is the storage seen by the assembler. Conductances are
// accumulated at (row, col); boundary enforcement zeroes a row and its matching
// column together. Operator hands the assembled matrix to a solver.
type SystemMatrix interface {
	mat.Matrix
	Accumulate(i, j int, val float64)
	Set(i, j int, val float64)
	ZeroRowCol(k int)
	// DoRowNonZero calls fn for every stored non-zero of row i in column order
	DoRowNonZero(i int, fn func(i, j int, v float64))
	Operator() mat.Matrix
	Name() string
}

type StorageType uint8

const (
	DenseStorage StorageType = iota
	SparseStorage
)

var (
	StorageNames = map[string]StorageType{
		"dense":  DenseStorage,
		"sparse": SparseStorage,
	}
	StoragePrintNames = []string{"dense", "sparse"}
)

func (st StorageType) Print() (txt string) {
	txt = StoragePrintNames[st]
	return
}

func NewStorageType(label string) (st StorageType, err error) {
	var ok bool
	if len(label) == 0 {
		return DenseStorage, nil
	}
	if st, ok = StorageNames[label]; !ok {
		err = fmt.Errorf("unable to use storage named %s, must be one of %v: %w",
			label, StoragePrintNames, types.ErrInput)
	}
	return
}

func NewSystemMatrix(st StorageType, N int) (A SystemMatrix) {
	switch st {
	case SparseStorage:
		A = NewSparseSystem(N)
	default:
		A = NewDenseSystem(N)
	}
	return
}

type DenseSystem struct {
	M *mat.Dense
}

func NewDenseSystem(N int) (R *DenseSystem) {
	if N <= 0 {
		panic(fmt.Errorf("mismatch in allocation: NewDenseSystem N = %v", N))
	}
	return &DenseSystem{M: mat.NewDense(N, N, nil)}
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m *DenseSystem) Dims() (r, c int)    { return m.M.Dims() }
func (m *DenseSystem) At(i, j int) float64 { return m.M.At(i, j) }
func (m *DenseSystem) T() mat.Matrix       { return m.M.T() }

func (m *DenseSystem) Name() string { return "dense" }

func (m *DenseSystem) Accumulate(i, j int, val float64) {
	m.M.Set(i, j, m.M.At(i, j)+val)
}

func (m *DenseSystem) Set(i, j int, val float64) {
	m.M.Set(i, j, val)
}

func (m *DenseSystem) DoRowNonZero(i int, fn func(i, j int, v float64)) {
	for j, v := range m.M.RawRowView(i) {
		if v != 0 {
			fn(i, j, v)
		}
	}
}

func (m *DenseSystem) ZeroRowCol(k int) {
	var (
		nr, _ = m.M.Dims()
		row   = m.M.RawRowView(k)
	)
	for j := range row {
		row[j] = 0
	}
	for i := 0; i < nr; i++ {
		m.M.Set(i, k, 0)
	}
}

func (m *DenseSystem) Operator() mat.Matrix { return m.M }

// IsSymmetric compares A with its transpose entry by entry within tol.
func IsSymmetric(A mat.Matrix, tol float64) (ok bool, row, col int) {
	var (
		nr, nc = A.Dims()
	)
	if nr != nc {
		return false, -1, -1
	}
	for i := 0; i < nr; i++ {
		for j := i + 1; j < nc; j++ {
			if d := A.At(i, j) - A.At(j, i); d > tol || d < -tol {
				return false, i, j
			}
		}
	}
	return true, -1, -1
}
