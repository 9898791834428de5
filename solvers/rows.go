package solvers

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// rowWalker visits the stored entries of one matrix row. Entries may come in
// any column order and may include explicit zeros.
type rowWalker interface {
	walk(i int, fn func(j int, v float64))
}

func newRowWalker(A mat.Matrix) rowWalker {
	switch M := A.(type) {
	case *mat.Dense:
		return denseRows{M}
	case *sparse.CSR:
		return csrRows{M}
	case *sparse.DOK:
		return csrRows{M.ToCSR()}
	default:
		return genericRows{A}
	}
}

type denseRows struct {
	M *mat.Dense
}

func (d denseRows) walk(i int, fn func(j int, v float64)) {
	for j, v := range d.M.RawRowView(i) {
		if v != 0 {
			fn(j, v)
		}
	}
}

type csrRows struct {
	M *sparse.CSR
}

func (c csrRows) walk(i int, fn func(j int, v float64)) {
	raw := c.M.RawMatrix()
	for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
		fn(raw.Ind[k], raw.Data[k])
	}
}

type genericRows struct {
	M mat.Matrix
}

func (g genericRows) walk(i int, fn func(j int, v float64)) {
	_, nc := g.M.Dims()
	for j := 0; j < nc; j++ {
		if v := g.M.At(i, j); v != 0 {
			fn(j, v)
		}
	}
}
