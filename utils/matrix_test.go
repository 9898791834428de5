package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/diffusion2d/types"
)

func fillSystem(A SystemMatrix) {
	// 3x3 tridiagonal stencil, accumulated the way the assembler does it
	for i := 0; i < 3; i++ {
		A.Accumulate(i, i, 2)
		if i > 0 {
			A.Accumulate(i, i-1, -1)
			A.Accumulate(i, i, 0.5)
		}
		if i < 2 {
			A.Accumulate(i, i+1, -1)
		}
	}
}

func TestSystemMatrix(t *testing.T) {
	for _, st := range []StorageType{DenseStorage, SparseStorage} {
		A := NewSystemMatrix(st, 3)
		assert.Equal(t, st.Print(), A.Name())
		fillSystem(A)
		nr, nc := A.Dims()
		assert.Equal(t, 3, nr)
		assert.Equal(t, 3, nc)
		assert.Equal(t, 2., A.At(0, 0))
		assert.Equal(t, 2.5, A.At(1, 1))
		assert.Equal(t, -1., A.At(1, 0))
		ok, _, _ := IsSymmetric(A, 0)
		assert.True(t, ok)

		A.ZeroRowCol(1)
		A.Set(1, 1, 1)
		for j := 0; j < 3; j++ {
			if j != 1 {
				assert.Equal(t, 0., A.At(1, j))
				assert.Equal(t, 0., A.At(j, 1))
			}
		}
		assert.Equal(t, 1., A.At(1, 1))
		assert.Equal(t, 2., A.At(0, 0))

		var cols []int
		A.DoRowNonZero(2, func(i, j int, v float64) {
			assert.Equal(t, 2, i)
			assert.Equal(t, A.At(i, j), v)
			cols = append(cols, j)
		})
		assert.Equal(t, []int{2}, cols, st.Print())
		cols = cols[:0]
		A.DoRowNonZero(1, func(_, j int, _ float64) { cols = append(cols, j) })
		assert.Equal(t, []int{1}, cols, st.Print())

		op := A.Operator()
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.Equal(t, A.At(i, j), op.At(i, j))
			}
		}
	}
	{ // Sparse pattern shrinks after a row/column is cleared
		A := NewSparseSystem(3)
		fillSystem(A)
		assert.Equal(t, 7, A.NNZ())
		A.ZeroRowCol(0)
		assert.Equal(t, 4, A.NNZ())
	}
	{
		st, err := NewStorageType("sparse")
		require.NoError(t, err)
		assert.Equal(t, SparseStorage, st)
		st, err = NewStorageType("")
		require.NoError(t, err)
		assert.Equal(t, DenseStorage, st)
		_, err = NewStorageType("banded")
		assert.True(t, errors.Is(err, types.ErrInput))
	}
	{
		A := mat.NewDense(2, 2, []float64{1, 2, 3, 1})
		ok, i, j := IsSymmetric(A, 1.e-12)
		assert.False(t, ok)
		assert.Equal(t, 0, i)
		assert.Equal(t, 1, j)
	}
}
