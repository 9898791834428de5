package utils

import (
	"gonum.org/v1/gonum/mat"
)

func VecGetF64(v mat.Vector) (r []float64) {
	r = make([]float64, v.Len())
	for i := 0; i < v.Len(); i++ {
		r[i] = v.AtVec(i)
	}
	return
}

// VecToGrid reshapes a cell-ordered vector into an NY x NX grid in physical
// orientation, row 0 at the top.
func VecToGrid(v mat.Vector, NX, NY int) (G *mat.Dense) {
	if v.Len() != NX*NY {
		panic("unable to reshape vector, length does not match NX*NY")
	}
	G = mat.NewDense(NY, NX, nil)
	for ind := 0; ind < v.Len(); ind++ {
		i, j := CellIJ(ind, NX, NY)
		G.Set(i, j, v.AtVec(ind))
	}
	return
}
