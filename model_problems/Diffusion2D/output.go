package Diffusion2D

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// WriteFlux prints the flux grid as a whitespace table in physical orientation,
// top row first, under a header carrying the grid spacing.
func (c *Diffusion) WriteFlux(w io.Writer) (err error) {
	var phi *mat.Dense
	if phi, err = c.FluxField(); err != nil {
		return
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# NX = %d, NY = %d, dx = %.8g, dy = %.8g\n", c.Mesh.NX, c.Mesh.NY, c.Mesh.DX, c.Mesh.DY)
	fmt.Fprintf(bw, "# method = %s, iterations = %d, converged = %t\n",
		c.Result.Method.Print(), c.Result.Iterations, c.Result.Converged)
	for i := 0; i < c.Mesh.NY; i++ {
		for j, v := range phi.RawRowView(i) {
			if j > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%14.7e", v)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

type nonZeroDoer interface {
	DoNonZero(fn func(i, j int, v float64))
}

// WriteSystem dumps the nonzeros of A as "i j value" triplets and b one value
// per line.
func (ls *LinearSystem) WriteSystem(wA, wB io.Writer) (err error) {
	var (
		ba = bufio.NewWriter(wA)
		bb = bufio.NewWriter(wB)
		op = ls.A.Operator()
	)
	emit := func(i, j int, v float64) {
		if v != 0 {
			fmt.Fprintf(ba, "%d %d %.17g\n", i, j, v)
		}
	}
	switch M := op.(type) {
	case *mat.Dense:
		N, _ := M.Dims()
		for i := 0; i < N; i++ {
			for j, v := range M.RawRowView(i) {
				emit(i, j, v)
			}
		}
	case nonZeroDoer:
		M.DoNonZero(emit)
	default:
		N, _ := op.Dims()
		for i := 0; i < N; i++ {
			for j := 0; j < N; j++ {
				emit(i, j, op.At(i, j))
			}
		}
	}
	for i := 0; i < ls.B.Len(); i++ {
		fmt.Fprintf(bb, "%.17g\n", ls.B.AtVec(i))
	}
	if err = ba.Flush(); err != nil {
		return
	}
	return bb.Flush()
}

// DumpSystem writes A.txt and b.txt into dir, creating it if needed
func (ls *LinearSystem) DumpSystem(dir string) (err error) {
	var fA, fB *os.File
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	if fA, err = os.Create(filepath.Join(dir, "A.txt")); err != nil {
		return
	}
	defer fA.Close()
	if fB, err = os.Create(filepath.Join(dir, "b.txt")); err != nil {
		return
	}
	defer fB.Close()
	return ls.WriteSystem(fA, fB)
}
