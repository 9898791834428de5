package utils

import (
	"fmt"
	"sort"
)

/*
	Cell (i, j) of an NX by NY grid, with i = 0 the physical top row and j = 0 the
	physical left column, lives at linear position

		ind = NX*(NY-(i+1)) + j

	so the top row occupies the highest block of indices. Every conversion between
	a cell address and a linear position goes through CellIndex / CellIJ.
*/
func CellIndex(i, j, NX, NY int) (ind int) {
	ind = NX*(NY-(i+1)) + j
	return
}

func CellIJ(ind, NX, NY int) (i, j int) {
	block := ind / NX
	j = ind - block*NX
	i = NY - 1 - block
	return
}

func CheckCell(i, j, NX, NY int) (err error) {
	if i < 0 || i >= NY || j < 0 || j >= NX {
		err = fmt.Errorf("cell (%d, %d) outside %d x %d grid", i, j, NY, NX)
	}
	return
}

type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

// PrefixSums returns the running totals of I, excluding the leading zero.
func (I Index) PrefixSums() (r Index) {
	var sum int
	r = make(Index, len(I))
	for i, val := range I {
		sum += val
		r[i] = sum
	}
	return
}

func (I Index) Sum() (sum int) {
	for _, val := range I {
		sum += val
	}
	return
}

// Contains expects I sorted ascending.
func (I Index) Contains(val int) bool {
	k := sort.SearchInts(I, val)
	return k < len(I) && I[k] == val
}
