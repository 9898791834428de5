package Diffusion2D

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/diffusion2d/types"
	"github.com/notargets/diffusion2d/utils"
)

var approx = cmpopts.EquateApprox(0, 1.e-12)

func water(width float64, bt types.BoundType) types.MaterialSpec {
	return types.MaterialSpec{Name: "water", SigmaS: 0.21, SigmaA: 0.01, S: 1,
		Width: width, Height: 10, BoundType: bt}
}

func fuel(width float64, bt types.BoundType) types.MaterialSpec {
	return types.MaterialSpec{Name: "fuel", SigmaS: 0.5, SigmaA: 0.02, SigmaF: 0.05,
		Width: width, Height: 10, BoundType: bt}
}

var (
	allReflective = types.BoundType{}
	allVacuum     = types.BoundType{true, true, true, true}
)

func TestCellsPerMaterial(t *testing.T) {
	{ // Floor plus largest remainder
		m, err := NewMesh(7, 3, []types.MaterialSpec{water(5, allReflective), fuel(6, allReflective)})
		require.NoError(t, err)
		assert.Equal(t, utils.Index{3, 4}, m.CellsPerMaterial)
		assert.Equal(t, utils.Index{3}, m.Interfaces)
	}
	{ // Equal remainders go to the right
		mats := []types.MaterialSpec{water(1, allReflective), fuel(1, allReflective), water(1, allReflective)}
		m, err := NewMesh(10, 2, mats)
		require.NoError(t, err)
		assert.Equal(t, utils.Index{3, 3, 4}, m.CellsPerMaterial)
		assert.Equal(t, utils.Index{3, 6}, m.Interfaces)
		assert.Equal(t, 10, m.CellsPerMaterial.Sum())
		assert.Equal(t, 0, m.MaterialAtColumn(2))
		assert.Equal(t, 1, m.MaterialAtColumn(3))
		assert.Equal(t, 2, m.MaterialAtColumn(9))
	}
	{ // Column counts always add up to NX
		mats := []types.MaterialSpec{water(3.3, allReflective), fuel(7.1, allReflective), water(0.4, allReflective)}
		for NX := 1; NX < 60; NX++ {
			m, err := NewMesh(NX, 1, mats)
			require.NoError(t, err)
			assert.Equal(t, NX, m.CellsPerMaterial.Sum(), "NX = %d", NX)
			for _, jIF := range m.Interfaces {
				assert.True(t, jIF > 0 && jIF < NX)
			}
		}
	}
}

func TestMeshGeometry(t *testing.T) {
	{ // Reflective row, unit cells
		m, err := NewMesh(30, 10, []types.MaterialSpec{water(10, allReflective), fuel(20, allReflective)})
		require.NoError(t, err)
		assert.InDelta(t, 1., m.DX, 1.e-14)
		assert.InDelta(t, 1., m.DY, 1.e-14)
		assert.Equal(t, utils.Index{10, 20}, m.CellsPerMaterial)
		assert.Equal(t, utils.Index{10}, m.Interfaces)
		assert.Equal(t, 0., m.ExtrapLeft+m.ExtrapRight+m.ExtrapTop+m.ExtrapBottom)
		{ // Repeated size computation is stable
			dx, dy, err := m.ComputeCellSizes()
			require.NoError(t, err)
			dx2, dy2, err := m.ComputeCellSizes()
			require.NoError(t, err)
			assert.Equal(t, dx, dx2)
			assert.Equal(t, dy, dy2)
		}
		{ // Interface column carries the mean of its two sides, neighbours untouched
			dW, dF := water(0, allReflective).DiffusionCoefficient(), fuel(0, allReflective).DiffusionCoefficient()
			for i := 0; i < m.NY; i++ {
				row := m.D.RawRowView(i)
				assert.Equal(t, dW, row[9])
				assert.InDelta(t, 0.5*(dW+dF), row[10], 1.e-15)
				assert.Equal(t, dF, row[11])
			}
			assert.InDelta(t, 0.5, m.Source.At(0, 10), 1.e-15)
			assert.InDelta(t, 0.015, m.SigmaA.At(5, 10), 1.e-15)
		}
		assert.True(t, m.IsInterface(10))
		assert.False(t, m.IsInterface(9))
	}
	{ // Vacuum right and top faces push the outer boundary out
		bt := types.BoundType{false, true, false, true}
		m, err := NewMesh(30, 10, []types.MaterialSpec{water(10, bt), fuel(20, bt)})
		require.NoError(t, err)
		var (
			wantW = 30 + 0.7104/0.52
			wantH = 10 + 0.7104/0.22 // Largest over the row comes from water
		)
		if diff := cmp.Diff([]float64{wantW, wantH, 0, 0.7104 / 0.52},
			[]float64{m.TotalWidth, m.TotalHeight, m.ExtrapLeft, m.ExtrapRight}, approx); diff != "" {
			t.Errorf("extrapolated sizes mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 0., m.ExtrapBottom)
		assert.InDelta(t, wantW/30, m.DX, 1.e-12)
		assert.InDelta(t, wantH/10, m.DY, 1.e-12)
		// Extrapolation widens cells but does not change the split
		assert.Equal(t, utils.Index{10, 20}, m.CellsPerMaterial)
		assert.True(t, m.BoundaryVacuum(types.Right, 0))
		assert.True(t, m.BoundaryVacuum(types.Top, 29))
		assert.False(t, m.BoundaryVacuum(types.Left, 0))
		assert.False(t, m.BoundaryVacuum(types.Bottom, 3))
	}
	{ // Homogeneous field values
		m, err := NewMesh(4, 3, []types.MaterialSpec{water(10, allVacuum)})
		require.NoError(t, err)
		want := []float64{1. / 0.66, 1. / 0.66, 1. / 0.66, 1. / 0.66}
		for i := 0; i < 3; i++ {
			if diff := cmp.Diff(want, m.D.RawRowView(i), approx); diff != "" {
				t.Errorf("row %d D mismatch (-want +got):\n%s", i, diff)
			}
		}
		assert.Empty(t, m.Interfaces)
	}
}

func TestMeshErrors(t *testing.T) {
	{ // Top flags differ between neighbours
		m1 := water(10, types.BoundType{true, false, false, true})
		m2 := fuel(10, types.BoundType{false, true, false, false})
		_, err := NewMesh(10, 10, []types.MaterialSpec{m1, m2})
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrConsistency))
		assert.Contains(t, err.Error(), "water")
		assert.Contains(t, err.Error(), "fuel")
	}
	{ // Heights differ
		m2 := fuel(10, allReflective)
		m2.Height = 5
		_, err := NewMesh(10, 10, []types.MaterialSpec{water(10, allReflective), m2})
		assert.True(t, errors.Is(err, types.ErrConsistency))
		assert.True(t, errors.Is(err, types.ErrGeometry))
	}
	{ // Bad geometry
		_, err := NewMesh(10, 10, nil)
		assert.True(t, errors.Is(err, types.ErrGeometry))
		_, err = NewMesh(0, 10, []types.MaterialSpec{water(10, allReflective)})
		assert.True(t, errors.Is(err, types.ErrGeometry))
		_, err = NewMesh(10, -1, []types.MaterialSpec{water(10, allReflective)})
		assert.True(t, errors.Is(err, types.ErrGeometry))
		_, err = NewMesh(10, 10, []types.MaterialSpec{water(-1, allReflective), fuel(5, allReflective)})
		assert.True(t, errors.Is(err, types.ErrGeometry))
		_, err = NewMesh(10, 10, []types.MaterialSpec{water(0, allReflective)})
		assert.True(t, errors.Is(err, types.ErrGeometry))
	}
}
