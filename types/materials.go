package types

import "fmt"

// ExtrapolationFactor is the Marshak/Milne coefficient: a vacuum face is moved
// out by ExtrapolationFactor/Σtr to the point where the diffusion flux vanishes.
const ExtrapolationFactor = 0.7104

// MaterialSpec describes one slab of the row. It is produced by an input
// collaborator and read-only from then on.
type MaterialSpec struct {
	Name          string
	SigmaS        float64 // Scattering cross-section
	SigmaA        float64 // Absorption cross-section
	Mu0           float64 // Mean scattering cosine
	SigmaF        float64 // Fission cross-section, carried but unused by the one-group solve
	S             float64 // Volumetric source
	Width, Height float64
	BoundType     BoundType
}

// SigmaTr returns the transport cross-section Σa + (1 - μ0)·Σs.
func (m MaterialSpec) SigmaTr() float64 {
	return m.SigmaA + (1-m.Mu0)*m.SigmaS
}

func (m MaterialSpec) DiffusionCoefficient() float64 {
	return 1. / (3. * m.SigmaTr())
}

func (m MaterialSpec) ExtrapolationLength() float64 {
	return ExtrapolationFactor / m.SigmaTr()
}

func (m MaterialSpec) Print() {
	fmt.Printf("Material [%s]\n", m.Name)
	fmt.Printf("%8.5f\t\t= Sigma_s\n", m.SigmaS)
	fmt.Printf("%8.5f\t\t= Sigma_a\n", m.SigmaA)
	fmt.Printf("%8.5f\t\t= Mu_0\n", m.Mu0)
	fmt.Printf("%8.5f\t\t= Sigma_f\n", m.SigmaF)
	fmt.Printf("%8.5f\t\t= Source\n", m.S)
	fmt.Printf("%8.5f x %8.5f\t= Width x Height\n", m.Width, m.Height)
	fmt.Printf("%s\t\t= Bound Type (left, right, bottom, top; 1=vacuum)\n", m.BoundType)
}
