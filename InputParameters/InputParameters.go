package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/notargets/diffusion2d/types"
)

// MaterialInput is one slab as written in a problem deck
type MaterialInput struct {
	Name      string    `json:"Name"`
	SigmaS    float64   `json:"SigmaS"`
	SigmaA    float64   `json:"SigmaA"`
	Mu0       float64   `json:"Mu0"`
	SigmaF    float64   `json:"SigmaF"`
	S         float64   `json:"S"`
	Bounds    []float64 `json:"Bounds"`    // (width, height) or (x0, x1, y0, y1)
	BoundType []int     `json:"BoundType"` // left, right, bottom, top; 1 = vacuum, 0 = reflective
}

// Parameters obtained from the YAML input file
type InputParameters2D struct {
	Title         string          `json:"Title"`
	NX            int             `json:"NX"`
	NY            int             `json:"NY"`
	Method        string          `json:"Method"`
	Omega         float64         `json:"Omega"`
	Tolerance     float64         `json:"Tolerance"`
	MaxIterations int             `json:"MaxIterations"`
	Storage       string          `json:"Storage"`
	MaterialFile  string          `json:"MaterialFile"` // Text material file, used when Materials is empty
	Materials     []MaterialInput `json:"Materials"`
}

func (ip *InputParameters2D) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// SetDefaults fills solver settings left out of the deck
func (ip *InputParameters2D) SetDefaults() {
	if ip.Method == "" {
		ip.Method = "sor"
	}
	if ip.Omega == 0 {
		ip.Omega = 1.25
	}
	if ip.Tolerance == 0 {
		ip.Tolerance = 1.e-10
	}
	if ip.MaxIterations == 0 {
		ip.MaxIterations = 1000
	}
	if ip.Storage == "" {
		ip.Storage = "dense"
	}
}

func (ip *InputParameters2D) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d x %d]\t\t= NX x NY\n", ip.NX, ip.NY)
	fmt.Printf("[%s]\t\t\t= Method\n", ip.Method)
	fmt.Printf("%8.5f\t\t= Omega\n", ip.Omega)
	fmt.Printf("%8.2e\t\t= Tolerance\n", ip.Tolerance)
	fmt.Printf("[%d]\t\t\t= Max Iterations\n", ip.MaxIterations)
	fmt.Printf("[%s]\t\t\t= Storage\n", ip.Storage)
	if ip.MaterialFile != "" {
		fmt.Printf("[%s]\t= Material File\n", ip.MaterialFile)
	}
	for n, m := range ip.Materials {
		fmt.Printf("Materials[%d] = %+v\n", n, m)
	}
}

// ToMaterials converts the deck materials, checking tuple lengths and flags
func (ip *InputParameters2D) ToMaterials() (materials []types.MaterialSpec, err error) {
	materials = make([]types.MaterialSpec, len(ip.Materials))
	for n, mi := range ip.Materials {
		if materials[n], err = mi.toMaterial(); err != nil {
			return nil, fmt.Errorf("deck material %d [%s]: %w", n+1, mi.Name, err)
		}
	}
	return
}

func (mi MaterialInput) toMaterial() (m types.MaterialSpec, err error) {
	m = types.MaterialSpec{
		Name:   mi.Name,
		SigmaS: mi.SigmaS,
		SigmaA: mi.SigmaA,
		Mu0:    mi.Mu0,
		SigmaF: mi.SigmaF,
		S:      mi.S,
	}
	if m.Name == "" {
		m.Name = "unknown"
	}
	switch len(mi.Bounds) {
	case 2:
		m.Width, m.Height = mi.Bounds[0], mi.Bounds[1]
	case 4:
		m.Width, m.Height = mi.Bounds[1]-mi.Bounds[0], mi.Bounds[3]-mi.Bounds[2]
	default:
		return m, fmt.Errorf("bounds must have 2 or 4 values, have %d: %w", len(mi.Bounds), types.ErrInput)
	}
	if len(mi.BoundType) != 4 {
		return m, fmt.Errorf("bound type must have 4 values, have %d: %w", len(mi.BoundType), types.ErrInput)
	}
	for f, v := range mi.BoundType {
		switch v {
		case 0:
		case 1:
			m.BoundType[f] = true
		default:
			return m, fmt.Errorf("bound type values must be 1 or 0, found %d: %w", v, types.ErrInput)
		}
	}
	return
}
