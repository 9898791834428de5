package types

import (
	"fmt"
	"strings"
)

type BCFLAG uint8

const (
	BC_Reflective BCFLAG = iota
	BC_Vacuum
)

var bcPrintNames = []string{"Reflective", "Vacuum"}

func (bc BCFLAG) String() string {
	if int(bc) < len(bcPrintNames) {
		return bcPrintNames[bc]
	}
	return fmt.Sprintf("BCFLAG(%d)", bc)
}

func FlagFromVacuum(vacuum bool) BCFLAG {
	if vacuum {
		return BC_Vacuum
	}
	return BC_Reflective
}

// Face addresses one side of a slab or of the whole domain, in the canonical
// (left, right, bottom, top) order of a bound_type tuple.
type Face uint8

const (
	Left Face = iota
	Right
	Bottom
	Top
)

var facePrintNames = [4]string{"left", "right", "bottom", "top"}

func (f Face) String() string {
	if int(f) < len(facePrintNames) {
		return facePrintNames[f]
	}
	return fmt.Sprintf("Face(%d)", f)
}

// BoundType holds the vacuum flag for each face, true meaning vacuum and false
// meaning reflective.
type BoundType [4]bool

func (bt BoundType) Vacuum(f Face) bool { return bt[f] }

func (bt BoundType) Flag(f Face) BCFLAG { return FlagFromVacuum(bt[f]) }

func (bt BoundType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for f := Left; f <= Top; f++ {
		if f != Left {
			b.WriteString(", ")
		}
		if bt[f] {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte(')')
	return b.String()
}
