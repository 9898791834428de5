package utils

const (
	NODETOL = 1.e-12
)

// BLASImplementation names the BLAS backing gonum, replaced by the netlib build.
var BLASImplementation = "gonum"
