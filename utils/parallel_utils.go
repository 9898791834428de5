package utils

import "runtime"

// PartitionMap splits the rows [0, MaxIndex) of a system into ParallelDegree
// contiguous buckets whose sizes differ by at most one row.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end row of each bucket
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// ParallelDegree picks the worker count for maxIndex rows. A procLimit of zero
// uses every CPU; more workers than rows collapses to one.
func ParallelDegree(procLimit, maxIndex int) (np int) {
	if np = procLimit; np <= 0 {
		np = runtime.NumCPU()
	}
	if np > maxIndex {
		np = 1
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (rMin, rMax int) {
	rMin, rMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (rMax int) {
	var (
		r1, r2 = pm.GetBucketRange(bn)
	)
	rMax = r2 - r1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
