package postgres

import (
	"github.com/pgvector/pgvector-go"

	"github.com/poiesic/gnosis/core"
)

// IDs are uint64 content hashes; postgres BIGINT is signed. The bit
// patterns round-trip losslessly through int64.

func toInt64(id core.ID) int64 {
	return int64(id)
}

func fromInt64(v int64) core.ID {
	return core.ID(v)
}

func idsToInt64(ids []core.ID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func int64ToIDs(vs []int64) []core.ID {
	out := make([]core.ID, len(vs))
	for i, v := range vs {
		out[i] = core.ID(v)
	}
	return out
}

// vectorParam maps an embedding to the insert parameter, NULL when absent.
func vectorParam(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}

// vectorValue unwraps a nullable scanned vector.
func vectorValue(v *pgvector.Vector) []float32 {
	if v == nil {
		return nil
	}
	return v.Slice()
}
