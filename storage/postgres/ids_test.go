package postgres

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/gnosis/core"
)

func TestIDRoundTrip(t *testing.T) {
	// content hashes routinely exceed MaxInt64; the signed representation
	// must round-trip bit for bit
	ids := []core.ID{0, 1, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64}
	for _, id := range ids {
		assert.Equal(t, id, fromInt64(toInt64(id)))
	}

	slice := idsToInt64(ids)
	assert.Equal(t, ids, int64ToIDs(slice))
}

func TestVectorParam(t *testing.T) {
	assert.Nil(t, vectorParam(nil))
	assert.NotNil(t, vectorParam([]float32{0.1, 0.2}))
	assert.Nil(t, vectorValue(nil))
}
