package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchSpans_PartialTail(t *testing.T) {
	spans := batchSpans(1250, MaxBatchOps)
	require.Len(t, spans, 3)

	assert.Equal(t, span{start: 0, end: 500}, spans[0])
	assert.Equal(t, span{start: 500, end: 1000}, spans[1])
	assert.Equal(t, span{start: 1000, end: 1250}, spans[2])
}

func TestBatchSpans_ExactMultiple(t *testing.T) {
	spans := batchSpans(1000, MaxBatchOps)
	require.Len(t, spans, 2)
	for _, s := range spans {
		assert.Equal(t, MaxBatchOps, s.end-s.start)
	}
}

func TestBatchSpans_SmallSetFitsOneSpan(t *testing.T) {
	spans := batchSpans(7, MaxBatchOps)
	require.Len(t, spans, 1)
	assert.Equal(t, span{start: 0, end: 7}, spans[0])
}

func TestBatchSpans_CoversEveryIndexOnce(t *testing.T) {
	for _, n := range []int{1, 499, 500, 501, 999, 1001} {
		spans := batchSpans(n, MaxBatchOps)
		covered := 0
		prevEnd := 0
		for _, s := range spans {
			assert.Equal(t, prevEnd, s.start, "n=%d: spans must be consecutive", n)
			assert.LessOrEqual(t, s.end-s.start, MaxBatchOps)
			covered += s.end - s.start
			prevEnd = s.end
		}
		assert.Equal(t, n, covered, "n=%d", n)
	}
}

func TestBatchSpans_Empty(t *testing.T) {
	assert.Nil(t, batchSpans(0, MaxBatchOps))
	assert.Nil(t, batchSpans(10, 0))
}
