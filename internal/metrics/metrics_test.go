package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGetIsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestCacheLookup(t *testing.T) {
	m := Get()
	hits := testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("test", "hit"))
	misses := testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("test", "miss"))

	CacheLookup("test", true)
	CacheLookup("test", false)
	CacheLookup("test", false)

	assert.Equal(t, hits+1, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("test", "hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("test", "miss")))
}
