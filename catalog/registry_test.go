package catalog

import (
	"sync"
	"testing"

	"github.com/queryflow/pipeql/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBasicLifecycle(t *testing.T) {
	r := New()
	assert.False(t, r.Has("data"))

	r.Set("data", table.New("a", "b"))
	assert.True(t, r.Has("data"))

	tb, ok := r.Get("data")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tb.ColumnNames())

	assert.Equal(t, []string{"data"}, r.List())

	assert.True(t, r.Delete("data"))
	assert.False(t, r.Delete("data"))
	assert.False(t, r.Has("data"))
}

func TestRegistryClear(t *testing.T) {
	r := New()
	r.Set("a", table.New())
	r.Set("b", table.New())
	r.Clear()
	assert.Empty(t, r.List())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Set("t", table.New())
			r.Has("t")
			r.List()
		}(i)
	}
	wg.Wait()
	assert.True(t, r.Has("t"))
}
