package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickerbot/internal/application/port"
	"tickerbot/internal/domain"
)

func TestAddPreservesInsertionOrder(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Add("u1", "2330.TW"))
	require.NoError(t, m.Add("u1", "2317.TW"))
	require.NoError(t, m.Add("u1", "3093.TWO"))

	assert.Equal(t, []domain.Symbol{"2330.TW", "2317.TW", "3093.TWO"}, m.List("u1"))
}

func TestAddIsIdempotent(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Add("u1", "2330.TW"))
	require.NoError(t, m.Add("u1", "2330.TW"))

	assert.Len(t, m.List("u1"), 1)
}

func TestAddEnforcesCapacity(t *testing.T) {
	m := NewMemory()
	for i := 0; i < port.MaxSymbols; i++ {
		require.NoError(t, m.Add("u1", domain.Symbol(fmt.Sprintf("%04d.TW", i))))
	}

	err := m.Add("u1", "9999.TW")
	assert.ErrorIs(t, err, port.ErrCapacity)
	assert.Len(t, m.List("u1"), port.MaxSymbols)

	// re-adding an existing symbol at capacity is still a no-op success
	assert.NoError(t, m.Add("u1", "0000.TW"))
}

func TestRemoveAbsentLeavesListUnchanged(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Add("u1", "2330.TW"))

	assert.False(t, m.Remove("u1", "2317.TW"))
	assert.Equal(t, []domain.Symbol{"2330.TW"}, m.List("u1"))

	assert.True(t, m.Remove("u1", "2330.TW"))
	assert.Empty(t, m.List("u1"))
}

func TestListsAreIsolatedPerSubscriber(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Add("u1", "2330.TW"))
	require.NoError(t, m.Add("u2", "2317.TW"))

	assert.Equal(t, []domain.Symbol{"2330.TW"}, m.List("u1"))
	assert.Equal(t, []domain.Symbol{"2317.TW"}, m.List("u2"))
	assert.ElementsMatch(t, []string{"u1", "u2"}, m.Subscribers())
}

func TestConcurrentAddsRespectCapacity(t *testing.T) {
	m := NewMemory()

	const attempts = 50
	var ok, full atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := m.Add("u1", domain.Symbol(fmt.Sprintf("%04d.TW", i)))
			switch {
			case err == nil:
				ok.Add(1)
			case err == port.ErrCapacity:
				full.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(port.MaxSymbols), ok.Load())
	assert.Equal(t, int32(attempts-port.MaxSymbols), full.Load())
	assert.Len(t, m.List("u1"), port.MaxSymbols)
}

func TestNeverMoreThanCapAfterMixedOps(t *testing.T) {
	m := NewMemory()
	for i := 0; i < 30; i++ {
		sym := domain.Symbol(fmt.Sprintf("%04d.TW", i%12))
		_ = m.Add("u1", sym)
		if i%5 == 0 {
			m.Remove("u1", sym)
		}
	}

	list := m.List("u1")
	assert.LessOrEqual(t, len(list), port.MaxSymbols)
	seen := map[domain.Symbol]bool{}
	for _, s := range list {
		assert.False(t, seen[s], "duplicate %s", s)
		seen[s] = true
	}
}
