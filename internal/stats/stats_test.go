package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersStartAtZero(t *testing.T) {
	s := &Stats{}
	require.Zero(t, s.Nodes())
	require.Zero(t, s.Ways())
	require.Zero(t, s.Relations())
	require.Zero(t, s.UnresolvedNodes())
	require.Zero(t, s.UnresolvedWays())
	require.Zero(t, s.UnresolvedRelations())
}

func TestConcurrentIncrements(t *testing.T) {
	s := &Stats{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddNode()
			s.AddWay()
			s.AddRelation()
			s.AddUnresolvedNode()
			s.AddUnresolvedWay()
			s.AddUnresolvedRelation()
		}()
	}
	wg.Wait()

	require.EqualValues(t, 100, s.Nodes())
	require.EqualValues(t, 100, s.Ways())
	require.EqualValues(t, 100, s.Relations())
	require.EqualValues(t, 100, s.UnresolvedNodes())
	require.EqualValues(t, 100, s.UnresolvedWays())
	require.EqualValues(t, 100, s.UnresolvedRelations())
}
