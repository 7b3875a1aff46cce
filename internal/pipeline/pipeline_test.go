package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrderedDeliveryMatchesInputOrder(t *testing.T) {
	n := 200
	var mu sync.Mutex
	var order []int

	err := Run(context.Background(), n, Options{Workers: 8}, func(ctx context.Context, i int) (int, error) {
		// Stagger completion so later items often finish before earlier
		// ones, exercising the ordering guarantee.
		if i%7 == 0 {
			time.Sleep(time.Millisecond)
		}
		return i * 2, nil
	}, func(i int, d int) error {
		require.Equal(t, i*2, d)
		mu.Lock()
		order = append(order, i)
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	require.Len(t, order, n)
	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestFirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), 50, Options{Workers: 4}, func(ctx context.Context, i int) (int, error) {
		if i == 10 {
			return 0, boom
		}
		return i, nil
	}, func(i int, d int) error {
		return nil
	})

	require.Error(t, err)
}

func TestConsumeErrorPropagates(t *testing.T) {
	boom := errors.New("consume failed")
	err := Run(context.Background(), 20, Options{Workers: 4}, func(ctx context.Context, i int) (int, error) {
		return i, nil
	}, func(i int, d int) error {
		if i == 5 {
			return boom
		}
		return nil
	})

	require.Error(t, err)
}

func TestZeroItems(t *testing.T) {
	err := Run(context.Background(), 0, Options{}, func(ctx context.Context, i int) (int, error) {
		t.Fatal("produce should not be called")
		return 0, nil
	}, func(i int, d int) error {
		t.Fatal("consume should not be called")
		return nil
	})
	require.NoError(t, err)
}
