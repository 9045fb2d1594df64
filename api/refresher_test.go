package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
	"github.com/warp/networth/store/memory"
)

func TestRateRefresher_PicksUpRatesSavedElsewhere(t *testing.T) {
	// GIVEN: A handler on a store shared with another instance
	store := memory.New()
	b := NewHandler(store, nil)

	// WHEN: The other instance saves a schedule and this one refreshes
	require.NoError(t, store.SaveRates(context.Background(), epf.RateSchedule{2023: generic.MustParseDecimal("8.25")}))
	rr := NewRateRefresher(b, time.Minute)
	rr.RunNow()

	// THEN: This instance computes with it
	assert.Equal(t, []int{2023}, b.Engine().Rates.Years())
	assert.False(t, rr.LastRun().IsZero())
}

func TestRateRefresher_StartStop(t *testing.T) {
	store := memory.New()
	h := NewHandler(store, nil)
	require.NoError(t, store.SaveRates(context.Background(), epf.RateSchedule{2021: generic.MustParseDecimal("8.1")}))

	rr := NewRateRefresher(h, 10*time.Millisecond)
	rr.Start()
	rr.Start() // second start is a no-op

	assert.Eventually(t, func() bool {
		return len(h.Engine().Rates) == 1
	}, time.Second, 5*time.Millisecond)

	rr.Stop()
	rr.Stop()
}

func TestRateRefresher_DisabledWithoutInterval(t *testing.T) {
	rr := NewRateRefresher(NewHandler(memory.New(), nil), 0)
	rr.Start()
	rr.Stop()
	assert.True(t, rr.LastRun().IsZero())
}
