package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	iauth "github.com/charlesng35/coffeeshop/internal/auth"
	"github.com/charlesng35/coffeeshop/internal/auth/authtest"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestSchedulerRunOnceAggregatesErrors(t *testing.T) {
	ok := &countingRefresher{}
	first := &countingRefresher{err: errors.New("idp unreachable")}
	second := &countingRefresher{err: errors.New("bad document")}

	s := NewScheduler("@hourly", []KeyRefresher{ok, first, nil, second})
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.EqualValues(t, 1, ok.calls.Load())
	require.EqualValues(t, 1, first.calls.Load())
	require.EqualValues(t, 1, second.calls.Load())
}

func TestSchedulerDisabledWithoutSchedule(t *testing.T) {
	target := &countingRefresher{}
	s := NewScheduler("  ", []KeyRefresher{target})

	require.False(t, s.Enabled())
	require.NoError(t, s.Start())
	<-s.Stop().Done()
	require.Zero(t, target.calls.Load())
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler("every now and then", []KeyRefresher{&countingRefresher{}})
	require.Error(t, s.Start())
}

func TestSchedulerRefreshesOnSchedule(t *testing.T) {
	target := &countingRefresher{}
	s := NewScheduler("@every 1s", []KeyRefresher{target}, WithCron(cron.New()))

	require.NoError(t, s.Start())
	t.Cleanup(func() { <-s.Stop().Done() })
	require.Error(t, s.Start(), "second start is rejected")

	require.Eventually(t, func() bool {
		return target.calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSchedulerRefreshesRemoteKeySet(t *testing.T) {
	issuer := authtest.NewIssuer(t)
	keys, err := iauth.NewRemoteKeySet(iauth.RemoteKeySetConfig{JWKSURL: issuer.JWKSURL()})
	require.NoError(t, err)

	s := NewScheduler("@daily", []KeyRefresher{keys}, WithTimeout(5*time.Second))
	require.NoError(t, s.RunOnce(context.Background()))
	require.True(t, keys.Loaded())
	require.Equal(t, 1, issuer.JWKSFetches())

	kid := issuer.Rotate()
	require.NoError(t, s.RunOnce(context.Background()))
	_, err = keys.Lookup(context.Background(), kid)
	require.NoError(t, err)
	require.Equal(t, 2, issuer.JWKSFetches())
}
