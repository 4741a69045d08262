package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgramStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to ProgramStatus }{
		{ProgramStatusActive, ProgramStatusInactive},
		{ProgramStatusActive, ProgramStatusExpired},
		{ProgramStatusActive, ProgramStatusLimitReached},
		{ProgramStatusActive, ProgramStatusUnCompletable},
		{ProgramStatusActive, ProgramStatusDeleted},
		{ProgramStatusInactive, ProgramStatusActive},
		{ProgramStatusInactive, ProgramStatusDeleted},
		{ProgramStatusExpired, ProgramStatusDeleted},
		{ProgramStatusLimitReached, ProgramStatusDeleted},
		{ProgramStatusUnCompletable, ProgramStatusActive},
		{ProgramStatusUnCompletable, ProgramStatusExpired},
		{ProgramStatusUnCompletable, ProgramStatusDeleted},
	}
	for _, tt := range allowed {
		require.True(t, CanTransitionProgram(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to ProgramStatus }{
		{ProgramStatusDeleted, ProgramStatusActive},
		{ProgramStatusDeleted, ProgramStatusInactive},
		{ProgramStatusExpired, ProgramStatusActive},
		{ProgramStatusLimitReached, ProgramStatusActive},
		{ProgramStatusInactive, ProgramStatusExpired},
		{ProgramStatusActive, ProgramStatusActive},
	}
	for _, tt := range denied {
		require.False(t, CanTransitionProgram(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestLinkStatusTransitions(t *testing.T) {
	for _, to := range []LinkStatus{LinkStatusCancelled, LinkStatusLimitReached, LinkStatusExpired} {
		require.True(t, CanTransitionLink(LinkStatusActive, to))
	}

	// All non-active states are terminal
	for _, from := range []LinkStatus{LinkStatusCancelled, LinkStatusLimitReached, LinkStatusExpired} {
		for _, to := range []LinkStatus{LinkStatusActive, LinkStatusCancelled, LinkStatusLimitReached, LinkStatusExpired} {
			require.False(t, CanTransitionLink(from, to), "%s -> %s should be denied", from, to)
		}
	}
}

func TestLinkUsageStatusTransitions(t *testing.T) {
	require.True(t, CanTransitionLinkUsage(LinkUsageStatusPending, LinkUsageStatusCompleted))
	require.True(t, CanTransitionLinkUsage(LinkUsageStatusPending, LinkUsageStatusExpired))
	require.False(t, CanTransitionLinkUsage(LinkUsageStatusCompleted, LinkUsageStatusExpired))
	require.False(t, CanTransitionLinkUsage(LinkUsageStatusExpired, LinkUsageStatusCompleted))
	require.False(t, CanTransitionLinkUsage(LinkUsageStatusCompleted, LinkUsageStatusPending))
}

func TestProgramBalances(t *testing.T) {
	limit := 10
	pool := 100.0
	p := Program{
		CompletionLimit:      &limit,
		CompletionTotal:      7,
		ZltoRewardPool:       &pool,
		ZltoRewardCumulative: 85,
	}

	require.Equal(t, 3, *p.CompletionBalance())
	require.Equal(t, 15.0, *p.ZltoRewardBalance())

	p.CompletionTotal = 12
	p.ZltoRewardCumulative = 120
	require.Equal(t, 0, *p.CompletionBalance())
	require.Equal(t, 0.0, *p.ZltoRewardBalance())

	unbounded := Program{}
	require.Nil(t, unbounded.CompletionBalance())
	require.Nil(t, unbounded.ZltoRewardBalance())
}

func TestParseStatuses(t *testing.T) {
	status, err := ParseProgramStatus("active")
	require.NoError(t, err)
	require.Equal(t, ProgramStatusActive, status)

	_, err = ParseProgramStatus("bogus")
	require.Error(t, err)

	linkStatus, err := ParseLinkStatus("limitReached")
	require.NoError(t, err)
	require.Equal(t, LinkStatusLimitReached, linkStatus)

	_, err = ParseLinkUsageStatus("cancelled")
	require.Error(t, err)
}
