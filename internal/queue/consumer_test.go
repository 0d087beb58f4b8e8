package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	gotID uint64
	err   error
}

func (f *fakeExpirer) ExpireReservation(_ context.Context, id uint64) error {
	f.gotID = id
	return f.err
}

func TestHandleMessageExpires(t *testing.T) {
	exp := &fakeExpirer{}
	err := handleMessage([]byte(`{"reservation_id":42,"expires_at":"2026-01-01T00:00:00Z"}`), exp)
	require.NoError(t, err)
	require.EqualValues(t, 42, exp.gotID)
}

// Malformed payloads must be classified as unretryable: the consumer
// drops them instead of requeueing, so one poison message cannot loop
// forever.
func TestHandleMessageRejectsBadPayload(t *testing.T) {
	exp := &fakeExpirer{}

	err := handleMessage([]byte(`not json`), exp)
	require.ErrorIs(t, err, errBadPayload)
	require.Zero(t, exp.gotID)

	err = handleMessage([]byte(`{"expires_at":"2026-01-01T00:00:00Z"}`), exp)
	require.ErrorIs(t, err, errBadPayload)
	require.Zero(t, exp.gotID)
}

// Storage errors keep their identity and are not mistaken for bad
// payloads, so the consumer requeues them (after requeueDelay) and the
// broker's redelivery acts as the retry policy.
func TestHandleMessageSurfacesStorageErrors(t *testing.T) {
	boom := errors.New("connection refused")
	exp := &fakeExpirer{err: boom}

	err := handleMessage([]byte(`{"reservation_id":7}`), exp)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, errBadPayload)
	require.EqualValues(t, 7, exp.gotID)
}
