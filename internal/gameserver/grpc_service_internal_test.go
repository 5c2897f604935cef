package gameserver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/cory-johannsen/buttonmen/internal/storage"
)

func TestToStatus(t *testing.T) {
	g := &GRPCServer{logger: zaptest.NewLogger(t)}
	cases := []struct {
		err  error
		want codes.Code
	}{
		{&engine.InputError{Reason: "x"}, codes.InvalidArgument},
		{fmt.Errorf("%w: nope", ErrBadRequest), codes.InvalidArgument},
		{fmt.Errorf("loading: %w", storage.ErrGameNotFound), codes.NotFound},
		{storage.ErrGameExists, codes.AlreadyExists},
		{fmt.Errorf("saving: %w", storage.ErrStaleGame), codes.Aborted},
		{ErrActionNotCurrent, codes.Aborted},
		{ErrNotParticipant, codes.PermissionDenied},
		{ErrNotAwaited, codes.FailedPrecondition},
		{fmt.Errorf("apply: %w", engine.ErrWrongState), codes.FailedPrecondition},
		{fmt.Errorf("apply: %w", engine.ErrInvariant), codes.Internal},
		{fmt.Errorf("apply: %w", engine.ErrRunaway), codes.Internal},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			st, _ := status.FromError(g.toStatus("Test", tc.err))
			assert.Equal(t, tc.want, st.Code())
		})
	}
}

func TestEncodeStruct_RejectsNonObjects(t *testing.T) {
	_, err := encodeStruct([]int{1, 2})
	assert.Error(t, err)
}
