package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/buttonmen/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_Console(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "console"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := config.LoggingConfig{Level: "trace", Format: "json"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "xml"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := config.LoggingConfig{Level: level, Format: "json"}
		logger, err := NewLogger(cfg)
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestUnaryServerInterceptor_Levels(t *testing.T) {
	cases := []struct {
		err   error
		level zapcore.Level
		msg   string
	}{
		{nil, zapcore.InfoLevel, "rpc handled"},
		{status.Error(codes.InvalidArgument, "bad swing"), zapcore.WarnLevel, "rpc rejected"},
		{status.Error(codes.Internal, "runaway"), zapcore.ErrorLevel, "rpc failed"},
	}
	for _, tc := range cases {
		core, logs := observer.New(zapcore.DebugLevel)
		intercept := UnaryServerInterceptor(zap.New(core))
		info := &grpc.UnaryServerInfo{FullMethod: "/buttonmen.v1.GameService/SubmitTurn"}

		_, err := intercept(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
			return nil, tc.err
		})
		assert.Equal(t, tc.err, err)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, tc.level, entries[0].Level)
		assert.Equal(t, tc.msg, entries[0].Message)
		assert.Equal(t, "/buttonmen.v1.GameService/SubmitTurn", entries[0].ContextMap()["method"])
	}
}
