package fx_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/delaneyj/fxgraph/fx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, opts ...fx.Option) *fx.Runtime {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fx.New(append([]fx.Option{fx.WithLogger(logger)}, opts...)...)
}

func TestNewDefaults(t *testing.T) {
	rt := fx.New()
	assert.NotNil(t, rt.AppState())
	assert.Empty(t, rt.AppState())
	assert.Empty(t, rt.RootSubscribers())

	// UpdateAppState is always registered
	require.NoError(t, rt.ExecuteFx(fx.UpdateAppState, fx.AppState{"ready": true}))
	assert.Equal(t, fx.AppState{"ready": true}, rt.AppState())
}

func TestNewNilOptions(t *testing.T) {
	rt := fx.New(fx.WithAppState(nil), fx.WithLogger(nil), fx.WithHooks(nil))
	assert.NotNil(t, rt.AppState())

	id := rt.RegisterRoot(func(s fx.AppState, _ ...any) any { return len(s) })
	v, err := rt.Subscribe(id)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Value)
}

func TestNewWithRegistrations(t *testing.T) {
	var got []any
	logFx := fx.CoreIdentifier("test/log")
	save := fx.CoreIdentifier("test/save")

	rt := newRuntime(t,
		fx.WithAppState(fx.AppState{"n": 1}),
		fx.WithCoreFx(logFx, func(args ...any) error {
			got = append(got, args...)
			return nil
		}),
		fx.WithFxHandler(save, func(s fx.AppState, args ...any) (fx.Effects, error) {
			return fx.Effects{fx.Do(logFx, s["n"])}, nil
		}),
	)

	require.NoError(t, rt.Dispatch(save))
	assert.Equal(t, []any{1}, got)
}

func TestUpdateLogsSameSnapshot(t *testing.T) {
	var buf bytes.Buffer
	state := fx.AppState{"n": 1}
	rt := fx.New(
		fx.WithAppState(state),
		fx.WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))),
	)

	require.NoError(t, rt.ExecuteFx(fx.UpdateAppState, state))
	assert.Contains(t, buf.String(), "without any modification")
	assert.Contains(t, buf.String(), "component=fxgraph")

	buf.Reset()
	require.NoError(t, rt.ExecuteFx(fx.UpdateAppState, fx.AppState{"n": 1}))
	assert.Empty(t, buf.String())
}

func TestErrorCodes(t *testing.T) {
	rt := newRuntime(t)

	_, err := rt.Subscribe(fx.NewIdentifier("missing"))
	require.Error(t, err)
	assert.Equal(t, fx.ErrCodeUnknownSubscriber, fx.Code(err))
	assert.True(t, fx.IsLookupError(err))
	assert.False(t, fx.IsUsageError(err))
	assert.Contains(t, err.Error(), "UNKNOWN_SUBSCRIBER")
	assert.Contains(t, err.Error(), "missing#")

	var re *fx.RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "missing", re.ID.Label())

	boom := errors.New("boom")
	failing := rt.RegisterFx(func(...any) error { return boom })
	err = rt.ExecuteFx(failing)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, fx.ErrCodeFxFailed, fx.Code(err))
	assert.Equal(t, fx.ErrorCode(""), fx.Code(boom))
	assert.False(t, fx.HasCode(nil, fx.ErrCodeFxFailed))
}
