// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/pagevault/internal/app"
	"github.com/JakeFAU/pagevault/internal/config"
	"github.com/JakeFAU/pagevault/internal/snapshot"
)

// MockStateStore mocks the snapshot.StateStore interface.
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Load(ctx context.Context) (*snapshot.RunState, error) {
	args := m.Called(ctx)
	if st := args.Get(0); st != nil {
		return st.(*snapshot.RunState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStateStore) RecordSuccess(ctx context.Context, st *snapshot.RunState, url string, artifacts snapshot.ArtifactSet) error {
	args := m.Called(ctx, st, url, artifacts)
	return args.Error(0)
}

func (m *MockStateStore) RecordFailure(ctx context.Context, st *snapshot.RunState, rec snapshot.FailureRecord) error {
	args := m.Called(ctx, st, rec)
	return args.Error(0)
}

func (m *MockStateStore) Flush(ctx context.Context, st *snapshot.RunState) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockStateStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// baseConfig returns a config that builds every service without touching
// the network: in-memory state, local blob storage, no mirror, no broker.
func baseConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Input:     config.InputConfig{Path: "urls.json"},
		Output:    config.OutputConfig{Root: t.TempDir()},
		Probe:     config.ProbeConfig{UserAgent: "pagevault-test", TimeoutSeconds: 2, MaxBodyBytes: 1 << 20},
		RateLimit: config.RateLimitConfig{RPS: 0, Burst: 1},
		Capture:   config.CaptureConfig{NavTimeoutSeconds: 1, CaptureTimeoutSeconds: 1},
		State: config.StateConfig{
			Backend:      "memory",
			IndexPath:    "index.json",
			FailuresPath: "failed_urls.json",
		},
	}
}

func TestNew_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, err := app.New(ctx, baseConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, a)
	defer a.Close(ctx)

	assert.NotNil(t, a.Logger)
	assert.NotNil(t, a.Status)
	assert.NotNil(t, a.States)
	assert.NotNil(t, a.Hub)
	assert.NotNil(t, a.Browser)
	assert.NotNil(t, a.Pipeline)
}

func TestNew_NilLoggerDefaultsToNop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, err := app.New(ctx, baseConfig(t), nil)
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NotNil(t, a.Logger)
}

func TestNew_FileStateBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := baseConfig(t)
	cfg.State.Backend = "file"

	a, err := app.New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NotNil(t, a.States)
}

func TestNew_ConfigErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		configSetup   func(cfg *config.Config)
		expectedError string
	}{
		{
			name: "unknown state backend",
			configSetup: func(cfg *config.Config) {
				cfg.State.Backend = "redis"
			},
			expectedError: "unknown state backend: redis",
		},
		{
			name: "pubsub missing project ID",
			configSetup: func(cfg *config.Config) {
				cfg.PubSub.Enabled = true
				cfg.PubSub.ProjectID = ""
				cfg.PubSub.TopicName = "captures"
			},
			expectedError: "pubsub is enabled but project_id or topic_name is not set",
		},
		{
			name: "pubsub missing topic",
			configSetup: func(cfg *config.Config) {
				cfg.PubSub.Enabled = true
				cfg.PubSub.ProjectID = "test-project"
				cfg.PubSub.TopicName = ""
			},
			expectedError: "pubsub is enabled but project_id or topic_name is not set",
		},
		{
			name: "missing output root",
			configSetup: func(cfg *config.Config) {
				cfg.Output.Root = ""
			},
			expectedError: "initialize artifact store",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig(t)
			tc.configSetup(&cfg)

			_, err := app.New(context.Background(), cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}

func TestApp_Close(t *testing.T) {
	t.Parallel()

	stMock := new(MockStateStore)
	stMock.On("Close", mock.Anything).Return(nil).Once()

	a := &app.App{
		Logger: zap.NewNop(),
		States: stMock,
	}
	a.Close(context.Background())

	stMock.AssertExpectations(t)
}

func TestApp_Close_WithErrors(t *testing.T) {
	t.Parallel()

	stMock := new(MockStateStore)
	stMock.On("Close", mock.Anything).Return(errors.New("state error")).Once()

	a := &app.App{
		States: stMock,
	}
	require.NotPanics(t, func() {
		a.Close(context.Background())
	})

	stMock.AssertExpectations(t)
}

func TestApp_CloseAfterNewWithoutRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, err := app.New(ctx, baseConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NotPanics(t, func() {
		a.Close(ctx)
	})
}
