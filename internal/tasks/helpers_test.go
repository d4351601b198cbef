package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tansive/tansive-pipedrive/internal/pipedrivetest"
	"github.com/tansive/tansive-pipedrive/pkg/pipedrive"
)

const testToken = "test-token"

func newFakeAPI(t *testing.T) *pipedrivetest.Server {
	t.Helper()
	srv := pipedrivetest.NewServer(testToken)
	srv.SetClock(func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	})
	t.Cleanup(srv.Close)
	return srv
}

func newRunContext(srv *pipedrivetest.Server) *RunContext {
	return &RunContext{
		Logger:          zerolog.Nop(),
		DefaultAPIToken: testToken,
		DefaultAPIURL:   srv.BaseURL(),
		ClientOptions:   []pipedrive.ClientOption{pipedrive.WithRetryDelay(time.Millisecond)},
	}
}

// runTask runs task and asserts the output has type O.
func runTask[O any](t *testing.T, task Task, rc *RunContext, params map[string]any) (*O, error) {
	t.Helper()
	out, err := task.Run(context.Background(), rc, params)
	if err != nil {
		require.Nil(t, out)
		return nil, err
	}
	typed, ok := out.(*O)
	require.True(t, ok, "unexpected output type %T", out)
	return typed, nil
}
