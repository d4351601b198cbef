package pipedrive

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tansive/tansive-pipedrive/internal/pipedrivetest"
)

const testToken = "test-token"

// recordingTimer fires immediately and remembers every requested wait.
type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingTimer) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (r *recordingTimer) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// blockingTimer never fires; it runs onWait when a wait starts.
type blockingTimer struct {
	onWait func()
}

func (b *blockingTimer) After(time.Duration) <-chan time.Time {
	if b.onWait != nil {
		b.onWait()
	}
	return make(chan time.Time)
}

func newFakeAPI(t *testing.T) *pipedrivetest.Server {
	t.Helper()
	srv := pipedrivetest.NewServer(testToken)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithBaseURL(baseURL), WithLogger(zerolog.Nop())}, opts...)
	client, err := NewClient(testToken, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
