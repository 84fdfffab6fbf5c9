package ocr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newReadServer(t *testing.T, statuses ...string) (*httptest.Server, *int32, *int32) {
	t.Helper()
	var submits, polls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/vision/v3.2/read/analyze":
			assert.Equal(t, "k-123", r.Header.Get("Ocp-Apim-Subscription-Key"))
			assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
			if atomic.AddInt32(&submits, 1) == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Header().Set("Operation-Location", srv.URL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
		case r.Method == http.MethodGet && r.URL.Path == "/operations/1":
			n := int(atomic.AddInt32(&polls, 1))
			status := statuses[len(statuses)-1]
			if n <= len(statuses) {
				status = statuses[n-1]
			}
			if status != "succeeded" {
				_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"succeeded","analyzeResult":{"readResults":[{"lines":[{"text":"Temperature"},{"text":"23℃"}]},{"lines":[{"text":"Humidity 45%"}]}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &submits, &polls
}

func TestReadClient_SubmitRetriesThenPolls(t *testing.T) {
	srv, submits, polls := newReadServer(t, "notStarted", "running", "succeeded")
	c, err := NewReadClient(ReadConfig{Endpoint: srv.URL + "/", APIKey: "k-123"}, nil)
	require.NoError(t, err)
	c.sleep = noSleep

	txt, err := c.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "Temperature\n23°C\nHumidity 45%", txt)
	assert.EqualValues(t, 2, atomic.LoadInt32(submits))
	assert.EqualValues(t, 3, atomic.LoadInt32(polls))
}

func TestReadClient_TimesOut(t *testing.T) {
	srv, _, polls := newReadServer(t, "running")
	c, err := NewReadClient(ReadConfig{Endpoint: srv.URL, APIKey: "k-123", PollAttempts: 4}, nil)
	require.NoError(t, err)
	c.sleep = noSleep

	_, err = c.Recognize(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTimeout))
	assert.EqualValues(t, 4, atomic.LoadInt32(polls))
}

func TestReadClient_FailedOperation(t *testing.T) {
	srv, _, _ := newReadServer(t, "failed")
	c, err := NewReadClient(ReadConfig{Endpoint: srv.URL, APIKey: "k-123"}, nil)
	require.NoError(t, err)
	c.sleep = noSleep

	_, err = c.Recognize(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrTimeout))
}

func TestReadClient_RequiresEndpoint(t *testing.T) {
	_, err := NewReadClient(ReadConfig{}, nil)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryAfter(h, nil, time.Second))

	body := []byte(`{"error":{"message":"Rate limit exceeded. Please retry after 10 seconds."}}`)
	assert.Equal(t, 12*time.Second, retryAfter(http.Header{}, body, time.Second))
	assert.Equal(t, time.Second, retryAfter(http.Header{}, nil, time.Second))
}
