package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentradar/internal/domain"
	"contentradar/internal/storage/postgres"
)

type fakeStore struct {
	hook      domain.Webhook
	err       error
	successes int
	failures  int
}

func (f *fakeStore) Get(context.Context, int64) (domain.Webhook, error) {
	return f.hook, f.err
}

func (f *fakeStore) RecordDeliverySuccess(context.Context, int64) error {
	f.successes++
	return nil
}

func (f *fakeStore) RecordDeliveryFailure(context.Context, int64) error {
	f.failures++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleTask(webhookID int64) domain.DeliverWebhookTask {
	return domain.DeliverWebhookTask{
		WebhookID:  webhookID,
		SourceID:   10,
		SourceName: "Example Blog",
		NewPosts: []domain.NewPost{
			{ID: 100, Title: "Post A", URL: "https://example.com/a"},
		},
	}
}

func TestDeliver_SignedPayload(t *testing.T) {
	var (
		gotSignature string
		gotBody      []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotSignature = r.Header.Get("X-Signature")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	store := &fakeStore{hook: domain.Webhook{ID: 7, URL: server.URL, Secret: "topsecret", IsActive: true}}
	d := NewDeliverer(store, testLogger())

	err := d.Deliver(context.Background(), sampleTask(7))
	require.NoError(t, err)

	assert.Equal(t, Sign("topsecret", gotBody), gotSignature)

	var p payload
	require.NoError(t, json.Unmarshal(gotBody, &p))
	assert.Equal(t, "posts.found", p.Event)
	assert.Equal(t, int64(10), p.SourceID)
	assert.Equal(t, "Example Blog", p.SourceName)
	require.Len(t, p.NewPosts, 1)
	assert.Equal(t, "Post A", p.NewPosts[0].Title)

	assert.Equal(t, 1, store.successes)
	assert.Equal(t, 0, store.failures)
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature")
	}))
	defer server.Close()

	store := &fakeStore{hook: domain.Webhook{ID: 7, URL: server.URL, IsActive: true}}
	d := NewDeliverer(store, testLogger())

	require.NoError(t, d.Deliver(context.Background(), sampleTask(7)))
	assert.Empty(t, gotSignature)
}

func TestDeliver_EndpointFailureCounted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := &fakeStore{hook: domain.Webhook{ID: 7, URL: server.URL, IsActive: true}}
	d := NewDeliverer(store, testLogger())

	err := d.Deliver(context.Background(), sampleTask(7))
	require.Error(t, err)
	assert.Equal(t, 1, store.failures)
	assert.Equal(t, 0, store.successes)
}

func TestDeliver_DisabledWebhookDropped(t *testing.T) {
	store := &fakeStore{hook: domain.Webhook{ID: 7, URL: "https://unreachable.invalid", IsActive: false}}
	d := NewDeliverer(store, testLogger())

	require.NoError(t, d.Deliver(context.Background(), sampleTask(7)))
	assert.Equal(t, 0, store.failures)
	assert.Equal(t, 0, store.successes)
}

func TestDeliver_GoneWebhookDropped(t *testing.T) {
	store := &fakeStore{err: postgres.ErrNotFound}
	d := NewDeliverer(store, testLogger())

	require.NoError(t, d.Deliver(context.Background(), sampleTask(7)))
}
