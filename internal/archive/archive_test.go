// Package archive_test tests the NATS clip archive.
package archive_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voiceclone-service/internal/archive"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "archive-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	return log
}

func TestStore_UploadDownload(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := archive.NewStore(jetstreamContext, "test-clips")
	require.NoError(t, err)

	ctx := context.Background()
	key := "clip-0001.wav"
	uploadData := []byte("fake wav payload")

	err = store.Upload(ctx, key, uploadData)
	require.NoError(t, err)

	downloadData, err := store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uploadData, downloadData)
}

func TestPublisher_ArchiveClip(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	const (
		bucket  = "voice-clips"
		subject = "voiceclone.clip.archived"
	)

	store, err := archive.NewStore(jetstreamContext, bucket)
	require.NoError(t, err)

	events := make(chan *nats.Msg, 1)
	sub, err := natsConnection.ChanSubscribe(subject, events)
	require.NoError(t, err)

	defer func() { _ = sub.Unsubscribe() }()

	publisher := archive.NewPublisher(natsConnection, store, bucket, subject, newTestLogger(t))

	ctx := context.Background()
	wavData := []byte("synthesized clip bytes")

	key, err := publisher.ArchiveClip(ctx, "hello world", wavData)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	stored, err := store.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, wavData, stored)

	select {
	case msg := <-events:
		var event archive.ClipArchivedEvent

		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, key, event.ClipKey)
		assert.Equal(t, bucket, event.Bucket)
		assert.Equal(t, "hello world", event.Text)
		assert.Equal(t, len(wavData), event.SizeBytes)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for archived event")
	}
}

func TestNoOp_ArchiveClip(t *testing.T) {
	t.Parallel()

	key, err := archive.NoOp{}.ArchiveClip(context.Background(), "text", []byte("data"))
	require.NoError(t, err)
	assert.Empty(t, key)
}
