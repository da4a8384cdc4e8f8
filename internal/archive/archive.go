// Package archive persists synthesized clips to a NATS JetStream object
// store and announces each archived clip on a subject for downstream
// consumers.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voiceclone-service/internal/config"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ClipArchivedEvent is published once per archived clip.
type ClipArchivedEvent struct {
	ClipKey   string    `json:"clip_key"`
	Bucket    string    `json:"bucket"`
	Text      string    `json:"text"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store implements the core.ObjectStore interface using NATS JetStream.
type Store struct {
	bucket string
	store  nats.ObjectStore
}

// NewStore creates or binds to the named object-store bucket.
func NewStore(jetstreamContext nats.JetStreamContext, bucketName string) (*Store, error) {
	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Synthesized voice clips for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
			}
		} else {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
	}

	return &Store{
		bucket: bucketName,
		store:  store,
	}, nil
}

// Download retrieves an object from the NATS object store.
func (s *Store) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, s.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves an object to the NATS object store.
func (s *Store) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := s.store.Put(&nats.ObjectMeta{Name: key}, reader)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, s.bucket, err)
	}

	return nil
}

// Publisher archives clips and publishes ClipArchivedEvent messages. It
// implements core.ClipArchiver.
type Publisher struct {
	natsConnection *nats.Conn
	store          *Store
	bucket         string
	subject        string
	log            *logger.Logger
}

// NewPublisher creates a Publisher over an established NATS connection.
func NewPublisher(
	natsConnection *nats.Conn,
	store *Store,
	bucket, subject string,
	log *logger.Logger,
) *Publisher {
	return &Publisher{
		natsConnection: natsConnection,
		store:          store,
		bucket:         bucket,
		subject:        subject,
		log:            log,
	}
}

// Connect dials NATS per the archive configuration and returns a ready
// Publisher.
func Connect(cfg config.ArchiveConfig, log *logger.Logger) (*Publisher, error) {
	natsConnection, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at '%s': %w", cfg.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := NewStore(jetstreamContext, cfg.Bucket)
	if err != nil {
		natsConnection.Close()

		return nil, err
	}

	return NewPublisher(natsConnection, store, cfg.Bucket, cfg.Subject, log), nil
}

// ArchiveClip uploads the WAV bytes under a fresh key and publishes the
// archived event. The key is returned so callers can log or expose it.
func (p *Publisher) ArchiveClip(ctx context.Context, text string, wavData []byte) (string, error) {
	key := uuid.NewString() + ".wav"

	err := p.store.Upload(ctx, key, wavData)
	if err != nil {
		return "", fmt.Errorf("failed to upload clip '%s': %w", key, err)
	}

	event := ClipArchivedEvent{
		ClipKey:   key,
		Bucket:    p.bucket,
		Text:      text,
		SizeBytes: len(wavData),
		CreatedAt: time.Now().UTC(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return key, fmt.Errorf("failed to marshal archived event: %w", err)
	}

	err = p.natsConnection.Publish(p.subject, eventData)
	if err != nil {
		return key, fmt.Errorf("failed to publish archived event for '%s': %w", key, err)
	}

	p.log.Info("Archived clip %s (%d bytes)", key, len(wavData))

	return key, nil
}

// Close releases the underlying NATS connection.
func (p *Publisher) Close() {
	p.natsConnection.Close()
}

// NoOp is the archiver used when the archive is disabled.
type NoOp struct{}

// ArchiveClip does nothing and reports no key.
func (NoOp) ArchiveClip(_ context.Context, _ string, _ []byte) (string, error) {
	return "", nil
}
