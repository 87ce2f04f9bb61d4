package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
	"git.home.luguber.info/inful/specpreview/internal/logfields"
)

const natsOpTimeout = 5 * time.Second

// NATSStore keeps slots in a JetStream key-value bucket, so several preview
// processes (or an external editor) can share the document and status.
// Watch is backed by a KV watcher and sees writes from any client.
type NATSStore struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	bucket string
	ctx    context.Context
	cancel context.CancelFunc
}

// NewNATSStore connects to url and opens (or creates) bucket.
func NewNATSStore(url, bucket string) (*NATSStore, error) {
	conn, err := nats.Connect(url, nats.Name("specpreview"))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTransport, "connect to NATS").
			WithContext("url", url).Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryTransport, "create JetStream context").Build()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "specpreview document and status slots",
			History:     1,
		})
		if err != nil {
			conn.Close()
			return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "create KV bucket").
				WithContext("bucket", bucket).Build()
		}
		slog.Info("Created KV bucket for preview slots", "bucket", bucket)
	}

	lifetime, stop := context.WithCancel(context.Background())
	return &NATSStore{conn: conn, kv: kv, bucket: bucket, ctx: lifetime, cancel: stop}, nil
}

func (s *NATSStore) Save(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, natsOpTimeout)
	defer cancel()
	if _, err := s.kv.PutString(ctx, key, value); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "put slot").WithContext("key", key).Build()
	}
	return nil
}

func (s *NATSStore) Load(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, natsOpTimeout)
	defer cancel()
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return "", ErrNotFound(key)
	}
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryStorage, "get slot").WithContext("key", key).Build()
	}
	return string(entry.Value()), nil
}

// Watch delivers puts made after registration. The initial value replay is skipped.
func (s *NATSStore) Watch(key string, fn Listener) (func(), error) {
	ctx, cancel := context.WithCancel(s.ctx)
	w, err := s.kv.Watch(ctx, key, jetstream.UpdatesOnly())
	if err != nil {
		cancel()
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "watch slot").WithContext("key", key).Build()
	}

	go func() {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-w.Updates():
				if !ok {
					return
				}
				if entry == nil || entry.Operation() != jetstream.KeyValuePut {
					continue
				}
				fn(string(entry.Value()))
			}
		}
	}()

	slog.Debug("Watching KV slot", logfields.Slot(key), "bucket", s.bucket)
	return cancel, nil
}

func (s *NATSStore) Close() error {
	s.cancel()
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
