package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
)

// Sink receives finished envelopes.
type Sink interface {
	Publish(ctx context.Context, r *Result) error
	Close() error
}

// WriterSink writes each envelope as one JSON document.
type WriterSink struct {
	enc *json.Encoder
}

// NewWriterSink creates a sink writing to w. With indent set the JSON is
// pretty-printed.
func NewWriterSink(w io.Writer, indent bool) *WriterSink {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return &WriterSink{enc: enc}
}

// Publish implements Sink.
func (s *WriterSink) Publish(_ context.Context, r *Result) error {
	return s.enc.Encode(r)
}

// Close implements Sink.
func (s *WriterSink) Close() error {
	return nil
}

// DefaultResultsKey is the Redis list envelopes are pushed onto.
const DefaultResultsKey = "ztpfab:results"

// RedisSink pushes envelopes onto a Redis list for the fleet runner to
// collect.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink connects to the Redis server named by url
// (redis://[:password@]host:port/db).
func NewRedisSink(url, key string) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing results url: %w", err)
	}
	if key == "" {
		key = DefaultResultsKey
	}
	return &RedisSink{client: redis.NewClient(opts), key: key}, nil
}

// Publish implements Sink.
func (s *RedisSink) Publish(ctx context.Context, r *Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("publishing result to %s: %w", s.key, err)
	}
	return nil
}

// Drain pops every envelope currently queued.
func (s *RedisSink) Drain(ctx context.Context) ([]*Result, error) {
	var out []*Result
	for {
		data, err := s.client.LPop(ctx, s.key).Bytes()
		if errors.Is(err, redis.Nil) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		r := &Result{}
		if err := json.Unmarshal(data, r); err != nil {
			return out, fmt.Errorf("decoding queued result: %w", err)
		}
		out = append(out, r)
	}
}

// Close implements Sink.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// MultiSink publishes to every sink in order and returns the first error.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(ctx context.Context, r *Result) error {
	var first error
	for _, s := range m {
		if err := s.Publish(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close implements Sink.
func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
