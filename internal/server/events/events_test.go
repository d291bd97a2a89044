package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
	// hang blocks writes until the context is done.
	hang bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestFingerprint(t *testing.T) {
	key := []byte("k")

	a := Fingerprint(key, "203.0.113.9")
	assert.Len(t, a, 32)
	assert.Equal(t, a, Fingerprint(key, "203.0.113.9"), "stable")
	assert.NotEqual(t, a, Fingerprint(key, "203.0.113.10"))
	assert.NotEqual(t, a, Fingerprint([]byte("other"), "203.0.113.9"), "keyed")
	assert.Empty(t, Fingerprint(key, ""))

	long := make([]byte, 100)
	assert.Len(t, Fingerprint(long, "x"), 32)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, key: []byte("secret")}

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), DecisionEvent{
		Type:          TypeDecision,
		Token:         "tok",
		Outcome:       "Blocked",
		Reasons:       []string{"unique_sources"},
		SourceAddress: "203.0.113.9",
		At:            at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "tok", string(msg.Key))
	assert.Equal(t, TypeDecision, string(msg.Headers[0].Value))
	assert.NotContains(t, string(msg.Value), "203.0.113.9", "raw address must not leave the process")

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, Fingerprint([]byte("secret"), "203.0.113.9"), got["source_fingerprint"])
	assert.NotEmpty(t, got["id"])
	assert.Equal(t, "Blocked", got["outcome"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("no leader")}}

	err := p.Publish(context.Background(), DecisionEvent{Token: "tok"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no leader")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), DecisionEvent{}))
	assert.NoError(t, p.Close())
}

func TestKafkaPublisher_SlowBrokerTimesOut(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{hang: true}, timeout: 20 * time.Millisecond}

	start := time.Now()
	err := p.Publish(context.Background(), DecisionEvent{Type: TypeDecision, Token: "tok"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestKafkaPublisher_RotationEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, key: []byte("secret")}

	require.NoError(t, p.Publish(context.Background(), DecisionEvent{
		Type: TypeRotation, Token: "new", PreviousToken: "old", ProductID: "p1",
	}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "new", string(w.msgs[0].Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "old", got["previous_token"])
	assert.Equal(t, TypeRotation, got["type"])
	assert.NotContains(t, got, "source_fingerprint")
}
