package amqp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDispatchShape(t *testing.T) {
	body, err := NewTransactionSyncMessage(42, 1).ToJSON()
	require.NoError(t, err)

	env, err := json.Marshal(envelope{Kind: KindSync, Payload: body})
	require.NoError(t, err)

	var decoded envelope
	require.NoError(t, json.Unmarshal(env, &decoded))
	assert.Equal(t, KindSync, decoded.Kind)

	msg, err := TransactionSyncMessageFromJSON(decoded.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(42), msg.ID)
	assert.Equal(t, int64(1), msg.Version)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestDeleteMessageRoundTrip(t *testing.T) {
	body, err := NewTransactionDeleteMessage(7).ToJSON()
	require.NoError(t, err)

	msg, err := TransactionDeleteMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.ID)
}

func TestSyncMessageRejectsGarbage(t *testing.T) {
	_, err := TransactionSyncMessageFromJSON([]byte("not json"))
	assert.Error(t, err)
}
