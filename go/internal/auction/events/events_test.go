package events

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAndParseBidUpdate(t *testing.T) {
	env, err := Decode([]byte(`{"event":"bidUpdate","data":{"auctionId":"a1","bidAmount":150.5,"userId":"u1"}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeBidUpdate, env.Type)

	payload, err := ParseEventPayload(env)
	require.NoError(t, err)
	p, ok := payload.(BidUpdatePayload)
	require.True(t, ok)
	assert.Equal(t, "a1", p.AuctionID)
	assert.True(t, p.BidAmount.Equal(decimal.RequireFromString("150.5")))
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "a1", AuctionID(payload))
}

func TestDecodeRejectsFramesWithoutType(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseUnknownTypeIsIgnored(t *testing.T) {
	payload, err := ParseEventPayload(Envelope{Type: "somethingNew", Data: []byte(`{}`)})
	assert.NoError(t, err)
	assert.Nil(t, payload)
}

func TestParseMalformedPayload(t *testing.T) {
	_, err := ParseEventPayload(Envelope{Type: TypeWatcherUpdate, Data: []byte(`{"watchers":"many"}`)})
	assert.Error(t, err)
}

func TestNewWrapsPayload(t *testing.T) {
	env, err := New(TypePlaceBid, PlaceBidPayload{AuctionID: "a1", BidAmount: decimal.NewFromInt(200), UserID: "u9"})
	require.NoError(t, err)

	raw, err := Encode(env)
	require.NoError(t, err)

	back, err := Decode(raw)
	require.NoError(t, err)
	payload, err := ParseEventPayload(back)
	require.NoError(t, err)
	assert.Equal(t, "u9", payload.(PlaceBidPayload).UserID)
	assert.True(t, payload.(PlaceBidPayload).BidAmount.Equal(decimal.NewFromInt(200)))
}
