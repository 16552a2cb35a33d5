package events

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire frame for every message exchanged over the auction channel
type Envelope struct {
	Type Type            `json:"event"` // Event type
	Data json.RawMessage `json:"data"`  // Event-specific payload
}

// Type represents the type of auction event
type Type string

// Inbound (server -> client)
const (
	TypeBidUpdate          Type = "bidUpdate"
	TypeAuctionEnded       Type = "auctionEnded"
	TypeWatcherUpdate      Type = "watcherUpdate"
	TypeOutbidNotification Type = "outbidNotification"
	TypeWinnerNotification Type = "winnerNotification"
	TypeError              Type = "error"
	TypeBidAccepted        Type = "bidAccepted"
	TypeBidRejected        Type = "bidRejected"
)

// Outbound (client -> server)
const (
	TypeJoinAuction Type = "joinAuction"
	TypePlaceBid    Type = "placeBid"
)

// New builds an envelope from a typed payload
func New(t Type, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{Type: t, Data: data}, nil
}

// Decode parses a raw frame into an envelope
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope has no event type")
	}
	return env, nil
}

// Encode serializes an envelope into a frame
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// ParseEventPayload parses event data into the appropriate payload struct.
// Unknown event types return (nil, nil).
func ParseEventPayload(env Envelope) (interface{}, error) {
	switch env.Type {
	case TypeBidUpdate:
		var payload BidUpdatePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeAuctionEnded:
		var payload AuctionEndedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeWatcherUpdate:
		var payload WatcherUpdatePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeOutbidNotification:
		var payload OutbidPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeWinnerNotification:
		var payload WinnerPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeError:
		var payload ErrorPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeBidAccepted:
		var payload BidAcceptedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeBidRejected:
		var payload BidRejectedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypeJoinAuction:
		var payload JoinAuctionPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case TypePlaceBid:
		var payload PlaceBidPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}
