// Package events defines the broker message envelope, the closed set of
// event and command kinds and their payloads, and the topic routing policy.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	CommentCreated     Kind = "CommentCreated"
	CommentPatched     Kind = "CommentPatched"
	CommentUpdated     Kind = "CommentUpdated"
	CommentDeleted     Kind = "CommentDeleted"
	CommentHighlighted Kind = "CommentHighlighted"
	SettingsUpdated    Kind = "SettingsUpdated"
	FeedbackChanged    Kind = "FeedbackChanged"
	FeedbackReset      Kind = "FeedbackReset"
	FeedbackStarted    Kind = "FeedbackStarted"
	FeedbackStopped    Kind = "FeedbackStopped"

	Upvote         Kind = "Upvote"
	Downvote       Kind = "Downvote"
	ResetVote      Kind = "ResetVote"
	CreateFeedback Kind = "CreateFeedback"
	ResetFeedback  Kind = "ResetFeedback"

	RoomAccessSyncRequest  Kind = "RoomAccessSyncRequest"
	RoomAccessSyncResponse Kind = "RoomAccessSyncResponse"
	RoomCreated            Kind = "RoomCreated"
	RoomDeleted            Kind = "RoomDeleted"
	RoomDuplicated         Kind = "RoomDuplicated"
	RoomPatched            Kind = "RoomPatched"
)

// Event is the envelope of every message on the broker. RoomId is omitted for
// commands that are not room scoped.
type Event struct {
	Type    Kind   `json:"type"`
	RoomId  string `json:"roomId,omitempty"`
	Payload any    `json:"payload"`
}

// Inbound is an envelope whose payload has not been decoded yet.
type Inbound struct {
	Type    Kind            `json:"type"`
	RoomId  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

func New(kind Kind, roomId string, payload any) Event {
	return Event{Type: kind, RoomId: roomId, Payload: payload}
}

// Decode parses an envelope from a message body.
func Decode(body []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(body, &in); err != nil {
		return Inbound{}, fmt.Errorf("decode envelope: %w", err)
	}
	if in.Type == "" {
		return Inbound{}, fmt.Errorf("decode envelope: missing type")
	}

	return in, nil
}

// DecodePayload unmarshals the payload of in into v.
func (in Inbound) DecodePayload(v any) error {
	if len(in.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", in.Type)
	}
	if err := json.Unmarshal(in.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", in.Type, err)
	}

	return nil
}

// CommentPayload is the full comment as seen by STOMP clients.
type CommentPayload struct {
	Id        string    `json:"id"`
	RoomId    string    `json:"roomId"`
	CreatorId string    `json:"creatorId"`
	Body      string    `json:"body"`
	Tag       string    `json:"tag,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	Favorite  bool      `json:"favorite"`
	Correct   int       `json:"correct"`
	Ack       bool      `json:"ack"`
	Score     int       `json:"score"`
}

// CommentPatchedPayload carries only the requested changes.
type CommentPatchedPayload struct {
	Id      string         `json:"id"`
	Changes map[string]any `json:"changes"`
}

type CommentDeletedPayload struct {
	Id string `json:"id"`
}

type CommentHighlightedPayload struct {
	Id  string `json:"id"`
	Lit bool   `json:"lit"`
}

type SettingsPayload struct {
	RoomId            string `json:"roomId"`
	DirectSend        bool   `json:"directSend"`
	FileUploadEnabled bool   `json:"fileUploadEnabled"`
	Readonly          bool   `json:"readonly"`
	Disabled          bool   `json:"disabled"`
}

type FeedbackChangedPayload struct {
	Values []int `json:"values"`
}

// EmptyPayload is sent by events that carry no data.
type EmptyPayload struct{}

type VotePayload struct {
	UserId    string `json:"userId"`
	CommentId string `json:"commentId"`
}

type CreateFeedbackPayload struct {
	UserId string `json:"userId"`
	Value  int    `json:"value"`
}

type ResetFeedbackPayload struct {
	RoomId string `json:"roomId,omitempty"`
}

// RoomPayload identifies a room in room lifecycle events.
type RoomPayload struct {
	Id string `json:"id"`
}

type RoomDuplicatedPayload struct {
	OriginalRoomId   string `json:"originalRoomId"`
	DuplicatedRoomId string `json:"duplicatedRoomId"`
}

type RoomAccessSyncRequestPayload struct {
	RoomId string `json:"roomId"`
}

// RoomAccessSyncResponsePayload is versioned so that older consumers can drop
// responses they do not understand.
type RoomAccessSyncResponsePayload struct {
	Version string             `json:"version"`
	Rev     string             `json:"rev"`
	RoomId  string             `json:"roomId"`
	Access  []RoomAccessRecord `json:"access"`
}

type RoomAccessRecord struct {
	UserId string `json:"userId"`
	Role   string `json:"role"`
}
