package types

import (
	"time"
)

type Comment struct {
	Id        string    `json:"id"`
	RoomId    string    `json:"roomId"`
	CreatorId string    `json:"creatorId"`
	Body      string    `json:"body"`
	Tag       string    `json:"tag,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	Read      bool      `json:"read"`
	Favorite  bool      `json:"favorite"`
	Ack       bool      `json:"ack"`
	Correct   int       `json:"correct"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type Settings struct {
	RoomId            string `json:"roomId"`
	DirectSend        bool   `json:"directSend"`
	FileUploadEnabled bool   `json:"fileUploadEnabled"`
	Readonly          bool   `json:"readonly"`
	Disabled          bool   `json:"disabled"`
}

// Room is the core service's room as sent to other services. Which of its
// properties actually leave the service is decided by the event filter.
type Room struct {
	Id             string    `json:"id"`
	Rev            string    `json:"rev"`
	OwnerId        string    `json:"ownerId"`
	Moderators     []string  `json:"moderators"`
	FeedbackLocked bool      `json:"feedbackLocked"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

type RoomStats struct {
	RoomId          string `json:"roomId"`
	AckCommentCount int    `json:"ackCommentCount"`
}

type Feedback struct {
	RoomId string `json:"roomId"`
	Values []int  `json:"values"`
	Locked bool   `json:"locked"`
}
