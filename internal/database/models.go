package database

import "time"

type Comment struct {
	Id        string
	RoomId    string
	CreatorId string
	Body      string
	Tag       string
	Answer    string
	Read      bool
	Favorite  bool
	Ack       bool
	Correct   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Vote struct {
	Id        string
	UserId    string
	CommentId string
	Vote      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Settings struct {
	RoomId            string
	DirectSend        bool
	FileUploadEnabled bool
	Readonly          bool
	Disabled          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type BonusToken struct {
	RoomId    string
	CommentId string
	UserId    string
	Token     string
	CreatedAt time.Time
}

// RoomAccess is one cached (user, role) pair of a room's access list.
type RoomAccess struct {
	RoomId string
	UserId string
	Role   string
}

type Room struct {
	Id             string
	Rev            string
	OwnerId        string
	Moderators     []string
	FeedbackLocked bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type RoomStats struct {
	RoomId          string
	AckCommentCount int
}
