package api

import (
	"github.com/npezzotti/go-classroom/internal/database"
	"github.com/npezzotti/go-classroom/internal/types"
)

func toComment(c database.Comment) types.Comment {
	return types.Comment{
		Id:        c.Id,
		RoomId:    c.RoomId,
		CreatorId: c.CreatorId,
		Body:      c.Body,
		Tag:       c.Tag,
		Answer:    c.Answer,
		Read:      c.Read,
		Favorite:  c.Favorite,
		Ack:       c.Ack,
		Correct:   c.Correct,
		Timestamp: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromComment(c types.Comment) database.Comment {
	return database.Comment{
		Id:        c.Id,
		RoomId:    c.RoomId,
		CreatorId: c.CreatorId,
		Body:      c.Body,
		Tag:       c.Tag,
		Answer:    c.Answer,
		Read:      c.Read,
		Favorite:  c.Favorite,
		Ack:       c.Ack,
		Correct:   c.Correct,
	}
}

func toSettings(s database.Settings) types.Settings {
	return types.Settings{
		RoomId:            s.RoomId,
		DirectSend:        s.DirectSend,
		FileUploadEnabled: s.FileUploadEnabled,
		Readonly:          s.Readonly,
		Disabled:          s.Disabled,
	}
}

func fromSettings(s types.Settings) database.Settings {
	return database.Settings{
		RoomId:            s.RoomId,
		DirectSend:        s.DirectSend,
		FileUploadEnabled: s.FileUploadEnabled,
		Readonly:          s.Readonly,
		Disabled:          s.Disabled,
	}
}

func toRoom(r database.Room) types.Room {
	return types.Room{
		Id:             r.Id,
		Rev:            r.Rev,
		OwnerId:        r.OwnerId,
		Moderators:     r.Moderators,
		FeedbackLocked: r.FeedbackLocked,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
