package command

import "github.com/npezzotti/go-classroom/internal/database"

type Field string

const (
	FavoriteField Field = "favorite"
	AckField      Field = "ack"
)

// Transition is a flip of one of a comment's side-effecting flags.
type Transition struct {
	Field Field
	Was   bool
	Is    bool
}

// Diff returns the flag flips between old and new, favorite before ack.
func Diff(old, new database.Comment) []Transition {
	var out []Transition
	if old.Favorite != new.Favorite {
		out = append(out, Transition{Field: FavoriteField, Was: old.Favorite, Is: new.Favorite})
	}
	if old.Ack != new.Ack {
		out = append(out, Transition{Field: AckField, Was: old.Ack, Is: new.Ack})
	}
	return out
}
