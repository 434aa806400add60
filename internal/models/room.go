package models

import "time"

// RoomType distinguishes teaching spaces for capacity planning.
type RoomType string

const (
	RoomTypeLecture RoomType = "LECTURE"
	RoomTypeLab     RoomType = "LAB"
	RoomTypeSeminar RoomType = "SEMINAR"
)

// Room is an exclusivity unit: it cannot host two sessions at once.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Type      RoomType  `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
