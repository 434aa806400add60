package models

import "time"

// Group is a student cohort and an exclusivity unit: a group cannot
// attend two sessions at once.
type Group struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	LevelID      string    `db:"level_id" json:"level_id"`
	SpecialtyID  string    `db:"specialty_id" json:"specialty_id"`
	StudentCount int       `db:"student_count" json:"student_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
