package models

import "time"

// Subject is a taught course. WeeklyCount is the number of grid slots
// owed to each group per week; it feeds the generator's demand list.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	LevelID     string    `db:"level_id" json:"level_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	WeeklyCount int       `db:"weekly_count" json:"weekly_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Specialty groups study programmes under a department.
type Specialty struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
