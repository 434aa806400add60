package models

// Teacher is the scheduling view of a user with the TEACHER role; an
// exclusivity unit that cannot teach two sessions at once.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}
