package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Course is a catalogue entry that materials hang off.
type Course struct {
	ID          int64  `db:"id" json:"id"`
	CourseCode  string `db:"course_code" json:"course_code"`
	Title       string `db:"title" json:"title"`
	Instructors string `db:"instructors" json:"instructors"` // comma-separated
}

// Material is a course resource with an optional file attachment.
type Material struct {
	ID          int64  `db:"id" json:"id"`
	CourseID    int64  `db:"course_id" json:"course_id"`
	Title       string `db:"title" json:"title"`
	Type        int    `db:"type" json:"type"` // assignment, exam, lecture, ...
	Description string `db:"description" json:"description"`
	Role        bool   `db:"role" json:"role"`
	Score       int    `db:"score" json:"score"`
	FileLink    string `db:"file_link" json:"file_link"` // S3 URL or external link
	UserID      int64  `db:"user_id" json:"user_id"`
}
