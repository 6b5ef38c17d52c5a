package postgres

import (
	"time"

	"github.com/uptrace/bun"
)

type subjectRow struct {
	bun.BaseModel `bun:"table:subjects,alias:s"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"subject_name,notnull"`
	Description string `bun:"description,notnull"`
	OwnerChatID int64  `bun:"owner_chat_id,notnull"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement"`
	ChatID   int64  `bun:"chat_id,notnull"`
	UserName string `bun:"user_name,notnull"`
}

type userSubjectRow struct {
	bun.BaseModel `bun:"table:user_subjects,alias:us"`

	UserID    int64 `bun:"user_id,pk"`
	SubjectID int64 `bun:"subject_id,pk"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID        int64  `bun:"id,pk,autoincrement"`
	SubjectID int64  `bun:"subject_id,notnull"`
	Text      string `bun:"question_text,notnull"`
}

type optionRow struct {
	bun.BaseModel `bun:"table:options,alias:o"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	Text       string `bun:"option_text,notnull"`
	Correct    bool   `bun:"is_correct,notnull"`
	Position   int    `bun:"position,notnull"`
}

type statsRow struct {
	bun.BaseModel `bun:"table:stats,alias:st"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	SubjectID   int64     `bun:"subject_id,notnull"`
	SubjectName string    `bun:"subject_name,notnull"`
	Section     string    `bun:"current_section,notnull"`
	Total       int64     `bun:"total_questions,notnull"`
	Correct     int64     `bun:"correct_count,notnull"`
	Wrong       int64     `bun:"wrong_count,notnull"`
	Percentage  string    `bun:"correct_percentage,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}
