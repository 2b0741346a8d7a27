package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionCompletion records a user's latest graded answer to a question.
// Re-answering updates the existing row rather than inserting a duplicate.
type QuestionCompletion struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_completion_user_question"`
	QuestionID  string    `json:"question_id" gorm:"not null;size:100;uniqueIndex:idx_completion_user_question"`
	IsCorrect   bool      `json:"is_correct" gorm:"not null"`
	TimeTaken   int       `json:"time_taken"` // seconds
	CompletedAt time.Time `json:"completed_at" gorm:"not null"`

	// SubmittedAnswer is the raw answer payload as graded, for review UIs.
	SubmittedAnswer datatypes.JSON `json:"submitted_answer" gorm:"type:jsonb"`
}

func (QuestionCompletion) TableName() string {
	return "question_completions"
}

// Bookmark existence means the question is bookmarked; toggling inserts or
// deletes the row.
type Bookmark struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_bookmark_user_question"`
	QuestionID string    `json:"question_id" gorm:"not null;size:100;uniqueIndex:idx_bookmark_user_question"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}

// UserProgress is the single-row-per-user rollup updated in place as
// activity comes in. StreakDays is derived from daily completion counts and
// only written back when the recomputed value differs.
type UserProgress struct {
	UserID             string     `json:"user_id" gorm:"primaryKey;size:255"`
	StreakDays         int        `json:"streak_days" gorm:"default:0"`
	LastActivityDate   *time.Time `json:"last_activity_date"`
	QuestionsCompleted int        `json:"questions_completed" gorm:"default:0"`
	CorrectAnswers     int        `json:"correct_answers" gorm:"default:0"`
	TotalPracticeTime  int        `json:"total_practice_time" gorm:"default:0"` // seconds
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
