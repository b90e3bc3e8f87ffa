// Package leaderboard строит рейтинг студентов по полученным кредитам.
package leaderboard

import "github.com/google/uuid"

// Границы размера рейтинга.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Entry — строка рейтинга.
type Entry struct {
	StudentID            uuid.UUID `json:"student_id"`
	CampusUID            string    `json:"campus_uid"`
	DisplayName          string    `json:"display_name"`
	Email                string    `json:"email"`
	TotalCreditsReceived int       `json:"total_credits_received"`
	RecognitionsReceived int       `json:"recognitions_received"`
	EndorsementsReceived int       `json:"endorsements_received"`
}
