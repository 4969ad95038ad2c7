package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantEvent is the rollup of one participant's scores across the
// judged rounds of an event.
type ParticipantEvent struct {
	ID              uuid.UUID `db:"id" json:"id"`
	ParticipantID   uuid.UUID `db:"participant_id" json:"participant_id"`
	ParticipantName string    `db:"participant_name" json:"participant_name,omitempty"`
	EventID         uuid.UUID `db:"event_id" json:"event_id"`
	ScoreTotal      int       `db:"score_total" json:"score_total"`
	ScoreMaxTotal   int       `db:"score_max_total" json:"score_max_total"`
	Percentual      float64   `db:"percentual" json:"percentual"`
	Badge           string    `db:"badge" json:"badge"`
	BadgeKey        string    `db:"badge_key" json:"badge_key"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// unique_together is handled on DB level:
/*
CREATE UNIQUE INDEX participant_events_participant_event_idx
    ON participant_events (participant_id, event_id);
*/
