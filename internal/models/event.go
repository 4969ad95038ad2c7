package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=200"`
	IsOpen    bool      `db:"is_open" json:"is_open"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Round struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EventID   uuid.UUID `db:"event_id" json:"event_id" validate:"required"`
	Name      string    `db:"name" json:"name" validate:"required,max=100"`
	Position  int       `db:"position" json:"position" validate:"min=1"`
	IsOpen    bool      `db:"is_open" json:"is_open"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Participant struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=200"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (e *Event) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: event: %v", ErrInvalid, err)
	}
	return nil
}

func (r *Round) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: round: %v", ErrInvalid, err)
	}
	return nil
}

func (p *Participant) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: participant: %v", ErrInvalid, err)
	}
	return nil
}
