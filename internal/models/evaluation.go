package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalid marks a record rejected by validation.
var ErrInvalid = errors.New("invalid record")

var ErrInvalidEvaluation = fmt.Errorf("%w: evaluation", ErrInvalid)

type Limpidity string

const (
	LimpidityClear  Limpidity = "clear"
	LimpidityTurbid Limpidity = "turbid"
)

type ColorType string

const (
	ColorWhite ColorType = "white"
	ColorRose  ColorType = "rose"
	ColorRed   ColorType = "red"
)

type ColorTone string

const (
	ToneGreenish ColorTone = "greenish"
	ToneStraw    ColorTone = "straw"
	ToneGolden   ColorTone = "golden"
	ToneAmber    ColorTone = "amber"
	ToneSalmon   ColorTone = "salmon"
	ToneOrange   ColorTone = "orange"
	TonePink     ColorTone = "pink"
	ToneReddish  ColorTone = "reddish"
	TonePurple   ColorTone = "purple"
	ToneRuby     ColorTone = "ruby"
	ToneGarnet   ColorTone = "garnet"
	ToneBrownish ColorTone = "brownish"
)

// ColorTones lists the tones a wine of the given color may be described with.
var ColorTones = map[ColorType][]ColorTone{
	ColorWhite: {ToneGreenish, ToneStraw, ToneGolden, ToneAmber},
	ColorRose:  {ToneSalmon, ToneOrange, TonePink, ToneReddish},
	ColorRed:   {TonePurple, ToneRuby, ToneGarnet, ToneBrownish},
}

type Condition string

const (
	ConditionSound  Condition = "sound"
	ConditionFaulty Condition = "faulty"
)

type Sweetness string

const (
	SweetnessDry    Sweetness = "dry"
	SweetnessOffDry Sweetness = "off_dry"
	SweetnessMedium Sweetness = "medium"
	SweetnessSweet  Sweetness = "sweet"
)

type Quality string

const (
	QualityPoor        Quality = "poor"
	QualityAcceptable  Quality = "acceptable"
	QualityGood        Quality = "good"
	QualityVeryGood    Quality = "very_good"
	QualityOutstanding Quality = "outstanding"
)

// Evaluation is a sensory record of one wine in one round. The answer key of
// a round is an Evaluation with IsAnswerKey set and no participant.
type Evaluation struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	ParticipantID uuid.NullUUID `db:"participant_id" json:"participant_id"`
	RoundID       uuid.UUID     `db:"round_id" json:"round_id" validate:"required"`

	Limpidity       Limpidity `db:"limpidity" json:"limpidity" validate:"required,oneof=clear turbid"`
	VisualIntensity int       `db:"visual_intensity" json:"visual_intensity" validate:"min=1,max=5"`
	ColorType       ColorType `db:"color_type" json:"color_type" validate:"required,oneof=white rose red"`
	ColorTone       ColorTone `db:"color_tone" json:"color_tone" validate:"required"`

	Condition      Condition `db:"condition" json:"condition" validate:"required,oneof=sound faulty"`
	AromaIntensity int       `db:"aroma_intensity" json:"aroma_intensity" validate:"min=1,max=5"`
	Aromas         *string   `db:"aromas" json:"aromas,omitempty" validate:"omitempty,max=500"`

	Sweetness   Sweetness `db:"sweetness" json:"sweetness" validate:"required,oneof=dry off_dry medium sweet"`
	Tannin      *int      `db:"tannin" json:"tannin,omitempty" validate:"omitempty,min=1,max=5"`
	Alcohol     int       `db:"alcohol" json:"alcohol" validate:"min=1,max=5"`
	Body        int       `db:"body" json:"body" validate:"min=1,max=5"`
	Acidity     int       `db:"acidity" json:"acidity" validate:"min=1,max=5"`
	Persistence int       `db:"persistence" json:"persistence" validate:"min=1,max=5"`
	Flavors     *string   `db:"flavors" json:"flavors,omitempty" validate:"omitempty,max=500"`

	Quality Quality `db:"quality" json:"quality" validate:"required,oneof=poor acceptable good very_good outstanding"`
	Grape   *string `db:"grape" json:"grape,omitempty" validate:"omitempty,grape"`
	Country *string `db:"country" json:"country,omitempty" validate:"omitempty,country"`
	Vintage *int    `db:"vintage" json:"vintage,omitempty" validate:"omitempty,min=1800,max=2100"`

	IsAnswerKey bool       `db:"is_answer_key" json:"is_answer_key"`
	Score       int        `db:"score" json:"score"`
	ScoredAt    *time.Time `db:"scored_at" json:"scored_at,omitempty"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("grape", func(fl validator.FieldLevel) bool {
		_, ok := grapes[fl.Field().String()]
		return ok
	})
	v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		_, ok := countries[fl.Field().String()]
		return ok
	})
	v.RegisterStructValidation(evaluationStructLevel, Evaluation{})
	return v
}

// evaluationStructLevel enforces the rules that depend on the color of the wine:
// the tone must belong to the color and tannin is only described for red and rose.
func evaluationStructLevel(sl validator.StructLevel) {
	e := sl.Current().Interface().(Evaluation)

	tones, ok := ColorTones[e.ColorType]
	if ok && !containsTone(tones, e.ColorTone) {
		sl.ReportError(e.ColorTone, "ColorTone", "color_tone", "tone_for_color", string(e.ColorType))
	}

	switch e.ColorType {
	case ColorWhite:
		if e.Tannin != nil {
			sl.ReportError(e.Tannin, "Tannin", "tannin", "excluded_for_white", "")
		}
	case ColorRed, ColorRose:
		if e.Tannin == nil {
			sl.ReportError(e.Tannin, "Tannin", "tannin", "required_for_color", string(e.ColorType))
		}
	}

	if e.IsAnswerKey && e.ParticipantID.Valid {
		sl.ReportError(e.ParticipantID, "ParticipantID", "participant_id", "excluded_for_answer_key", "")
	}
	if !e.IsAnswerKey && !e.ParticipantID.Valid {
		sl.ReportError(e.ParticipantID, "ParticipantID", "participant_id", "required", "")
	}
}

func containsTone(tones []ColorTone, tone ColorTone) bool {
	for _, t := range tones {
		if t == tone {
			return true
		}
	}
	return false
}

func (e *Evaluation) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvaluation, err)
	}
	return nil
}
