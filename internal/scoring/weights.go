package scoring

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidConfig = errors.New("invalid scoring config")

var validate = validator.New()

// Weights holds the points awarded per weight class. The classes must be
// strictly ordered: Maximum > Extra > Normal > 0.
type Weights struct {
	Normal  int `toml:"normal" json:"normal" validate:"gt=0"`
	Extra   int `toml:"extra" json:"extra" validate:"gtfield=Normal"`
	Maximum int `toml:"maximum" json:"maximum" validate:"gtfield=Extra"`
}

var DefaultWeights = Weights{Normal: 2, Extra: 3, Maximum: 5}

func (w Weights) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("%w: weights %+v: %v", ErrInvalidConfig, w, err)
	}
	return nil
}
