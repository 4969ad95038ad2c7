package scoring

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

type Outcome string

const (
	OutcomeCorrect       Outcome = "correct"
	OutcomePartial       Outcome = "partial"
	OutcomeWrong         Outcome = "wrong"
	OutcomeNotApplicable Outcome = "not_applicable"
)

// Kind selects the comparison policy for an attribute.
type Kind int

const (
	// KindExact awards the normal weight on equality, absent values included.
	KindExact Kind = iota
	// KindConditional is only compared when both sides carry a value.
	KindConditional
	// KindDescriptor compares comma separated descriptor lists as sets.
	KindDescriptor
	// KindIdentification is only compared when the participant answered.
	KindIdentification
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindConditional:
		return "conditional"
	case KindDescriptor:
		return "descriptor"
	case KindIdentification:
		return "identification"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an optional attribute value in canonical string form.
type Value struct {
	Present bool
	Raw     string
}

func Text(s string) Value { return Value{Present: true, Raw: s} }

func Number(n int) Value { return Value{Present: true, Raw: strconv.Itoa(n)} }

func OptionalText(s *string) Value {
	if s == nil {
		return Value{}
	}
	return Text(*s)
}

func OptionalNumber(n *int) Value {
	if n == nil {
		return Value{}
	}
	return Number(*n)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Present {
		return []byte("null"), nil
	}
	return json.Marshal(v.Raw)
}

type Comparison struct {
	Points  int     `json:"points"`
	Outcome Outcome `json:"outcome"`
}

// Comparator compares a single participant attribute with the answer key.
// It is stateless and safe for concurrent use.
type Comparator struct {
	weights Weights
}

func NewComparator(weights Weights) (*Comparator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Comparator{weights: weights}, nil
}

func (c *Comparator) Compare(kind Kind, participant, key Value) Comparison {
	switch kind {
	case KindConditional:
		if !participant.Present || !key.Present {
			return Comparison{Outcome: OutcomeNotApplicable}
		}
		return c.exact(participant, key)
	case KindDescriptor:
		return c.descriptor(participant, key)
	case KindIdentification:
		if !participant.Present {
			return Comparison{Outcome: OutcomeNotApplicable}
		}
		if participant == key {
			return Comparison{Points: c.weights.Maximum, Outcome: OutcomeCorrect}
		}
		return Comparison{Outcome: OutcomeWrong}
	default:
		return c.exact(participant, key)
	}
}

func (c *Comparator) exact(participant, key Value) Comparison {
	if participant == key {
		return Comparison{Points: c.weights.Normal, Outcome: OutcomeCorrect}
	}
	return Comparison{Outcome: OutcomeWrong}
}

func (c *Comparator) descriptor(participant, key Value) Comparison {
	given := DescriptorSet(participant)
	expected := DescriptorSet(key)
	if len(given) == 0 || len(expected) == 0 {
		return Comparison{Outcome: OutcomeWrong}
	}

	matches := 0
	for token := range expected {
		if _, ok := given[token]; ok {
			matches++
		}
	}

	switch {
	case matches == 0:
		return Comparison{Outcome: OutcomeWrong}
	case matches == len(expected):
		return Comparison{Points: c.weights.Extra, Outcome: OutcomeCorrect}
	default:
		return Comparison{Points: c.weights.Normal, Outcome: OutcomePartial}
	}
}

// DescriptorSet splits a comma separated descriptor list into a set of
// trimmed, case folded tokens. Blank tokens are dropped.
func DescriptorSet(v Value) map[string]struct{} {
	if !v.Present {
		return nil
	}

	// a Caser keeps state, one per call
	fold := cases.Fold()
	set := make(map[string]struct{})
	for _, token := range strings.Split(v.Raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		set[fold.String(token)] = struct{}{}
	}
	return set
}
