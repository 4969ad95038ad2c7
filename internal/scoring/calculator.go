package scoring

import (
	"github.com/shrimpsizemoose/blindtaste/internal/models"
)

type Attribute string

const (
	AttrLimpidity       Attribute = "limpidity"
	AttrVisualIntensity Attribute = "visual_intensity"
	AttrColorType       Attribute = "color_type"
	AttrColorTone       Attribute = "color_tone"
	AttrCondition       Attribute = "condition"
	AttrAromaIntensity  Attribute = "aroma_intensity"
	AttrAromas          Attribute = "aromas"
	AttrSweetness       Attribute = "sweetness"
	AttrTannin          Attribute = "tannin"
	AttrAlcohol         Attribute = "alcohol"
	AttrBody            Attribute = "body"
	AttrAcidity         Attribute = "acidity"
	AttrPersistence     Attribute = "persistence"
	AttrFlavors         Attribute = "flavors"
	AttrQuality         Attribute = "quality"
	AttrGrape           Attribute = "grape"
	AttrCountry         Attribute = "country"
	AttrVintage         Attribute = "vintage"
)

type Group string

const (
	GroupVisual    Group = "visual"
	GroupOlfactive Group = "olfactive"
	GroupGustative Group = "gustative"
	GroupGeneral   Group = "general"
)

// Field binds a scored attribute to its comparison policy.
type Field struct {
	Attribute Attribute
	Group     Group
	Kind      Kind
	Extract   func(e *models.Evaluation) Value
}

// Fields is the scored attribute set, in scoring order.
var Fields = []Field{
	{AttrLimpidity, GroupVisual, KindExact, func(e *models.Evaluation) Value { return Text(string(e.Limpidity)) }},
	{AttrVisualIntensity, GroupVisual, KindExact, func(e *models.Evaluation) Value { return Number(e.VisualIntensity) }},
	{AttrColorType, GroupVisual, KindExact, func(e *models.Evaluation) Value { return Text(string(e.ColorType)) }},
	{AttrColorTone, GroupVisual, KindExact, func(e *models.Evaluation) Value { return Text(string(e.ColorTone)) }},

	{AttrCondition, GroupOlfactive, KindExact, func(e *models.Evaluation) Value { return Text(string(e.Condition)) }},
	{AttrAromaIntensity, GroupOlfactive, KindExact, func(e *models.Evaluation) Value { return Number(e.AromaIntensity) }},
	{AttrAromas, GroupOlfactive, KindDescriptor, func(e *models.Evaluation) Value { return OptionalText(e.Aromas) }},

	{AttrSweetness, GroupGustative, KindExact, func(e *models.Evaluation) Value { return Text(string(e.Sweetness)) }},
	{AttrTannin, GroupGustative, KindConditional, func(e *models.Evaluation) Value { return OptionalNumber(e.Tannin) }},
	{AttrAlcohol, GroupGustative, KindExact, func(e *models.Evaluation) Value { return Number(e.Alcohol) }},
	{AttrBody, GroupGustative, KindExact, func(e *models.Evaluation) Value { return Number(e.Body) }},
	{AttrAcidity, GroupGustative, KindExact, func(e *models.Evaluation) Value { return Number(e.Acidity) }},
	{AttrPersistence, GroupGustative, KindExact, func(e *models.Evaluation) Value { return Number(e.Persistence) }},
	{AttrFlavors, GroupGustative, KindDescriptor, func(e *models.Evaluation) Value { return OptionalText(e.Flavors) }},

	{AttrQuality, GroupGeneral, KindExact, func(e *models.Evaluation) Value { return Text(string(e.Quality)) }},
	{AttrGrape, GroupGeneral, KindIdentification, func(e *models.Evaluation) Value { return OptionalText(e.Grape) }},
	{AttrCountry, GroupGeneral, KindIdentification, func(e *models.Evaluation) Value { return OptionalText(e.Country) }},
	{AttrVintage, GroupGeneral, KindIdentification, func(e *models.Evaluation) Value { return OptionalNumber(e.Vintage) }},
}

type AttributeResult struct {
	Attribute   Attribute `json:"attribute"`
	Group       Group     `json:"group"`
	Participant Value     `json:"participant"`
	AnswerKey   Value     `json:"answer_key"`
	Comparison
}

// Calculator scores evaluations against an answer key.
type Calculator struct {
	comparator *Comparator
	fields     []Field
}

func NewCalculator(weights Weights) (*Calculator, error) {
	comparator, err := NewComparator(weights)
	if err != nil {
		return nil, err
	}
	return &Calculator{comparator: comparator, fields: Fields}, nil
}

// Breakdown compares every scored attribute of e with key, in field order.
func (c *Calculator) Breakdown(e, key *models.Evaluation) []AttributeResult {
	results := make([]AttributeResult, 0, len(c.fields))
	for _, f := range c.fields {
		given, expected := f.Extract(e), f.Extract(key)
		results = append(results, AttributeResult{
			Attribute:   f.Attribute,
			Group:       f.Group,
			Participant: given,
			AnswerKey:   expected,
			Comparison:  c.comparator.Compare(f.Kind, given, expected),
		})
	}
	return results
}

func (c *Calculator) CalculateScore(e, key *models.Evaluation) int {
	score := 0
	for _, r := range c.Breakdown(e, key) {
		score += r.Points
	}
	return score
}

// CalculateMaxScore is what the key is worth: the key scored against itself.
func (c *Calculator) CalculateMaxScore(key *models.Evaluation) int {
	return c.CalculateScore(key, key)
}
