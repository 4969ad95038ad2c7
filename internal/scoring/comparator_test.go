package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparator_Compare(t *testing.T) {
	comparator, err := NewComparator(DefaultWeights)
	require.NoError(t, err)

	absent := Value{}

	testCases := []struct {
		name        string
		kind        Kind
		participant Value
		key         Value
		expected    Comparison
	}{
		{"Exact match", KindExact, Text("clear"), Text("clear"), Comparison{2, OutcomeCorrect}},
		{"Exact mismatch", KindExact, Text("clear"), Text("turbid"), Comparison{0, OutcomeWrong}},
		{"Exact numbers", KindExact, Number(3), Number(3), Comparison{2, OutcomeCorrect}},
		{"Exact is case sensitive", KindExact, Text("Clear"), Text("clear"), Comparison{0, OutcomeWrong}},
		{"Exact both absent", KindExact, absent, absent, Comparison{2, OutcomeCorrect}},

		{"Conditional match", KindConditional, Number(4), Number(4), Comparison{2, OutcomeCorrect}},
		{"Conditional mismatch", KindConditional, Number(2), Number(4), Comparison{0, OutcomeWrong}},
		{"Conditional key absent", KindConditional, Number(2), absent, Comparison{0, OutcomeNotApplicable}},
		{"Conditional participant absent", KindConditional, absent, Number(4), Comparison{0, OutcomeNotApplicable}},
		{"Conditional both absent", KindConditional, absent, absent, Comparison{0, OutcomeNotApplicable}},

		{"Descriptor full match", KindDescriptor, Text("oak, Vanilla ,cherry"), Text("cherry, vanilla, oak"), Comparison{3, OutcomeCorrect}},
		{"Descriptor superset is full", KindDescriptor, Text("cherry, vanilla, oak, leather"), Text("cherry, vanilla, oak"), Comparison{3, OutcomeCorrect}},
		{"Descriptor partial", KindDescriptor, Text("cherry, leather"), Text("cherry, vanilla, oak"), Comparison{2, OutcomePartial}},
		{"Descriptor no overlap", KindDescriptor, Text("lemon"), Text("cherry, vanilla"), Comparison{0, OutcomeWrong}},
		{"Descriptor participant absent", KindDescriptor, absent, Text("cherry"), Comparison{0, OutcomeWrong}},
		{"Descriptor key absent", KindDescriptor, Text("cherry"), absent, Comparison{0, OutcomeWrong}},
		{"Descriptor blank tokens only", KindDescriptor, Text(" , ,"), Text("cherry"), Comparison{0, OutcomeWrong}},

		{"Identification match", KindIdentification, Text("malbec"), Text("malbec"), Comparison{5, OutcomeCorrect}},
		{"Identification mismatch", KindIdentification, Text("merlot"), Text("malbec"), Comparison{0, OutcomeWrong}},
		{"Identification skipped", KindIdentification, absent, Text("malbec"), Comparison{0, OutcomeNotApplicable}},
		{"Identification key absent", KindIdentification, Number(2019), absent, Comparison{0, OutcomeWrong}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, comparator.Compare(tc.kind, tc.participant, tc.key))
		})
	}
}

func TestComparator_UsesConfiguredWeights(t *testing.T) {
	comparator, err := NewComparator(Weights{Normal: 1, Extra: 4, Maximum: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, comparator.Compare(KindExact, Number(1), Number(1)).Points)
	assert.Equal(t, 4, comparator.Compare(KindDescriptor, Text("a, b"), Text("b, a")).Points)
	assert.Equal(t, 1, comparator.Compare(KindDescriptor, Text("a"), Text("b, a")).Points)
	assert.Equal(t, 10, comparator.Compare(KindIdentification, Text("x"), Text("x")).Points)
}

func TestDescriptorSet(t *testing.T) {
	set := DescriptorSet(Text(" Cherry,cherry ,, VANILLA "))
	assert.Equal(t, map[string]struct{}{"cherry": {}, "vanilla": {}}, set)
	assert.Empty(t, DescriptorSet(Value{}))
}

func TestValue_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: Number(4), B: OptionalText(nil)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"4","b":null}`, string(out))
}

func TestWeights_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		weights Weights
		valid   bool
	}{
		{"Defaults", DefaultWeights, true},
		{"Zero normal", Weights{0, 3, 5}, false},
		{"Extra equals normal", Weights{2, 2, 5}, false},
		{"Maximum below extra", Weights{2, 3, 3}, false},
		{"Scaled", Weights{10, 20, 50}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.weights.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
