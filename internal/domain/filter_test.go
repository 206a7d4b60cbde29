package domain

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEncode(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   string
	}{
		{
			name:   "open status",
			filter: NewFilter().Status(StatusOpen),
			want:   `[{"status":{"operator":"o","values":[]}}]`,
		},
		{
			name:   "closed status",
			filter: NewFilter().Status(StatusClosed),
			want:   `[{"status":{"operator":"c","values":[]}}]`,
		},
		{
			name:   "equality with int value",
			filter: NewFilter().Equals("project", 7),
			want:   `[{"project":{"operator":"=","values":["7"]}}]`,
		},
		{
			name:   "bool value",
			filter: NewFilter().Equals("active", true),
			want:   `[{"active":{"operator":"=","values":["t"]}}]`,
		},
		{
			name:   "predicates keep insertion order",
			filter: NewFilter().Status(StatusOpen).Equals("parent", 42),
			want:   `[{"status":{"operator":"o","values":[]}},{"parent":{"operator":"=","values":["42"]}}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.filter.Encode()
			require.True(t, ok)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestFilterEncodeEmpty(t *testing.T) {
	t.Run("no predicates", func(t *testing.T) {
		_, ok := NewFilter().Encode()
		assert.False(t, ok)
	})

	t.Run("status all adds nothing", func(t *testing.T) {
		f := NewFilter().Status(StatusAll)
		assert.Equal(t, 0, f.Len())
		_, ok := f.Encode()
		assert.False(t, ok)
	})

	t.Run("nil filter", func(t *testing.T) {
		var f *Filter
		_, ok := f.Encode()
		assert.False(t, ok)
		assert.Nil(t, f.Predicates())
	})

	t.Run("skipped conditional predicate", func(t *testing.T) {
		f := NewFilter().EqualsIf(false, "principal", 3)
		_, ok := f.Encode()
		assert.False(t, ok)
	})
}

func TestParseStatusClass(t *testing.T) {
	for in, want := range map[string]StatusClass{
		"":       StatusOpen,
		"open":   StatusOpen,
		"closed": StatusClosed,
		"all":    StatusAll,
	} {
		got, err := ParseStatusClass(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseStatusClass("pending")
	var preErr *PreconditionError
	assert.ErrorAs(t, err, &preErr)
}

func TestFilterValue(t *testing.T) {
	assert.Equal(t, "12", FilterValue(12))
	assert.Equal(t, "12", FilterValue(int64(12)))
	assert.Equal(t, "1.5", FilterValue(1.5))
	assert.Equal(t, "f", FilterValue(false))
	assert.Equal(t, "active", FilterValue("active"))
	assert.Equal(t, "open", FilterValue(StatusOpen))
}

func TestFilterPredicatesCopy(t *testing.T) {
	f := NewFilter().Equals("project", 1)
	preds := f.Predicates()
	preds[0].Field = "changed"
	assert.Equal(t, "project", f.Predicates()[0].Field)
}

func TestFilterProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every encoded value is a string", prop.ForAll(
		func(ids []int) bool {
			f := NewFilter()
			for _, id := range ids {
				f.Equals("project", id)
			}
			encoded, ok := f.Encode()
			if len(ids) == 0 {
				return !ok
			}
			if !ok {
				return false
			}

			var decoded []map[string]struct {
				Operator string `json:"operator"`
				Values   []any  `json:"values"`
			}
			if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
				return false
			}
			if len(decoded) != len(ids) {
				return false
			}
			for _, entry := range decoded {
				for _, v := range entry["project"].Values {
					if _, isString := v.(string); !isString {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(1, 100000)),
	))

	properties.Property("single-key predicate objects", prop.ForAll(
		func(field string, value int) bool {
			encoded, ok := NewFilter().Equals(field, value).Encode()
			if !ok {
				return false
			}
			var decoded []map[string]json.RawMessage
			if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
				return false
			}
			_, hasField := decoded[0][field]
			return len(decoded) == 1 && len(decoded[0]) == 1 && hasField
		},
		gen.OneConstOf("project", "principal", "parent", "work_package", "user", "involved"),
		gen.IntRange(1, 1<<30),
	))

	properties.TestingRun(t)
}
