package value

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{input: "true", want: Bool(true)},
		{input: "FALSE", want: Bool(false)},
		{input: "True", want: Bool(true)},
		{input: "5432", want: Int(5432)},
		{input: "-17", want: Int(-17)},
		{input: "0.25", want: Float(0.25)},
		{input: "1e3", want: Float(1000)},
		{input: "notanumber", want: String("notanumber")},
		{input: "", want: String("")},
		{input: "inf", want: String("inf")},
		{input: "NaN", want: String("NaN")},
		{input: "redis://?db=1", want: String("redis://?db=1")},
		{input: "99999999999999999999", want: Float(1e20)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %s (%s), want %s (%s)", tt.input, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestFromAny(t *testing.T) {
	stamp := time.Date(2020, 8, 8, 8, 34, 0, 0, time.UTC)

	tests := []struct {
		name        string
		input       any
		expectError bool
		expected    any
	}{
		{
			name: "nested tables and sequences",
			input: map[string]any{
				"pg": map[string]any{
					"host": "localhost",
					"port": int64(5432),
				},
				"hosts": []any{"a", "b"},
				"debug": true,
				"ratio": 0.5,
			},
			expected: map[string]any{
				"pg": map[string]any{
					"host": "localhost",
					"port": int64(5432),
				},
				"hosts": []any{"a", "b"},
				"debug": true,
				"ratio": 0.5,
			},
		},
		{
			name:     "interface keyed maps",
			input:    map[any]any{"a": 1, 2: "two"},
			expected: map[string]any{"a": int64(1), "2": "two"},
		},
		{
			name:     "slices of tables",
			input:    map[string]any{"servers": []map[string]any{{"name": "alpha"}}},
			expected: map[string]any{"servers": []any{map[string]any{"name": "alpha"}}},
		},
		{
			name:     "json numbers",
			input:    []any{json.Number("42"), json.Number("4.5")},
			expected: []any{int64(42), 4.5},
		},
		{
			name:     "times become strings",
			input:    stamp,
			expected: "2020-08-08T08:34:00Z",
		},
		{
			name:     "unsigned integers",
			input:    uint(7),
			expected: int64(7),
		},
		{
			name:        "unsigned overflow",
			input:       uint64(math.MaxUint64),
			expectError: true,
		},
		{
			name:        "unsupported type",
			input:       map[string]any{"ch": make(chan int)},
			expectError: true,
		},
		{
			name:     "nil",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got.Interface()); diff != "" {
				t.Errorf("FromAny() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tree := TableOf(Table{
		"pg": TableOf(Table{
			"host": String("localhost"),
		}),
	})

	if v, ok := tree.Lookup("pg", "host"); !ok || !v.Equal(String("localhost")) {
		t.Errorf("Lookup(pg, host) = %s, %v", v, ok)
	}
	if _, ok := tree.Lookup("pg", "host", "x"); ok {
		t.Errorf("Lookup through a string should fail")
	}
	if _, ok := tree.Lookup("redis"); ok {
		t.Errorf("Lookup of a missing key should fail")
	}
	if v, ok := tree.Lookup(); !ok || !v.Equal(tree) {
		t.Errorf("Lookup() with no path should return the tree itself")
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := TableOf(Table{"pg": TableOf(Table{"host": String("localhost")})})
	clone := original.Clone()

	pg, _ := clone.AsTable()
	inner, _ := pg["pg"].AsTable()
	inner["host"] = String("db-0")

	if v, _ := original.Lookup("pg", "host"); !v.Equal(String("localhost")) {
		t.Errorf("mutating the clone changed the original: %s", original)
	}
}

func TestEqual(t *testing.T) {
	if Int(1).Equal(Float(1)) {
		t.Errorf("integer and float must not compare equal")
	}
	if !Sequence(String("a")).Equal(Sequence(String("a"))) {
		t.Errorf("equal sequences compare unequal")
	}
	if TableOf(Table{"a": Nil()}).Equal(EmptyTable()) {
		t.Errorf("a nil entry is still an entry")
	}
}

func TestString(t *testing.T) {
	v := TableOf(Table{
		"b": Sequence(Int(1), Bool(false)),
		"a": String("x"),
	})
	want := `{a = "x", b = [1, false]}`
	if got := v.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
