package postgres

import (
	"encoding/json"
	"testing"
)

// The jsonb columns these helpers feed are NOT NULL; pgx turns a nil []byte
// argument into SQL NULL, so empty slices must still produce a JSON array.
func TestMarshalStringsEmptyIsNotNull(t *testing.T) {
	for name, input := range map[string][]string{
		"nil slice":   nil,
		"empty slice": {},
	} {
		t.Run(name, func(t *testing.T) {
			b := marshalStrings(input)
			if b == nil {
				t.Fatal("marshalStrings returned nil, which pgx encodes as SQL NULL")
			}
			if string(b) != "[]" {
				t.Errorf("marshalStrings = %q; want []", b)
			}
		})
	}
}

func TestMarshalIntsEmptyIsNotNull(t *testing.T) {
	b := marshalInts(nil)
	if b == nil {
		t.Fatal("marshalInts returned nil, which pgx encodes as SQL NULL")
	}
	if string(b) != "[]" {
		t.Errorf("marshalInts = %q; want []", b)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Run("strings", func(t *testing.T) {
		var got []string
		if err := json.Unmarshal(marshalStrings([]string{"work", "deep"}), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(got) != 2 || got[0] != "work" || got[1] != "deep" {
			t.Errorf("round trip = %v; want [work deep]", got)
		}
	})

	t.Run("ints", func(t *testing.T) {
		var got []int
		if err := json.Unmarshal(marshalInts([]int{1, 3, 5}), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(got) != 3 || got[0] != 1 || got[2] != 5 {
			t.Errorf("round trip = %v; want [1 3 5]", got)
		}
	})
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 500},
		{-5, 500},
		{501, 500},
		{50, 50},
	}
	for _, c := range cases {
		if got := clampLimit(c.in); got != c.want {
			t.Errorf("clampLimit(%d) = %d; want %d", c.in, got, c.want)
		}
	}
}
