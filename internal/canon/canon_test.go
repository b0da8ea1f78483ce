package canon

import "testing"

func TestMarshalSortsKeys(t *testing.T) {
	fields := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"nested": map[string]any{
			"z": 1,
			"a": 2,
		},
	}

	got, err := Marshal(fields)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"alpha":2,"nested":{"a":2,"z":1},"zebra":1}`
	if string(got) != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	fields := map[string]any{
		"sender":   "abc",
		"receiver": "def",
		"quantity": 12.5,
	}

	first, err := Marshal(fields)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(fields)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("Marshal is not deterministic: %s != %s", again, first)
		}
	}
}

func TestMarshalNoInsignificantWhitespace(t *testing.T) {
	got, err := Marshal(map[string]any{"a": 1, "b": []any{1, 2, 3}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"a":1,"b":[1,2,3]}`
	if string(got) != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}
}

func TestMarshalHTMLNotEscaped(t *testing.T) {
	got, err := Marshal(map[string]any{"location": "Truck & Trailer <A>"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"location":"Truck & Trailer <A>"}`
	if string(got) != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}
}

func TestMarshalNullForMissingOptional(t *testing.T) {
	got, err := Marshal(map[string]any{"good_id": nil, "quantity": nil})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"good_id":null,"quantity":null}`
	if string(got) != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}
}
