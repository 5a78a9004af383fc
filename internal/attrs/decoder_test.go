package attrs

import (
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want map[string]string
		ok   bool
	}{
		{
			name: "string map",
			in:   map[string]string{"en": "Hello", "tr": "Merhaba"},
			want: map[string]string{"en": "Hello", "tr": "Merhaba"},
			ok:   true,
		},
		{
			name: "any map with string values",
			in:   map[string]any{"en": "Hello"},
			want: map[string]string{"en": "Hello"},
			ok:   true,
		},
		{
			name: "json object string",
			in:   `{"en": "Hello", "tr": "Merhaba"}`,
			want: map[string]string{"en": "Hello", "tr": "Merhaba"},
			ok:   true,
		},
		{
			name: "json object bytes",
			in:   []byte(`{"en": "Hello"}`),
			want: map[string]string{"en": "Hello"},
			ok:   true,
		},
		{name: "plain text", in: "Hello"},
		{name: "json array", in: `["en", "tr"]`},
		{name: "malformed json", in: `{"en": `},
		{name: "non string values", in: map[string]any{"en": 42}},
		{name: "empty map", in: map[string]string{}},
		{name: "blank locale", in: map[string]string{"  ": "Hello"}},
		{name: "nil", in: nil},
		{name: "number", in: 42},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Decode(tc.in)
			if ok != tc.ok {
				t.Fatalf("Decode() ok = %v, want %v", ok, tc.ok)
			}
			if tc.ok && !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Decode() = %v, want %v", got, tc.want)
			}
			if !tc.ok && got != nil {
				t.Fatalf("Decode() returned map %v for non-translatable input", got)
			}
		})
	}
}
