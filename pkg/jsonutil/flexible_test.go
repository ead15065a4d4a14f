package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestPort_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "string port", input: `"5432"`, want: "5432"},
		{name: "numeric port", input: `5432`, want: "5432"},
		{name: "null", input: `null`, want: ""},
		{name: "float passes through for validation", input: `3.14`, want: "3.14"},
		{name: "boolean passes through for validation", input: `true`, want: "true"},
		{name: "large integer preserves precision", input: `9007199254740992`, want: "9007199254740992"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Port
			if err := p.UnmarshalJSON([]byte(tt.input)); err != nil {
				t.Fatalf("UnmarshalJSON(%s): %v", tt.input, err)
			}
			if p.String() != tt.want {
				t.Errorf("Port from %s = %q, want %q", tt.input, p, tt.want)
			}
		})
	}
}

func TestPort_OmittedFieldStaysEmpty(t *testing.T) {
	var body struct {
		Port Port `json:"port"`
	}
	if err := json.Unmarshal([]byte(`{}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Port != "" {
		t.Errorf("omitted port = %q, want empty", body.Port)
	}
}
