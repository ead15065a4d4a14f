package config

import (
	"testing"
)

func TestParseJWKSEndpoints(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "empty",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "single pair",
			input: "https://auth.example.com=https://auth.example.com/.well-known/jwks.json",
			want: map[string]string{
				"https://auth.example.com": "https://auth.example.com/.well-known/jwks.json",
			},
		},
		{
			name:  "multiple pairs with whitespace",
			input: "a=1, b=2",
			want:  map[string]string{"a": "1", "b": "2"},
		},
		{
			name:  "malformed pair skipped",
			input: "a=1,nonsense,b=2",
			want:  map[string]string{"a": "1", "b": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseJWKSEndpoints(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d endpoints, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("endpoint %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestLoad_RequiresCredentialsKey(t *testing.T) {
	t.Setenv("AUTH_ENABLE_VERIFICATION", "false")
	t.Setenv("CREDENTIALS_KEY", "")

	if _, err := Load("test"); err == nil {
		t.Fatal("expected error when CREDENTIALS_KEY is unset")
	}
}

func TestLoad_RequiresJWKSWhenVerificationEnabled(t *testing.T) {
	t.Setenv("AUTH_ENABLE_VERIFICATION", "true")
	t.Setenv("JWKS_ENDPOINTS", "")
	t.Setenv("CREDENTIALS_KEY", "test-key")

	if _, err := Load("test"); err == nil {
		t.Fatal("expected error when verification is on without JWKS endpoints")
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("AUTH_ENABLE_VERIFICATION", "false")
	t.Setenv("CREDENTIALS_KEY", "test-key")
	t.Setenv("PORT", "9191")
	t.Setenv("PGDATABASE", "broker_test")

	cfg, err := Load("1.2.3")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != "1.2.3" {
		t.Errorf("Version = %q", cfg.Version)
	}
	if cfg.Port != "9191" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Store.Database != "broker_test" {
		t.Errorf("Store.Database = %q", cfg.Store.Database)
	}
	if cfg.Broker.DisconnectDelayMillis != 1000 {
		t.Errorf("DisconnectDelayMillis = %d", cfg.Broker.DisconnectDelayMillis)
	}
}
