package clickhouse

import (
	"errors"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	"github.com/harbordata/dbbroker/pkg/apperrors"
	"github.com/harbordata/dbbroker/pkg/models"
)

func TestOptions_Local(t *testing.T) {
	spec := &engine.ConnSpec{
		ServerType: models.ServerLocal,
		Host:       "ch.internal",
		Port:       "8123",
		Username:   "reader",
		Password:   "hunter2",
		Database:   "events",
	}
	opts, err := options(spec)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Protocol != clickhouse.HTTP {
		t.Errorf("protocol = %v, want HTTP", opts.Protocol)
	}
	if len(opts.Addr) != 1 || opts.Addr[0] != "ch.internal:8123" {
		t.Errorf("addr = %v", opts.Addr)
	}
	if opts.Auth.Database != "events" || opts.Auth.Username != "reader" || opts.Auth.Password != "hunter2" {
		t.Errorf("auth = %+v", opts.Auth)
	}
	if opts.TLS != nil {
		t.Error("TLS configured without SSL requested")
	}

	spec.SSL = true
	opts, _ = options(spec)
	if opts.TLS == nil {
		t.Error("TLS not configured with SSL requested")
	}
}

func TestOptions_LocalhostRewritten(t *testing.T) {
	spec := &engine.ConnSpec{
		ServerType: models.ServerLocal,
		Host:       "Localhost",
		Port:       "8123",
	}
	opts, err := options(spec)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr[0] != "127.0.0.1:8123" {
		t.Errorf("addr = %v, want 127.0.0.1:8123", opts.Addr)
	}
	if opts.Auth.Database != "default" {
		t.Errorf("database = %q, want default", opts.Auth.Database)
	}
}

func TestOptions_ExternalInvalid(t *testing.T) {
	spec := &engine.ConnSpec{
		ServerType:       models.ServerExternal,
		ConnectionString: "://not-a-dsn",
	}
	if _, err := options(spec); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDatabaseOrDefault(t *testing.T) {
	if got := databaseOrDefault(""); got != "default" {
		t.Errorf("empty = %q", got)
	}
	if got := databaseOrDefault("events"); got != "events" {
		t.Errorf("named = %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code int32
		want apperrors.EngineErrorKind
	}{
		{"authentication failed", 516, apperrors.KindAuthFailed},
		{"unknown database", 81, apperrors.KindDatabaseMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(&clickhouse.Exception{Code: tt.code, Message: "server says no"})
			if kind := apperrors.EngineErrorKindOf(err); kind != tt.want {
				t.Errorf("kind = %q, want %q", kind, tt.want)
			}
		})
	}
}

func TestClassify_UnrecognizedPassesThrough(t *testing.T) {
	err := classify(errors.New("malformed response"))
	if kind := apperrors.EngineErrorKindOf(err); kind != apperrors.KindUnclassified {
		t.Errorf("kind = %q, want unclassified", kind)
	}
	if err.Error() != "malformed response" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestIsSecure(t *testing.T) {
	local := &engine.ConnSpec{ServerType: models.ServerLocal, SSL: true}
	if !isSecure(local, &clickhouse.Options{}) {
		t.Error("local with SSL reported insecure")
	}

	ext := &engine.ConnSpec{
		ServerType:       models.ServerExternal,
		ConnectionString: "https://reader:pw@ch.example.com:8443/events",
	}
	if !isSecure(ext, &clickhouse.Options{}) {
		t.Error("https connection string reported insecure")
	}
	ext.ConnectionString = "http://reader:pw@ch.example.com:8123/events"
	if isSecure(ext, &clickhouse.Options{}) {
		t.Error("http connection string reported secure")
	}
}
