package descriptor

import "testing"

func TestIsCloudHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"mydb.xyz123.eu-west-1.rds.amazonaws.com", true},
		{"cluster.abc.redshift.amazonaws.com", true},
		{"some-service.amazonaws.com", true},
		{"myserver.database.windows.net", true},
		{"cluster0.abcde.mongodb.net", true},
		{"abc123.eu-west-1.aws.clickhouse.cloud", true},
		{"db-postgres.db.ondigitalocean.com", true},
		{"ep-cool-darkness-123456.us-east-2.aws.neon.tech", true},
		{"db.abcdefghijkl.supabase.co", true},
		{"gateway01.us-east-1.prod.aws.example.io", true},
		{"proxy-db.internal.example.com", true},
		{"cluster-7.example.org", true},
		{"shard-00-01.example.net", true},

		{"localhost", false},
		{"127.0.0.1", false},
		{"10.0.0.5", false},
		{"::1", false},
		{"db.internal", false},
		{"prod-postgres.company.lan", false},
		{"", false},
		// Provider names embedded mid-host are not suffix matches.
		{"amazonaws.com.evil.example", false},
	}

	for _, tt := range tests {
		if got := IsCloudHost(tt.host); got != tt.want {
			t.Errorf("IsCloudHost(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestIsCloudHost_CaseAndWhitespace(t *testing.T) {
	if !IsCloudHost("  MyDB.XYZ.RDS.AMAZONAWS.COM  ") {
		t.Error("expected case-insensitive, trimmed match")
	}
}
