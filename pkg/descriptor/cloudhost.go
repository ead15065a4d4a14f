package descriptor

import (
	"net"
	"regexp"
	"strings"
)

// Domain suffixes of managed/cloud database providers. A local descriptor
// pointing at one of these is almost certainly a misconfigured external
// connection, so the adapter layer refuses to test it as local.
var cloudHostSuffixes = []string{
	// AWS
	".rds.amazonaws.com",
	".redshift.amazonaws.com",
	".amazonaws.com",
	// GCP
	".cloud.google.com",
	".gcp.cloud",
	// Azure
	".database.windows.net",
	".database.azure.com",
	".azure.com",
	// DigitalOcean
	".db.ondigitalocean.com",
	".ondigitalocean.com",
	// Common managed offerings
	".mongodb.net",
	".clickhouse.cloud",
	".aivencloud.com",
	".supabase.co",
	".neon.tech",
	".cockroachlabs.cloud",
	".psdb.cloud",
	".planetscale.com",
	".render.com",
}

// Generic naming patterns used by managed gateways and sharded clusters.
var cloudHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^gateway0\d+\.`),
	regexp.MustCompile(`^proxy-`),
	regexp.MustCompile(`^cluster-`),
	regexp.MustCompile(`^shard-`),
}

// IsCloudHost reports whether host looks like a managed/cloud database
// endpoint. Bare IP addresses and unmatched names return false. Pure
// function, no DNS lookups.
func IsCloudHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return false
	}
	if net.ParseIP(h) != nil {
		return false
	}
	for _, suffix := range cloudHostSuffixes {
		if strings.HasSuffix(h, suffix) {
			return true
		}
	}
	for _, pattern := range cloudHostPatterns {
		if pattern.MatchString(h) {
			return true
		}
	}
	return false
}
