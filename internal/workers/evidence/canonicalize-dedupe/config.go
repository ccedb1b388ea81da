// internal/workers/evidence/canonicalize-dedupe/config.go
package canonicalizededupe

type Config struct {
	// TrackingParams are dropped from query strings, matched case-insensitively.
	// Entries ending in "*" match by prefix.
	TrackingParams []string
}

func LoadConfig() *Config {
	return &Config{
		TrackingParams: DefaultTrackingParams(),
	}
}

func DefaultTrackingParams() []string {
	return []string{
		"utm_*",
		"gclid",
		"fbclid",
		"msclkid",
		"dclid",
		"yclid",
		"mc_cid",
		"mc_eid",
		"_hsenc",
		"_hsmi",
		"igshid",
		"ref",
		"ref_src",
	}
}
