// Package config loads daemon configuration from TALLY_* environment
// variables.
//
// # Overview
//
// LoadConfig reads every setting, applies defaults and validates the
// result:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The zero-config happy path serves on :8080 and only requires
// TALLY_POSTGRES_URL and TALLY_MANIFEST_PATH. Optional Redis caching,
// manifest watching and OpenTelemetry export are switched on by their own
// variables.
package config
