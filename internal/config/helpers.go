package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func defaultString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func mergeString(field *string, overlay string) {
	if overlay != "" {
		*field = overlay
	}
}

// envString overrides field with the first non-empty variable in names.
func envString(field *string, names ...string) {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			*field = v
			return
		}
	}
}

func envList(field *[]string, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*field = out
}

func mustDuration(v string) time.Duration {
	d, _ := time.ParseDuration(v)
	return d
}

func positiveDuration(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive: %s", v)
	}
	return nil
}
