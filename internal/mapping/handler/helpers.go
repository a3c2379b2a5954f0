package handler

import (
	"math"
	"strconv"
	"strings"

	"fieldmap-service/internal/ingest"
)

func ingestProfiles(t *ingest.Table) []ingest.ColumnProfile {
	return ingest.Profile(t)
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func toFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f > 1 {
		return def
	}
	return f
}
