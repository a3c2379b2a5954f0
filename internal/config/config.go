package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxUploadMB  int

	SchemaFile string  // target schema YAML; empty selects the built-in schema
	Threshold  float64 // default acceptance threshold for assignments
	MultiDelim string  // secondary in-field delimiter for multivalue columns
	EmbedDim   int     // embedding vector dimensionality
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8084"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "256"))
	dim, _ := strconv.Atoi(getenv("EMBED_DIM", "256"))
	threshold, err := strconv.ParseFloat(getenv("MATCH_THRESHOLD", "0.72"), 64)
	if err != nil || threshold <= 0 || threshold > 1 {
		threshold = 0.72
	}
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFile:      getenv("LOG_FILE", "logs/fieldmap-service.log"),
		MaxUploadMB:  mb,
		SchemaFile:   getenv("SCHEMA_FILE", ""),
		Threshold:    threshold,
		MultiDelim:   getenv("MULTI_DELIM", "||"),
		EmbedDim:     dim,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
