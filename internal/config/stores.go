package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/usestring/storeschema-mcp/pkg/keypattern"
)

// StoreKind names a supported store driver.
type StoreKind string

const (
	KindRedis    StoreKind = "redis"
	KindSQLite   StoreKind = "sqlite"
	KindS3       StoreKind = "s3"
	KindMongoDB  StoreKind = "mongodb"
	KindPostgres StoreKind = "postgres"
)

// Kinds lists the supported store kinds.
var Kinds = []StoreKind{KindRedis, KindSQLite, KindS3, KindMongoDB, KindPostgres}

// StoreConfig describes one named store in the catalog.
type StoreConfig struct {
	Name        string    `yaml:"name" json:"name"`
	Kind        StoreKind `yaml:"kind" json:"kind"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`

	// Connection URL (redis, mongodb, postgres).
	URL string `yaml:"url,omitempty" json:"-"`

	// Redis
	Match string `yaml:"match,omitempty" json:"match,omitempty"`

	// MongoDB
	Database    string   `yaml:"database,omitempty" json:"database,omitempty"`
	Collections []string `yaml:"collections,omitempty" json:"collections,omitempty"`

	// PostgreSQL schema holding the JSON columns (default "public").
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`

	// S3
	Bucket          string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Prefix          string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"-"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"-"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty" json:"use_path_style,omitempty"`

	// SQLite key/value table
	Path        string `yaml:"path,omitempty" json:"path,omitempty"`
	Table       string `yaml:"table,omitempty" json:"table,omitempty"`
	KeyColumn   string `yaml:"key_column,omitempty" json:"key_column,omitempty"`
	ValueColumn string `yaml:"value_column,omitempty" json:"value_column,omitempty"`

	// Separator heuristics for flat key stores.
	Separator keypattern.SeparatorOptions `yaml:",inline" json:"-"`
}

// StoresFile is the on-disk catalog layout.
type StoresFile struct {
	Stores []StoreConfig `yaml:"stores"`
}

var (
	envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)
	sqlIdentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} references. An unset or
// empty variable without a default expands to "". Bare $VAR is left alone.
func ExpandEnv(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRefPattern.FindStringSubmatch(ref)
		if v, ok := os.LookupEnv(m[1]); ok && v != "" {
			return v
		}
		return m[3]
	})
}

// LoadStores reads, expands and validates a stores catalog.
func LoadStores(path string) ([]StoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stores file: %w", err)
	}
	return ParseStores(data)
}

// ParseStores parses catalog YAML after environment substitution.
func ParseStores(data []byte) ([]StoreConfig, error) {
	var file StoresFile
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("parsing stores YAML: %w", err)
	}

	return NormalizeStores(file.Stores)
}

// NormalizeStores applies per-kind defaults to a copy of stores and
// validates the result.
func NormalizeStores(stores []StoreConfig) ([]StoreConfig, error) {
	out := make([]StoreConfig, len(stores))
	for i, s := range stores {
		applyStoreDefaults(&s)
		out[i] = s
	}
	if err := ValidateStores(out); err != nil {
		return nil, err
	}
	return out, nil
}

func applyStoreDefaults(s *StoreConfig) {
	s.Kind = StoreKind(strings.ToLower(string(s.Kind)))
	switch s.Kind {
	case KindSQLite:
		if s.KeyColumn == "" {
			s.KeyColumn = "key"
		}
		if s.ValueColumn == "" {
			s.ValueColumn = "value"
		}
	case KindPostgres:
		if s.Schema == "" {
			s.Schema = "public"
		}
	case KindS3:
		if s.Region == "" {
			s.Region = "us-east-1"
		}
	}
}

// ValidateStores checks names, kinds and the fields each kind requires.
func ValidateStores(stores []StoreConfig) error {
	var errs []error
	seen := make(map[string]bool, len(stores))

	for i, s := range stores {
		label := fmt.Sprintf("store %d", i)
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		} else {
			label = fmt.Sprintf("store %q", s.Name)
			if seen[s.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate name", label))
			}
			seen[s.Name] = true
		}

		require := func(field, value string) {
			if value == "" {
				errs = append(errs, fmt.Errorf("%s: %s is required for kind %s", label, field, s.Kind))
			}
		}
		ident := func(field, value string) {
			if value != "" && !sqlIdentRegex.MatchString(value) {
				errs = append(errs, fmt.Errorf("%s: %s %q is not a valid SQL identifier", label, field, value))
			}
		}

		switch s.Kind {
		case KindRedis:
			require("url", s.URL)
		case KindMongoDB:
			require("url", s.URL)
			require("database", s.Database)
		case KindPostgres:
			require("url", s.URL)
			ident("schema", s.Schema)
		case KindSQLite:
			require("path", s.Path)
			require("table", s.Table)
			ident("table", s.Table)
			ident("key_column", s.KeyColumn)
			ident("value_column", s.ValueColumn)
		case KindS3:
			require("bucket", s.Bucket)
		case "":
			errs = append(errs, fmt.Errorf("%s: kind is required", label))
		default:
			errs = append(errs, fmt.Errorf("%s: unknown kind %q", label, s.Kind))
		}
	}

	return errors.Join(errs...)
}
