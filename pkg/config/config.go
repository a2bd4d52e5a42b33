// Package config reads angles settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"strings"

	"angles/pkg/dbmanager"
	"angles/pkg/engine"
	"angles/pkg/fastjson"
	"angles/pkg/mappers"
	"angles/pkg/transpiler"
	"angles/pkg/utils/coerce"

	"github.com/joho/godotenv"
)

// Values of DefaultMapper.
const (
	DefaultMapperInclude = "include"
	DefaultMapperNone    = "none"
)

type Config struct {
	Env  string
	Port string

	TagPrefix       string
	AttributePrefix string
	WrapperPrefix   string
	ExplicitOnly    bool
	LowerCaseTag    bool
	KebabCaseTag    bool
	SlotsEnabled    bool
	DefaultMapper   string
	Mappers         map[string]string
	ThirdParty      []string

	TemplateDirs []string
	Extension    string
	Cache        bool

	RateLimitRequests int
	RateLimitWindow   int // seconds
	JWTSecret         string
	CSRFKey           string
	Compression       bool

	DBDriver string
	DBDSN    string
	DBTable  string
}

// Default returns the built-in settings.
func Default() Config {
	opts := transpiler.DefaultOptions()
	return Config{
		Env:             "development",
		Port:            "8080",
		TagPrefix:       opts.TagPrefix,
		AttributePrefix: opts.AttributePrefix,
		WrapperPrefix:   opts.WrapperPrefix,
		KebabCaseTag:    opts.Tag.KebabCase,
		DefaultMapper:   DefaultMapperInclude,
		TemplateDirs:    []string{"templates"},
		Extension:       opts.Extension,
		Cache:           true,
		RateLimitWindow: 60,
		Compression:     true,
		DBTable:         "angles_templates",
	}
}

// Load reads .env (a missing file is fine) and then the process
// environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function shaped like os.LookupEnv.
// Unset variables keep their defaults; a prefix variable set to the empty
// string is honoured.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	nonEmpty := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []string
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := coerce.ToBool(v)
			if err != nil {
				errs = append(errs, key+": "+err.Error())
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = coerce.ToIntDef(v, *dst)
		}
	}

	nonEmpty("APP_ENV", &cfg.Env)
	nonEmpty("APP_PORT", &cfg.Port)
	cfg.Port = strings.TrimPrefix(cfg.Port, ":")

	str("ANGLES_TAG_PREFIX", &cfg.TagPrefix)
	str("ANGLES_ATTRIBUTE_PREFIX", &cfg.AttributePrefix)
	str("ANGLES_WRAPPER_PREFIX", &cfg.WrapperPrefix)
	boolean("ANGLES_MAP_EXPLICIT_TAGS_ONLY", &cfg.ExplicitOnly)
	boolean("ANGLES_LOWER_CASE_TAG", &cfg.LowerCaseTag)
	boolean("ANGLES_KEBAB_CASE_TAG", &cfg.KebabCaseTag)
	boolean("ANGLES_SLOTS_ENABLED", &cfg.SlotsEnabled)
	boolean("ANGLES_CACHE", &cfg.Cache)

	if v, ok := lookup("ANGLES_DEFAULT_MAPPER"); ok && v != "" {
		switch v = strings.ToLower(strings.TrimSpace(v)); v {
		case DefaultMapperInclude, DefaultMapperNone:
			cfg.DefaultMapper = v
		default:
			errs = append(errs, fmt.Sprintf("ANGLES_DEFAULT_MAPPER: unknown value %q", v))
		}
	}

	if v, ok := lookup("ANGLES_MAPPERS"); ok && strings.TrimSpace(v) != "" {
		var raw map[string]any
		if err := fastjson.Unmarshal([]byte(v), &raw); err != nil {
			errs = append(errs, "ANGLES_MAPPERS: "+err.Error())
		} else if cfg.Mappers, err = coerce.ToStringMap(raw); err != nil {
			errs = append(errs, "ANGLES_MAPPERS: "+err.Error())
		}
	}

	if v, ok := lookup("ANGLES_THIRD_PARTY_MAPPERS"); ok {
		cfg.ThirdParty = coerce.ToList(v)
	}
	if v, ok := lookup("ANGLES_TEMPLATE_DIRS"); ok && v != "" {
		cfg.TemplateDirs = coerce.ToList(v)
	}
	nonEmpty("ANGLES_TEMPLATE_EXT", &cfg.Extension)

	integer("RATE_LIMIT_REQUESTS", &cfg.RateLimitRequests)
	integer("RATE_LIMIT_WINDOW", &cfg.RateLimitWindow)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("CSRF_TOKEN", &cfg.CSRFKey)
	boolean("COMPRESSION_BROTLI_ENABLED", &cfg.Compression)

	str("DB_DRIVER", &cfg.DBDriver)
	str("DB_DSN", &cfg.DBDSN)
	nonEmpty("DB_TABLE", &cfg.DBTable)
	if cfg.DBDSN == "" && cfg.DBDriver != "" {
		get := func(k string) string { v, _ := lookup(k); return v }
		cfg.DBDSN = dbmanager.BuildDSN(cfg.DBDriver, get("DB_HOST"), get("DB_USER"), get("DB_PASS"), get("DB_NAME"))
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// TranspilerOptions converts the settings for transpiler.New.
func (c Config) TranspilerOptions() transpiler.Options {
	return transpiler.Options{
		TagPrefix:       c.TagPrefix,
		AttributePrefix: c.AttributePrefix,
		WrapperPrefix:   c.WrapperPrefix,
		Extension:       c.Extension,
		ExplicitOnly:    c.ExplicitOnly,
		SlotsEnabled:    c.SlotsEnabled,
		Tag: engine.TagOptions{
			LowerCase: c.LowerCaseTag,
			KebabCase: c.KebabCaseTag,
		},
	}
}

// MapperOptions converts the settings for mappers.NewRegistry.
func (c Config) MapperOptions() mappers.Options {
	return mappers.Options{
		DefaultInclude: c.DefaultMapper == DefaultMapperInclude,
		ThirdParty:     c.ThirdParty,
		Static:         c.Mappers,
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SQLEnabled reports whether a SQL template store is configured.
func (c Config) SQLEnabled() bool {
	return c.DBDriver != "" && c.DBDSN != ""
}
