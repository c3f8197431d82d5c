package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ValidationError marks a configuration problem detected before any file
// is touched. The whole batch aborts on it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Load loads configuration from file and environment variables. Flag
// overrides are applied by the caller before Validate runs.
func Load(configPath string) (*Config, error) {
	// Set defaults
	config := GetDefaults()

	// Configure viper
	viper.SetConfigName("edfanon")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.edfanon/")
	viper.AddConfigPath("/etc/edfanon/")

	// Environment variable overrides
	viper.SetEnvPrefix("EDFANON")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Use specific config file if provided
	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// Validate performs every up-front check: subject code format, required
// name parts, action and policy enums, epoch syntax, custom regex
// compilation. Anything wrong here must surface before the first file is
// opened, because batch runs are expensive to restart mid-way.
func (c *Config) Validate() error {
	if c.Subject.Code == "" {
		return invalid("subject.code", "subject code is required")
	}
	if strings.Contains(c.Subject.Code, "_") {
		return invalid("subject.code", "subject-montage codes (e.g. %s_1) are not supported", strings.SplitN(c.Subject.Code, "_", 2)[0])
	}
	pattern := c.Subject.CodePattern
	if pattern == "" {
		pattern = DefaultSubjectCodePattern
	}
	codeRE, err := regexp.Compile(pattern)
	if err != nil {
		return invalid("subject.code_pattern", "bad pattern %q: %v", pattern, err)
	}
	if !codeRE.MatchString(c.Subject.Code) {
		return invalid("subject.code", "%q does not match expected pattern %s", c.Subject.Code, pattern)
	}

	if c.Subject.FirstName == "" {
		return invalid("subject.first_name", "first name is required")
	}
	if c.Subject.LastName == "" {
		return invalid("subject.last_name", "last name is required")
	}

	for _, field := range []struct{ name, value string }{
		{"redaction.name_action", c.Redaction.NameAction},
		{"redaction.pronoun_action", c.Redaction.PronounAction},
		{"redaction.pattern_action", c.Redaction.PatternAction},
	} {
		switch field.value {
		case "pass", "blank", "drop":
		default:
			return invalid(field.name, "%q is not one of pass, blank, drop", field.value)
		}
	}

	for _, pattern := range c.Redaction.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return invalid("redaction.patterns", "bad pattern %q: %v", pattern, err)
		}
	}

	if c.Session.InputDir == "" {
		return invalid("session.input_dir", "input directory is required")
	}
	if c.Session.OutputDir == "" {
		return invalid("session.output_dir", "output directory is required")
	}
	if c.Session.OutputDir == c.Session.InputDir {
		return invalid("session.output_dir", "must differ from input directory to avoid overwriting originals")
	}

	if _, err := c.Epoch(); err != nil {
		return invalid("session.epoch", "%v", err)
	}

	switch c.Session.PartialRecordPolicy {
	case "drop", "zero-pad":
	default:
		return invalid("session.partial_record_policy", "%q is not one of drop, zero-pad", c.Session.PartialRecordPolicy)
	}

	if c.Session.Workers < 1 {
		return invalid("session.workers", "must be at least 1, got %d", c.Session.Workers)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", "%q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return invalid("logging.format", "%q is not one of json, console", c.Logging.Format)
	}

	return nil
}

// Epoch parses the configured de-identified base date. Both a bare date
// and a full timestamp are accepted. Years outside 1985-2084 are rejected
// here because two-digit EDF start dates cannot represent them; catching
// that after files started writing would waste a batch.
func (c *Config) Epoch() (time.Time, error) {
	value := c.Session.Epoch
	if value == "" {
		value = DefaultEpoch
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05"} {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if t.Year() < 1985 || t.Year() > 2084 {
			return time.Time{}, fmt.Errorf("epoch year %d outside the representable range 1985-2084", t.Year())
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable epoch %q (want YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)", value)
}
