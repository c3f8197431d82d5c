package config

// Config represents the main configuration structure
type Config struct {
	Subject   SubjectConfig   `yaml:"subject" mapstructure:"subject"`
	Redaction RedactionConfig `yaml:"redaction" mapstructure:"redaction"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// SubjectConfig identifies the subject whose files are being de-identified.
// MiddleNames is underscore-delimited so a single value can carry several
// independent match candidates (e.g. "Paul_Angelina").
type SubjectConfig struct {
	Code        string `yaml:"code" mapstructure:"code"`
	CodePattern string `yaml:"code_pattern" mapstructure:"code_pattern"`
	FirstName   string `yaml:"first_name" mapstructure:"first_name"`
	MiddleNames string `yaml:"middle_names" mapstructure:"middle_names"`
	LastName    string `yaml:"last_name" mapstructure:"last_name"`
}

// RedactionConfig controls the annotation redaction engine. Header
// scrubbing always runs; only the annotation pass is toggleable.
type RedactionConfig struct {
	Annotations   bool     `yaml:"annotations" mapstructure:"annotations"`
	NameAction    string   `yaml:"name_action" mapstructure:"name_action"`
	PronounAction string   `yaml:"pronoun_action" mapstructure:"pronoun_action"`
	PatternAction string   `yaml:"pattern_action" mapstructure:"pattern_action"`
	Pronouns      []string `yaml:"pronouns" mapstructure:"pronouns"`
	Patterns      []string `yaml:"patterns" mapstructure:"patterns"`
	WhitelistPath string   `yaml:"whitelist_path" mapstructure:"whitelist_path"`
}

// SessionConfig controls batch processing of one subject session.
type SessionConfig struct {
	InputDir            string `yaml:"input_dir" mapstructure:"input_dir"`
	OutputDir           string `yaml:"output_dir" mapstructure:"output_dir"`
	Epoch               string `yaml:"epoch" mapstructure:"epoch"`
	PartialRecordPolicy string `yaml:"partial_record_policy" mapstructure:"partial_record_policy"`
	Workers             int    `yaml:"workers" mapstructure:"workers"`
	DryRun              bool   `yaml:"dry_run" mapstructure:"dry_run"`
	Manifest            bool   `yaml:"manifest" mapstructure:"manifest"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// DefaultSubjectCodePattern matches RAM-style subject codes such as R1001E:
// three digits for the subject number, one letter for the hospital code.
const DefaultSubjectCodePattern = `^R1\d{3}[ACDEFHJMNPST]$`

// DefaultEpoch is the EDF clipping date, the conventional de-identified
// time base for shifted recordings.
const DefaultEpoch = "1985-01-01"

// DefaultPronouns lists the gendered pronouns dropped from annotations.
func DefaultPronouns() []string {
	return []string{
		"he", "him", "his", "himself",
		"she", "her", "hers", "herself",
	}
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	return &Config{
		Subject: SubjectConfig{
			CodePattern: DefaultSubjectCodePattern,
		},
		Redaction: RedactionConfig{
			Annotations:   true,
			NameAction:    "blank",
			PronounAction: "drop",
			PatternAction: "drop",
			Pronouns:      DefaultPronouns(),
		},
		Session: SessionConfig{
			Epoch:               DefaultEpoch,
			PartialRecordPolicy: "zero-pad",
			Workers:             4,
			Manifest:            true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
