package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

type Config struct {
	// Level selects the minimum level that gets emitted.
	// Unrecognized values fall back to INFO.
	Level string `yaml:"level" envconfig:"SESSIONLOCK_LOGGER_LEVEL"`

	// Service is attached to every log entry as the "service" field.
	Service string `yaml:"service" envconfig:"SESSIONLOCK_LOGGER_SERVICE"`
}
