package types

import "time"

// LogSource is one monitored component and the log group backing it
type LogSource struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	LogGroup string `json:"log_group" yaml:"log_group" mapstructure:"log_group"` // Log group name or ARN
	Color    string `json:"color,omitempty" yaml:"color,omitempty" mapstructure:"color"`
}

// LogStreamPointer identifies the most recently active stream of a log group.
// It is resolved fresh every cycle.
type LogStreamPointer struct {
	LogGroup      string    `json:"log_group"`
	StreamName    string    `json:"stream_name"`
	LastEventTime time.Time `json:"last_event_time"`
}

// LogRecord represents a single log event
type LogRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Stream    string    `json:"stream"`
}
