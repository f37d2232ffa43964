package logger

import (
	"fmt"
	"sync"
)

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// Logger defines the interface for logging
type Logger interface {
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Entry is a log line captured by MockLogger
type Entry struct {
	Level   string
	Message string
	Fields  []Field
}

// MockLogger prints to stdout and keeps every entry so tests can assert on them.
type MockLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// Info logs an info message
func (ml *MockLogger) Info(msg string, fields ...Field) {
	ml.log("INFO", msg, fields)
}

// Warn logs a warning message
func (ml *MockLogger) Warn(msg string, fields ...Field) {
	ml.log("WARN", msg, fields)
}

// Error logs an error message
func (ml *MockLogger) Error(msg string, fields ...Field) {
	ml.log("ERROR", msg, fields)
}

// Entries returns the captured entries for the given level, or all of them when level is empty
func (ml *MockLogger) Entries(level string) []Entry {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	out := make([]Entry, 0, len(ml.entries))
	for _, e := range ml.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (ml *MockLogger) log(level, msg string, fields []Field) {
	ml.mu.Lock()
	ml.entries = append(ml.entries, Entry{Level: level, Message: msg, Fields: fields})
	ml.mu.Unlock()

	fmt.Print("[" + level + "] " + msg)
	if len(fields) > 0 {
		fmt.Print(" [")
		for i, f := range fields {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Printf("%s=%v", f.Key, f.Value)
		}
		fmt.Print("]")
	}
	fmt.Println()
}
