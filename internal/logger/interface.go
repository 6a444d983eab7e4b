// Package logger provides the structured logger shared by the pipeline,
// the labeler and the tool server.
package logger

// Logger provides structured logging with a component name and free-form
// fields. Implementations must tolerate a nil fields map.
type Logger interface {
	Info(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Debug(component, message string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, string, map[string]interface{})    {}
func (nopLogger) Error(string, error, map[string]interface{})    {}
func (nopLogger) Warning(string, string, map[string]interface{}) {}
func (nopLogger) Debug(string, string, map[string]interface{})   {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}
