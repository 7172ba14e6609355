package logger

// CronLogger adapts Logger to the cron.Logger interface
type CronLogger struct {
	l *Logger
}

// NewCronLogger wraps l for robfig/cron
func NewCronLogger(l *Logger) CronLogger {
	return CronLogger{l: l}
}

// Info logs routine scheduler activity at debug level
func (c CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.WithFields(kvFields(keysAndValues)).Debug(msg)
}

// Error logs scheduler failures
func (c CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.WithFields(kvFields(keysAndValues)).ErrorWithErr(err, msg)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
