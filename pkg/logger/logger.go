package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with clinic-specific helpers
type Logger struct {
	*logrus.Logger
	service string
}

// New creates a new logger instance for the named service
func New(service, level string) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	return &Logger{Logger: log, service: service}
}

// WithFields creates a new logger entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError creates a new logger entry with an error field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithOperation creates a new logger entry tagged with a mutation name
func (l *Logger) WithOperation(operation string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"service":   l.service,
		"operation": operation,
	})
}

// WithRequestID creates a new logger entry with a request ID field
func (l *Logger) WithRequestID(requestID string) *logrus.Entry {
	return l.Logger.WithField("request_id", requestID)
}

// Audit logs mutation outcomes in a structured, filterable format.
// Every create/clear/dismiss/edit emits one of these.
func (l *Logger) Audit(actorID, action, resourceID string, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"audit":       true,
		"actor_id":    actorID,
		"action":      action,
		"resource_id": resourceID,
		"success":     success,
		"details":     details,
	})

	if success {
		entry.Info("Audit event")
	} else {
		entry.Warn("Audit event failed")
	}
}

// ClinicalSafety logs events on the dosing-hold safety path. These are
// always emitted at warn so they survive production log filtering.
func (l *Logger) ClinicalSafety(event, patientID, holdID string, details map[string]interface{}) {
	l.Logger.WithFields(logrus.Fields{
		"clinical_safety": true,
		"event":           event,
		"patient_id":      patientID,
		"hold_id":         holdID,
		"details":         details,
	}).Warn("Clinical safety event")
}

// RegistryCall logs a collaborator request outcome
func (l *Logger) RegistryCall(method, path string, statusCode int, durationMS int64, err error) {
	entry := l.Logger.WithFields(logrus.Fields{
		"registry":    true,
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": durationMS,
	})

	if err != nil {
		entry.WithError(err).Error("Registry request failed")
	} else if statusCode >= 400 {
		entry.Warn("Registry request returned error status")
	} else {
		entry.Debug("Registry request completed")
	}
}

// HTTPRequest logs served HTTP request events
func (l *Logger) HTTPRequest(method, path, remoteAddr string, statusCode int, durationMS int64) {
	entry := l.Logger.WithFields(logrus.Fields{
		"http_request": true,
		"method":       method,
		"path":         path,
		"remote_addr":  remoteAddr,
		"status_code":  statusCode,
		"duration_ms":  durationMS,
	})

	if statusCode >= 400 {
		entry.Warn("HTTP request completed with error")
	} else {
		entry.Info("HTTP request completed")
	}
}
