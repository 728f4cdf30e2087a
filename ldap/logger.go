package ldap

import (
	"time"

	"go.uber.org/zap"
)

// logOperation runs fn and logs its outcome with timing.
func logOperation(log *zap.Logger, operation string, fn func() error) error {
	start := time.Now()

	log.Debug("starting operation", zap.String("operation", operation))

	err := fn()

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Duration("duration", time.Since(start)),
	}

	if err != nil {
		log.Error("operation failed", append(fields, zap.Error(err))...)
	} else {
		log.Debug("operation completed", fields...)
	}

	return err
}
