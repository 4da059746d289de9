package history

import (
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// verboseWriter routes gorm's log lines to Logger.Verbose.
type verboseWriter struct {
	logger shpload.Logger
}

func (w verboseWriter) Printf(format string, args ...interface{}) {
	w.logger.Verbose(format, args...)
}

func newGormLogger(logger shpload.Logger) gormlogger.Interface {
	return gormlogger.New(verboseWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
