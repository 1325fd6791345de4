package logging

import "go.uber.org/zap"

// Init builds the process-wide zap logger and installs it as the global.
func Init() *zap.SugaredLogger {
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)
	return logger.Sugar()
}
