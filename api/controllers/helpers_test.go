package controllers

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/zachbush96/treelead-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}
