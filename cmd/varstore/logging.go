package main

import (
	"fmt"

	"github.com/loykin/varstore/internal/common"
	"github.com/loykin/varstore/internal/util"
)

// setupLogging installs the process-wide logger described by s.
func setupLogging(s Settings) error {
	level, ok := common.ParseLogLevel(s.LogLevel)
	if !ok {
		return fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", s.LogLevel)
	}

	var logger *common.Logger
	format := util.TrimAndLower(s.LogFormat)
	switch format {
	case "json":
		logger = common.NewJSONLogger(level)
	case "color", "colour":
		logger = common.NewColorLogger(level)
	case "text", "":
		logger = common.NewLogger(level)
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json, color)", s.LogFormat)
	}

	logger.EnableMasking(s.MaskSensitive)
	common.EnableMasking(s.MaskSensitive)
	common.SetDefaultLogger(logger)

	logger.Debug("logging configured",
		"level", level.String(),
		"format", format,
		"mask_sensitive", s.MaskSensitive)
	return nil
}
