package core

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

/*
===============================================================================
    Configuration
===============================================================================
*/

// Config represents the application configuration
type Config struct {
	// LogLevel is one of the levels accepted by `SetLoggingLevel`.
	LogLevel string
	// LogFormat selects "console" or "json" output for the default logger.
	LogFormat string
	// OpenFileLimit restricts the number of concurrently open files
	// when walking directories.
	OpenFileLimit int
	/* By enabling `StrictMode`, the parser will reject DICOM inputs which
	   contain an element with a value length exceeding the remaining buffer,
	   for example incomplete Pixel Data. Otherwise the element is logged and
	   reading stops at that point.
	*/
	StrictMode bool
	// Dialects are applied to every load that does not pass its own.
	Dialects Dialects

	// do not access / write `_set`. It is used internally.
	_set bool
}

// intFromEnv retrieves `key` from the OS environment.
// if the key is not found, or cannot be expressed as an integer,
// `found` will be false.
func intFromEnv(key string) (val int, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		found = false
	}
	return
}

func intFromEnvDefault(key string, def int) (val int) {
	val, found := intFromEnv(key)
	if !found {
		val = def
	}
	return
}

func strFromEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func strFromEnvDefault(key string, def string) (val string) {
	val, found := strFromEnv(key)
	if !found {
		val = def
	}
	return
}

func boolFromEnv(key string) (val bool, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		found = false
	}
	return
}

func boolFromEnvDefault(key string, def bool) (val bool) {
	val, found := boolFromEnv(key)
	if !found {
		val = def
	}
	return
}

var (
	configMu sync.Mutex
	config   Config
)

// GetConfig returns the application configuration.
// Will set from environment if not already set.
func GetConfig() Config {
	configMu.Lock()
	defer configMu.Unlock()
	if !config._set {
		config.OpenFileLimit = intFromEnvDefault("ISIS_OPENFILELIMIT", 64)
		if config.OpenFileLimit < 1 {
			config.OpenFileLimit = 1
		}
		config.StrictMode = boolFromEnvDefault("ISIS_STRICTMODE", false)
		config.LogFormat = strings.ToLower(strFromEnvDefault("ISIS_LOGFORMAT", "console"))
		config.Dialects = ParseDialects(strFromEnvDefault("ISIS_DIALECTS", ""))
		config.LogLevel = strings.ToLower(strFromEnvDefault("ISIS_LOGLEVEL", "info"))
		if !SetLoggingLevel(config.LogLevel) {
			panic(`Invalid "ISIS_LOGLEVEL". Choose from "debug", "info", "warn", "error", "fatal", or "none".`)
		}
		if config.LogFormat == "json" {
			SetLogger(NewJSONLogger(os.Stderr))
		}
		config._set = true
	}
	return config
}

// OverrideConfig overrides the configuration parsed from environment with the one provided
func OverrideConfig(newconfig Config) {
	if !newconfig._set { // to prevent being reverted with subsequent calls to `GetConfig`
		newconfig._set = true
	}
	if newconfig.LogLevel != "" {
		SetLoggingLevel(newconfig.LogLevel)
	}
	configMu.Lock()
	config = newconfig
	configMu.Unlock()
}
