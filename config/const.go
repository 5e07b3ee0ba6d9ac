package config

import "strings"

// AppVersion is the version of the application, set at build time.
var AppVersion = "dev"

// AppName is the name of the application.
const AppName = "imgedit"

// LogWinSubDir is the sub directory for the log files on windows.
var LogWinSubDir = AppName

// LogSubDir is the sub directory for the log files.
var LogSubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// FileName is the name of the configuration file inside the config directory.
const FileName = "config.toml"

// Defaults applied to missing configuration values.
const (
	DefaultUndoDepth   = 10
	DefaultJPEGQuality = 95
	DefaultWebPQuality = 90
	DefaultMinCropSize = 10
)

// DefaultIconSizes are the frame sizes written to .ico files.
var DefaultIconSizes = []int{16, 32, 48, 64, 128, 256}
