package common

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/dealmate/agent-backend/common/env"
	"github.com/dealmate/agent-backend/common/logger"
)

var (
	Port   = flag.Int("port", 8000, "the listening port")
	LogDir = flag.String("log-dir", env.String("LOG_DIR", ""), "specify the log directory")
)

var percentEnvPattern = regexp.MustCompile(`%([A-Za-z0-9_]+)%`)

// resolveLogDir expands $VAR and %VAR% references in raw and makes the result absolute.
// Unset %VAR% references are left as written.
func resolveLogDir(raw string) (string, error) {
	expanded := os.ExpandEnv(raw)
	expanded = percentEnvPattern.ReplaceAllStringFunc(expanded, func(match string) string {
		if val, ok := os.LookupEnv(strings.Trim(match, "%")); ok && val != "" {
			return val
		}
		return match
	})

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrapf(err, "resolve log dir %q", raw)
	}
	return abs, nil
}

func Init() {
	flag.Parse()

	if *LogDir == "" {
		return
	}

	lg := logger.Logger.With(zap.String("log_dir", *LogDir))
	dir, err := resolveLogDir(*LogDir)
	if err != nil {
		lg.Fatal("failed to get absolute log dir", zap.Error(err))
	}
	if err = os.MkdirAll(dir, 0o777); err != nil {
		lg.Fatal("failed to create log dir", zap.Error(err), zap.String("resolved", dir))
	}

	lg.Info("set log dir", zap.String("resolved", dir))
	logger.LogDir = dir
	*LogDir = dir
}
