package entry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/winrestore/internal/cli/app"
	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/config"
	"github.com/regenrek/winrestore/internal/identity"
	"github.com/regenrek/winrestore/internal/logging"
)

const configEnv = "WINRESTORE_CONFIG"

// Run starts the CLI and returns the process exit code.
func Run(args []string, version string) int {
	appName := identity.CLIName
	command, configFlag := scanArgs(args)
	mode := logging.ModeFor(command)
	logCfg := logging.Config{}
	if path, err := configPath(configFlag); err == nil && path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: load config: %v\n", appName, err)
			return 1
		}
		logCfg = cfg.Logging
	}
	closeLogger, err := logging.Init(logCfg, logging.InitOptions{
		App:     identity.AppSlug,
		Version: version,
		Mode:    mode,
	})
	if err != nil {
		if mode == logging.ModeDaemon {
			fmt.Fprintf(os.Stderr, "%s: init logging: %v\n", appName, err)
			return 1
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
		slog.Error("init logging failed; using stderr fallback", "err", err)
	} else if closeLogger != nil {
		defer func() { _ = closeLogger() }()
	}

	deps := root.DefaultDependencies(version)
	deps.AppName = appName
	runner, err := app.NewRunner(deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	if err := runner.Run(context.Background(), args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	return 0
}

// scanArgs finds the command name and the --config value ahead of the CLI
// parser so logging is configured before the command runs. --config is the
// only global flag taking a value.
func scanArgs(args []string) (command, configFlag string) {
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return command, configFlag
		case arg == "--config" || arg == "-config":
			if i+1 < len(args) {
				i++
				configFlag = args[i]
			}
		case strings.HasPrefix(arg, "--config="):
			configFlag = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-"):
		case command == "":
			command = arg
		}
	}
	return command, configFlag
}

// configPath resolves the config file the way the --config flag does:
// the flag, then WINRESTORE_CONFIG, then the default location.
func configPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if value := strings.TrimSpace(os.Getenv(configEnv)); value != "" {
		return value, nil
	}
	return config.DefaultPath()
}
