// ====================================
// File: cmd/txkit/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/app"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/config"
	"github.com/rovshanmuradov/pumpfun-txkit/internal/utils/logger"
)

const usage = `usage: txkit [-config path] [-simulate] <command>

commands:
  transfer <to> <lamports>   send SOL through the transaction manager
  listen                     print pump.fun program events until interrupted
`

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	simulate := flag.Bool("simulate", false, "simulate instead of broadcasting")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	lg, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	ctx, cancel := app.WithSignals(context.Background(), lg.Logger)
	defer cancel()

	runner := app.NewRunner(cfg, lg.Logger, os.Stdout, nil)

	if err := run(ctx, runner, *simulate, flag.Args()); err != nil {
		lg.LogError("Command failed", err, zap.String("command", flag.Arg(0)))
		lg.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, runner *app.Runner, simulate bool, args []string) error {
	switch args[0] {
	case "transfer":
		if len(args) != 3 {
			return fmt.Errorf("transfer expects <to> <lamports>")
		}
		lamports, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lamports %q: %w", args[2], err)
		}
		_, err = runner.Transfer(ctx, args[1], lamports, simulate)
		return err
	case "listen":
		return runner.Listen(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
