package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/config"
	"github.com/lixenwraith/gravfield/metrics"
)

func main() {
	cfg, err := config.Parse("gravfield", os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gravfield: %v\n", err)
		os.Exit(2)
	}
	os.Exit(runShell(cfg))
}

// runShell owns the terminal for the session and returns the exit code
func runShell(cfg config.Config) int {
	logger, logFile := setupLogging(cfg.Debug)
	if logFile != nil {
		defer logFile.Close()
	}
	defer logger.Sync()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		return 1
	}
	screen.EnableMouse(tcell.MouseDragEvents)
	screen.HideCursor()

	// Panic Recovery: restore the terminal before printing the trace
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			logger.Error("crashed", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			fmt.Fprintf(os.Stderr, "\n\x1b[31mGRAVFIELD CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	collector := metrics.New()
	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = metrics.NewServer(cfg.MetricsAddr, collector)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server exited", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	a, err := newApp(cfg, logger, screen, collector)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "gravfield: %v\n", err)
		return 1
	}
	defer a.close()

	if cfg.Audio {
		if err := a.feedback.Initialize(); err != nil {
			logger.Warn("audio unavailable, continuing silent", zap.Error(err))
		}
	}

	events := make(chan tcell.Event, 256)
	go func() {
		// Panic recovery for the input poller
		defer func() {
			if r := recover(); r != nil {
				screen.Fini()
				fmt.Fprintf(os.Stderr, "\r\n\x1b[31mEVENT POLLER CRASHED: %v\x1b[0m\r\n", r)
				fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
				os.Exit(1)
			}
		}()
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	runErr := a.run(events)
	screen.Fini()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(ctx)
		cancel()
	}

	if runErr != nil {
		logger.Error("simulation stopped", zap.Error(runErr))
		fmt.Fprintf(os.Stderr, "gravfield: %v\n", runErr)
		return 1
	}
	return 0
}
