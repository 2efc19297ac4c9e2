package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"plancal/internal/config"
	"plancal/internal/dates"
	appLog "plancal/internal/log"
	"plancal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	appLog.Info("plancal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_days", conf.WeekDays,
		"refresh", conf.RefreshCron,
		"api_base_url", conf.API.BaseURL,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	server := web.NewServer(conf)

	if flags.once {
		// Single-shot: one aggregation pass for the current week, then exit.
		weekStart := currentWeekStart(conf.Timezone)
		week := server.RefreshWeek(ctx, weekStart)
		appLog.Info("single pass complete",
			"week_start", week.WeekStart.String(),
			"partial", week.Partial(),
		)
		appLog.Sync()
		return
	}

	// Background refresh keeps the current week warm on the cron schedule.
	c := cron.New()
	_, err = c.AddFunc(conf.RefreshCron, func() {
		weekStart := currentWeekStart(conf.Timezone)
		week := server.RefreshWeek(ctx, weekStart)
		appLog.Info("scheduled refresh complete",
			"week_start", week.WeekStart.String(),
			"partial", week.Partial(),
		)
	})
	if err != nil {
		appLog.Error("invalid refresh cron spec", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}

	appLog.Info("plancal exiting")
	appLog.Sync()
}

func currentWeekStart(tz string) dates.CalendarDate {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}
	return dates.WeekStart(dates.Today(time.Now().In(loc)))
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/plancal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one aggregation pass and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
