package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"laserctl/internal/bus"
	"laserctl/internal/command"
	"laserctl/internal/config"
	"laserctl/internal/controller"
	"laserctl/internal/events"
	"laserctl/internal/history"
	"laserctl/internal/logging"
	"laserctl/internal/scheduler"
	"laserctl/internal/stats"
	"laserctl/internal/transport"
)

const bufferReportInterval = time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("run laserctl", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "laserctl.json", "config file path")
	connector := flag.String("connector", "", "transport connector (serial or mock)")
	port := flag.String("port", "", "serial port override")
	jobPath := flag.String("job", "", "job file queued into the controller buffer on start")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(*connector) != "" {
		cfg.Connection.Connector = config.ConnectorType(strings.TrimSpace(*connector))
	}
	if strings.TrimSpace(*port) != "" {
		cfg.Connection.SerialPort = strings.TrimSpace(*port)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		if closeErr := logMgr.Close(); closeErr != nil {
			slog.Warn("close log manager", "error", closeErr)
		}
	}()
	logger := logMgr.Logger("cli")
	logger.Info("starting laserctl", "connector", string(cfg.Connection.Connector), "target", connectionTarget(cfg.Connection))

	b := bus.New(logMgr.Logger("bus"))
	defer b.Close()

	tr, err := newTransport(cfg.Connection)
	if err != nil {
		return err
	}

	tracker := stats.NewTracker(b, "controller")
	ctrl := controller.New(logMgr.Logger("controller"), b, tracker, tr, cfg.Controller.BufferLimit)
	ctrl.Start(ctx)

	sched := scheduler.New(logMgr.Logger("scheduler"))
	sched.Add(&scheduler.Job{
		Name:     "buffer-report",
		Interval: bufferReportInterval,
		Run: func() {
			snap := tracker.Snapshot()
			logger.Debug("buffer", "depth", snap.BufferDepth, "max", snap.BufferMaxSeen,
				"sent", snap.SentCount, "rejected", snap.RejectedCount)
		},
	})
	sched.Start(ctx)

	if cfg.History.Enabled {
		db, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()
		writer := history.NewWriterQueue(logMgr.Logger("history"), 256)
		writer.Start(ctx)
		rec := history.NewRecorder(db, writer)
		if err := rec.Start(ctx, b, tr.Name()); err != nil {
			return fmt.Errorf("start history recorder: %w", err)
		}
		logger.Info("history recording", "session", rec.SessionID(), "path", cfg.History.Path)
	}

	if strings.TrimSpace(*jobPath) != "" {
		data, err := os.ReadFile(*jobPath)
		if err != nil {
			return fmt.Errorf("read job file: %w", err)
		}
		ctrl.Write(data)
		logger.Info("job queued", "file", *jobPath, "bytes", len(data))
	}

	watch(ctx, b, logMgr.Logger("events"))

	dispatcher := command.NewDispatcher(logMgr.Logger("dispatch"), ctrl)
	return console(ctx, dispatcher, logger)
}

// console reads command lines from stdin until EOF or interrupt.
func console(ctx context.Context, dispatcher *command.Dispatcher, logger *slog.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(line), "quit") {
				return nil
			}
			if err := dispatcher.Dispatch(line); err != nil {
				var syntaxErr *command.ErrSyntax
				if errors.As(err, &syntaxErr) {
					fmt.Fprintf(os.Stderr, "%v\n", err)
					continue
				}
				return err
			}
		}
	}
}

func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger) {
	connSub := b.Subscribe(events.TopicConnectionState)
	ctrlSub := b.Subscribe(events.TopicControlState)
	bufferSub := b.Subscribe(events.TopicBuffer)
	statusSub := b.Subscribe(events.TopicStatus)

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.Unsubscribe(connSub, events.TopicConnectionState)
				b.Unsubscribe(ctrlSub, events.TopicControlState)
				b.Unsubscribe(bufferSub, events.TopicBuffer)
				b.Unsubscribe(statusSub, events.TopicStatus)
				return
			case raw := <-connSub:
				if ev, ok := raw.(events.ConnectionEvent); ok {
					logger.Info("connection", "state", string(ev.State), "transport", ev.TransportName, "error", ev.Err)
				}
			case raw := <-ctrlSub:
				if ev, ok := raw.(events.ControlEvent); ok {
					logger.Info("control", "state", string(ev.State))
				}
			case raw := <-bufferSub:
				if ev, ok := raw.(events.BufferUpdate); ok {
					logger.Debug("buffer", "depth", ev.Depth, "max", ev.MaxSeen)
				}
			case raw := <-statusSub:
				if ev, ok := raw.(events.StatusEvent); ok {
					logger.Debug("status", "code", ev.Code, "desc", ev.Desc)
				}
			}
		}
	}()
}

func newTransport(cfg config.ConnectionConfig) (transport.Transport, error) {
	switch cfg.Connector {
	case config.ConnectorSerial:
		return transport.NewSerialTransport(cfg.SerialPort, cfg.SerialBaud), nil
	case config.ConnectorMock:
		return transport.NewMockTransport(), nil
	default:
		return nil, fmt.Errorf("unknown connector: %s", cfg.Connector)
	}
}

func connectionTarget(cfg config.ConnectionConfig) string {
	switch cfg.Connector {
	case config.ConnectorSerial:
		return fmt.Sprintf("%s@%d", cfg.SerialPort, cfg.SerialBaud)
	case config.ConnectorMock:
		return "mock"
	default:
		return ""
	}
}
