package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Statkern15/uaView/internal/config"
	"github.com/Statkern15/uaView/internal/diag"
	"github.com/Statkern15/uaView/internal/export"
	"github.com/Statkern15/uaView/internal/opc"
	"github.com/Statkern15/uaView/internal/session"
	"github.com/Statkern15/uaView/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "uaview.yaml", "Path to the settings file")
	connection := flag.String("connection", "", "Connection to open on startup")
	logPath := flag.String("log", "", "Write process logs to this file (default: discard)")
	flag.Parse()

	// The terminal belongs to the TUI; process logs go to a file or nowhere.
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(discard{})
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}

	dial := func(ctx context.Context, conn config.Connection) (opc.Client, error) {
		return opc.Dial(ctx, opc.DialConfig{
			Endpoint:        conn.Endpoint,
			SecurityPolicy:  conn.SecurityPolicy,
			SecurityMode:    conn.SecurityMode,
			Username:        conn.Username,
			Password:        conn.Password,
			PublishInterval: conn.PublishInterval.Std(),
		})
	}

	// The sink and observer forward into the program; the pointer is
	// filled in below, before the program starts processing.
	var program *tea.Program

	uiSink := session.SinkFunc(func(e session.Event) {
		if program != nil {
			program.Send(tui.EventMsg{Event: e})
		}
	})

	fan := &fanSink{}
	fan.add(uiSink)
	ctrl := session.NewController(cfg, dial, fan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var broadcaster *export.Broadcaster
	if cfg.Export.Enabled {
		broadcaster = export.NewBroadcaster(ctrl.Table(), ctrl.ConnectionName, cfg.Export.Throttle.Std())
		fan.add(broadcaster)
		go func() {
			if err := broadcaster.Serve(ctx, cfg.Export.Addr()); err != nil {
				log.Printf("export server: %v", err)
			}
		}()
	}

	ctrl.SetObserver(observer{program: &program, broadcaster: broadcaster})

	sampler, err := diag.NewSampler()
	if err != nil {
		log.Printf("self diagnostics unavailable: %v", err)
		sampler = nil
	}

	m := tui.New(ctrl, cfg, sampler, *connection)
	program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, runErr := program.Run()

	// Clean disconnect on the way out; teardown failures never block exit.
	ctrl.Shutdown()
	cancel()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

// observer fans table mutations to the TUI and, when enabled, the
// websocket exporter.
type observer struct {
	program     **tea.Program
	broadcaster *export.Broadcaster
}

func (o observer) ValueChanged(row session.Row, initial bool) {
	if p := *o.program; p != nil {
		p.Send(tui.ValuesChangedMsg{})
	}
	if o.broadcaster != nil {
		o.broadcaster.ValueChanged(row, initial)
	}
}

func (o observer) ValueRemoved(id opc.NodeID) {
	if p := *o.program; p != nil {
		p.Send(tui.ValuesChangedMsg{})
	}
	if o.broadcaster != nil {
		o.broadcaster.ValueRemoved(id)
	}
}

// fanSink forwards events to every registered sink. Sinks are added
// during startup, before any session activity produces events.
type fanSink struct {
	sinks []session.EventSink
}

func (f *fanSink) add(s session.EventSink) {
	f.sinks = append(f.sinks, s)
}

func (f *fanSink) Event(e session.Event) {
	for _, s := range f.sinks {
		s.Event(e)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
