package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/bus"
	"github.com/voxkey/voxkey/internal/config"
	"github.com/voxkey/voxkey/internal/deps"
	"github.com/voxkey/voxkey/internal/hotkey"
	"github.com/voxkey/voxkey/internal/insert"
	"github.com/voxkey/voxkey/internal/notify"
	"github.com/voxkey/voxkey/internal/session"
	"github.com/voxkey/voxkey/internal/transcriber"
)

// Daemon wires the hotkey watcher, capture, transcription, and insertion
// into one running process behind the control socket.
type Daemon struct {
	manager *config.Manager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	watcher      *hotkey.Watcher
	orchestrator *session.Orchestrator

	// watchErr carries a fatal watcher failure out to Run.
	watchErr chan error

	// newSource builds the key event source, swappable in tests.
	newSource func() hotkey.Source
}

func New(manager *config.Manager) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		manager:   manager,
		ctx:       ctx,
		cancel:    cancel,
		watchErr:  make(chan error, 1),
		newSource: func() hotkey.Source { return hotkey.NewEvdevSource() },
	}
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	if missing := deps.MissingRequired(); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	if err := d.start(); err != nil {
		return err
	}
	defer d.wg.Wait()
	defer d.cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		log.Printf("daemon: received signal %v, shutting down", sig)
		d.cancel()
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("daemon: started, listening on control socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				select {
				case werr := <-d.watchErr:
					return fmt.Errorf("hotkey watcher: %w", werr)
				default:
				}
				log.Printf("daemon: shutdown requested")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

// start builds the processing chain from the current config and launches the
// watcher and orchestrator goroutines.
func (d *Daemon) start() error {
	cfg := d.manager.GetConfig()

	spec, err := hotkey.ParseSpec(cfg.Hotkey.Combo)
	if err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}

	client, err := transcriber.New(cfg.ToTranscriberConfig())
	if err != nil {
		// A missing key is not fatal at startup: sessions fail with
		// missing_api_key until the config is fixed.
		log.Printf("daemon: transcriber unavailable: %v", err)
		client = transcriber.Unavailable(cfg.Transcription.Provider, err)
	}

	capture := audio.New(cfg.ToCaptureConfig())
	if err := capture.Open(d.ctx); err != nil {
		// The probe is advisory. Start retries for real on the first
		// hotkey press and surfaces failures there.
		log.Printf("daemon: audio probe failed: %v", err)
	}

	inserter := insert.New(cfg.ToInsertConfig())

	observers := []session.Observer{logObserver()}
	if cfg.Notifications.Enabled {
		observers = append(observers, notify.NewObserver(notify.ForType(cfg.Notifications.Type)))
	}

	d.orchestrator = session.NewOrchestrator(capture, client, inserter, cfg.ToSessionConfig(), observers...)
	d.watcher = hotkey.NewWatcher(d.newSource(), spec)

	d.manager.OnReload(d.applyConfig)
	if err := d.manager.StartWatching(d.ctx); err != nil {
		log.Printf("daemon: config watching disabled: %v", err)
	}

	d.wg.Add(3)
	go func() {
		defer d.wg.Done()
		if err := d.orchestrator.Run(d.ctx); err != nil && d.ctx.Err() == nil {
			log.Printf("daemon: orchestrator stopped: %v", err)
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.watcher.Watch(d.ctx); err != nil && d.ctx.Err() == nil {
			log.Printf("daemon: hotkey watcher stopped: %v", err)
			d.watchErr <- err
			d.cancel()
		}
	}()
	go func() {
		defer d.wg.Done()
		d.bridgeHotkey()
	}()

	return nil
}

// bridgeHotkey forwards combo edges into the orchestrator.
func (d *Daemon) bridgeHotkey() {
	for ev := range d.watcher.Events() {
		switch ev.Kind {
		case hotkey.ComboEngaged:
			d.orchestrator.Engage()
		case hotkey.ComboReleased:
			d.orchestrator.Release()
		}
	}
}

// applyConfig pushes reloaded settings into the running components.
func (d *Daemon) applyConfig(cfg *config.Config) {
	if spec, err := hotkey.ParseSpec(cfg.Hotkey.Combo); err == nil {
		d.watcher.UpdateSpec(spec)
	}

	client, err := transcriber.New(cfg.ToTranscriberConfig())
	if err != nil {
		log.Printf("daemon: reload kept previous transcriber: %v", err)
	} else {
		d.orchestrator.UpdateClient(client)
	}
	d.orchestrator.UpdateLanguageHint(cfg.Transcription.Language)
	d.orchestrator.UpdateInserter(insert.New(cfg.ToInsertConfig()))

	log.Printf("daemon: applied reloaded configuration")
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("daemon: client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}

	switch line[0] {
	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS state=%s\n", d.orchestrator.State())
	case bus.CmdProto:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdCancel:
		d.orchestrator.Cancel()
		fmt.Fprint(c, "OK cancelled\n")
	case bus.CmdPress:
		d.orchestrator.Engage()
		fmt.Fprint(c, "OK pressed\n")
	case bus.CmdRelease:
		d.orchestrator.Release()
		fmt.Fprint(c, "OK released\n")
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("daemon: unknown command: %c", line[0])
		fmt.Fprintf(c, "ERR unknown=%q\n", line[0])
	}
}

func logObserver() session.Observer {
	return session.ObserverFunc(func(ev session.StatusEvent) {
		if ev.ErrCode != "" {
			log.Printf("session %d: %s (%s)", ev.SessionID, ev.State, ev.ErrCode)
			return
		}
		log.Printf("session %d: %s", ev.SessionID, ev.State)
	})
}
