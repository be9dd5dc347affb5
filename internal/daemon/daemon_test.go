package daemon

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxkey/voxkey/internal/bus"
	"github.com/voxkey/voxkey/internal/config"
	"github.com/voxkey/voxkey/internal/hotkey"
	"github.com/voxkey/voxkey/internal/session"
	"github.com/voxkey/voxkey/internal/testutil"
)

func testDaemon() *Daemon {
	d := New(nil)
	d.orchestrator = session.NewOrchestrator(nil, nil, nil, session.DefaultConfig())
	return d
}

func sendCommand(t *testing.T, d *Daemon, cmd byte) string {
	t.Helper()
	server, client := net.Pipe()
	go d.handle(server)

	if _, err := client.Write([]byte{cmd, '\n'}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	resp, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	client.Close()
	return resp
}

func TestHandleStatus(t *testing.T) {
	d := testDaemon()
	resp := sendCommand(t, d, bus.CmdStatus)
	if !strings.HasPrefix(resp, "STATUS state=idle") {
		t.Errorf("resp = %q", resp)
	}
}

func TestHandleProto(t *testing.T) {
	d := testDaemon()
	resp := sendCommand(t, d, bus.CmdProto)
	if !strings.Contains(resp, bus.ProtoVer) {
		t.Errorf("resp = %q", resp)
	}
}

func TestHandleCancel(t *testing.T) {
	d := testDaemon()
	resp := sendCommand(t, d, bus.CmdCancel)
	if !strings.HasPrefix(resp, "OK") {
		t.Errorf("resp = %q", resp)
	}
}

func TestHandlePressRelease(t *testing.T) {
	d := testDaemon()
	if resp := sendCommand(t, d, bus.CmdPress); !strings.HasPrefix(resp, "OK pressed") {
		t.Errorf("press resp = %q", resp)
	}
	if resp := sendCommand(t, d, bus.CmdRelease); !strings.HasPrefix(resp, "OK released") {
		t.Errorf("release resp = %q", resp)
	}
}

func TestHandleQuit(t *testing.T) {
	d := testDaemon()
	resp := sendCommand(t, d, bus.CmdQuit)
	if !strings.HasPrefix(resp, "OK quitting") {
		t.Errorf("resp = %q", resp)
	}
	select {
	case <-d.ctx.Done():
	default:
		t.Error("quit must cancel the daemon context")
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	d := testDaemon()
	resp := sendCommand(t, d, 'x')
	if !strings.HasPrefix(resp, "ERR") {
		t.Errorf("resp = %q", resp)
	}
}

// stubSource stands in for the evdev reader: either a scripted channel or a
// permanent open failure.
type stubSource struct {
	ch  chan hotkey.KeyEvent
	err error
}

func (s *stubSource) Open(ctx context.Context) (<-chan hotkey.KeyEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}

// setupRunEnv points the config, cache, and PATH lookups at temp dirs so a
// full Run can execute without touching the host. The stub pw-record
// satisfies the required-tool check; pw-cli stays absent on purpose.
func setupRunEnv(t *testing.T) *config.Manager {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	bin := t.TempDir()
	stub := filepath.Join(bin, "pw-record")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub pw-record: %v", err)
	}
	t.Setenv("PATH", bin)

	if err := config.Save(testutil.TestConfig()); err != nil {
		t.Fatalf("save config: %v", err)
	}
	manager, err := config.NewManager()
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	return manager
}

func TestRunReportsWatcherFailure(t *testing.T) {
	manager := setupRunEnv(t)

	d := New(manager)
	d.newSource = func() hotkey.Source {
		return &stubSource{err: errors.New("no readable input devices")}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("Run() should report the watcher startup failure")
		}
		if !strings.Contains(err.Error(), "hotkey watcher") {
			t.Errorf("err = %v", err)
		}
	case <-time.After(5 * time.Second):
		d.cancel()
		t.Fatal("Run() hung after the watcher failed to start")
	}
}

func TestRunSurvivesAudioProbeFailure(t *testing.T) {
	manager := setupRunEnv(t)

	d := New(manager)
	src := &stubSource{ch: make(chan hotkey.KeyEvent)}
	d.newSource = func() hotkey.Source { return src }

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	// pw-cli is missing, so the startup device probe fails. The daemon
	// must come up anyway and serve the control socket.
	testutil.WaitForCondition(t, func() bool {
		resp, err := bus.SendCommand(bus.CmdStatus)
		return err == nil && strings.HasPrefix(resp, "STATUS state=idle")
	}, 5*time.Second)

	if _, err := bus.SendCommand(bus.CmdQuit); err != nil {
		t.Fatalf("quit failed: %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after quit")
	}
}

func TestPressReleaseInsertsTranscript(t *testing.T) {
	recorder := testutil.NewMockRecorder()
	client := testutil.NewMockClient()
	inserter := testutil.NewMockInserter()
	observer := testutil.NewCollectingObserver()

	d := New(nil)
	d.orchestrator = session.NewOrchestrator(recorder, client, inserter, session.DefaultConfig(), observer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.orchestrator.Run(ctx)

	if resp := sendCommand(t, d, bus.CmdPress); !strings.HasPrefix(resp, "OK pressed") {
		t.Fatalf("press resp = %q", resp)
	}
	if resp := sendCommand(t, d, bus.CmdRelease); !strings.HasPrefix(resp, "OK released") {
		t.Fatalf("release resp = %q", resp)
	}

	testutil.WaitForCondition(t, func() bool {
		texts := inserter.Inserted()
		return len(texts) == 1 && texts[0] == "mock transcription"
	}, 5*time.Second)

	// The observer sees the full lifecycle back to idle.
	want := []session.State{session.StateRecording, session.StateTranscribing, session.StateInserting, session.StateIdle}
	for _, state := range want {
		select {
		case ev := <-observer.Events:
			if ev.State != state {
				t.Fatalf("got state %v, want %v", ev.State, state)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for state %v", state)
		}
	}
}
