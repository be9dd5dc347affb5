package bus

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPidManager(t *testing.T) {
	pm := &pidManager{path: filepath.Join(t.TempDir(), PidName)}

	t.Run("create and remove", func(t *testing.T) {
		if err := pm.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		pidData, err := os.ReadFile(pm.path)
		if err != nil {
			t.Fatalf("failed to read pid file: %v", err)
		}
		if string(pidData) != strconv.Itoa(os.Getpid()) {
			t.Errorf("pid file contains %q, want current pid", string(pidData))
		}

		if err := pm.remove(); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
			t.Error("pid file should not exist after removal")
		}
	})

	t.Run("checkExisting with no pid file", func(t *testing.T) {
		if err := pm.checkExisting(); err != nil {
			t.Errorf("no pid file should pass: %v", err)
		}
	})

	t.Run("checkExisting with live process", func(t *testing.T) {
		if err := pm.create(); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		defer pm.remove()

		if err := pm.checkExisting(); err == nil {
			t.Error("live process should be reported")
		}
	})

	t.Run("checkExisting cleans stale pid file", func(t *testing.T) {
		if err := os.WriteFile(pm.path, []byte("99999"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := pm.checkExisting(); err != nil {
			t.Errorf("stale pid should pass: %v", err)
		}
		if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
			t.Error("stale pid file should be removed")
		}
	})

	t.Run("checkExisting cleans malformed pid file", func(t *testing.T) {
		if err := os.WriteFile(pm.path, []byte("not-a-pid"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := pm.checkExisting(); err != nil {
			t.Errorf("malformed pid should pass: %v", err)
		}
		if _, err := os.Stat(pm.path); !os.IsNotExist(err) {
			t.Error("malformed pid file should be removed")
		}
	})
}

func TestIsProcessAlive(t *testing.T) {
	pm := &pidManager{}
	if !pm.isProcessAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
	if pm.isProcessAlive(1 << 22) {
		t.Error("out-of-range pid should not be alive")
	}
}

func TestCommandRoundTrip(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), SockName)
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil || len(line) < 1 {
			return
		}
		if line[0] == CmdStatus {
			conn.Write([]byte("ok: idle\n"))
		} else {
			conn.Write([]byte("err: unknown\n"))
		}
	}()

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{CmdStatus, '\n'}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if resp != "ok: idle\n" {
		t.Errorf("resp = %q", resp)
	}
}
