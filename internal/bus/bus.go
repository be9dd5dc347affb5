package bus

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

const SockName = "control.sock"
const PidName = "voxkey.pid"
const ProtoVer = "0.1"

// Control commands are single bytes followed by '\n'.
const (
	CmdStatus  byte = 's'
	CmdQuit    byte = 'q'
	CmdCancel  byte = 'c'
	CmdProto   byte = 'v'
	CmdPress   byte = 'p' // synthetic combo engage, for compositor keybinds
	CmdRelease byte = 'r' // synthetic combo release
)

// ~/.cache/voxkey/control.sock
func SockPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxkey", SockName), nil
}

// ~/.cache/voxkey/voxkey.pid
func PidPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxkey", PidName), nil
}

func Listen() (net.Listener, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(sp), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(sp) // stale socket from last run
	return net.Listen("unix", sp)
}

func Dial() (net.Conn, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	return net.Dial("unix", sp)
}

// SendCommand writes one command byte and reads the single-line response.
func SendCommand(cmd byte) (string, error) {
	c, err := Dial()
	if err != nil {
		return "", err
	}
	defer c.Close()

	if _, err := c.Write([]byte{cmd, '\n'}); err != nil {
		return "", err
	}

	return bufio.NewReader(c).ReadString('\n')
}

type pidManager struct {
	path string
}

func defaultPidManager() (*pidManager, error) {
	p, err := PidPath()
	if err != nil {
		return nil, err
	}
	return &pidManager{path: p}, nil
}

func (pm *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(pm.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(pm.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (pm *pidManager) remove() error {
	return os.Remove(pm.path)
}

// checkExisting errors if a live daemon owns the pid file; stale or
// malformed files are cleaned up silently.
func (pm *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(pm.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(string(pidData))
	if err != nil {
		_ = pm.remove()
		return nil
	}

	if !pm.isProcessAlive(pid) {
		_ = pm.remove()
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (pm *pidManager) isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}

func CheckExistingDaemon() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.checkExisting()
}

func CreatePidFile() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.create()
}

func RemovePidFile() error {
	pm, err := defaultPidManager()
	if err != nil {
		return err
	}
	return pm.remove()
}
