package hotkey

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey = 0x01 // EV_KEY in linux/input-event-codes.h

	keyUp     = 0
	keyDown   = 1
	keyRepeat = 2

	// input_event on 64-bit: struct timeval (16) + type (2) + code (2) + value (4)
	inputEventSize = 24
)

// keyNames maps Linux keycodes to logical key names. Left/right modifier
// variants map straight to the logical modifier; unmapped codes are ignored.
var keyNames = map[uint16]string{
	1: "esc", 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7",
	9: "8", 10: "9", 11: "0", 12: "minus", 13: "equal", 14: "backspace",
	15: "tab", 16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y",
	22: "u", 23: "i", 24: "o", 25: "p", 28: "enter",
	29: "ctrl", // KEY_LEFTCTRL
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j",
	37: "k", 38: "l",
	42: "shift", // KEY_LEFTSHIFT
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
	54: "shift", // KEY_RIGHTSHIFT
	56: "alt",   // KEY_LEFTALT
	57: "space",
	58: "capslock",
	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6",
	65: "f7", 66: "f8", 67: "f9", 68: "f10", 87: "f11", 88: "f12",
	97:  "ctrl", // KEY_RIGHTCTRL
	100: "alt",  // KEY_RIGHTALT
	102: "home", 103: "up", 104: "pageup", 105: "left", 106: "right",
	107: "end", 108: "down", 109: "pagedown", 110: "insert", 111: "delete",
	119: "pause",
	125: "super", // KEY_LEFTMETA
	126: "super", // KEY_RIGHTMETA
	127: "menu",
}

// EvdevSource reads raw keyboard events from /dev/input/event* devices.
// Keyboards are discovered via /proc/bus/input/devices; every device whose
// handler list advertises "kbd" is opened, so external keyboards work too.
type EvdevSource struct {
	procPath string
	devDir   string
}

func NewEvdevSource() *EvdevSource {
	return &EvdevSource{
		procPath: "/proc/bus/input/devices",
		devDir:   "/dev/input",
	}
}

// Open discovers and opens all keyboard devices and merges their event
// streams into one channel. Failing to open any keyboard at all is an error;
// the daemon treats that as fatal at startup (usually a permissions problem,
// the user is not in the input group).
func (s *EvdevSource) Open(ctx context.Context) (<-chan KeyEvent, error) {
	devices, err := s.discoverKeyboards()
	if err != nil {
		return nil, err
	}

	out := make(chan KeyEvent, 64)
	var wg sync.WaitGroup
	opened := 0

	for _, dev := range devices {
		f, err := os.Open(dev)
		if err != nil {
			log.Printf("hotkey: cannot open %s: %v", dev, err)
			continue
		}
		opened++
		wg.Add(1)
		go s.readDevice(ctx, f, out, &wg)
	}

	if opened == 0 {
		return nil, fmt.Errorf("no readable keyboard device under %s (is the user in the 'input' group?)", s.devDir)
	}
	log.Printf("hotkey: listening on %d keyboard device(s)", opened)

	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

func (s *EvdevSource) readDevice(ctx context.Context, f *os.File, out chan<- KeyEvent, wg *sync.WaitGroup) {
	defer wg.Done()
	defer f.Close()

	// Close the fd when the context ends so the blocking Read returns.
	go func() {
		<-ctx.Done()
		f.Close()
	}()

	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			if ctx.Err() == nil {
				log.Printf("hotkey: read %s: %v", f.Name(), err)
			}
			return
		}

		typ := binary.LittleEndian.Uint16(buf[16:18])
		if typ != evKey {
			continue
		}
		code := binary.LittleEndian.Uint16(buf[18:20])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))

		name, ok := keyNames[code]
		if !ok {
			continue
		}

		ev := KeyEvent{
			Key:    name,
			Down:   value != keyUp,
			Repeat: value == keyRepeat,
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// discoverKeyboards parses /proc/bus/input/devices for devices whose handler
// list includes a kbd handler and returns their event node paths.
func (s *EvdevSource) discoverKeyboards() ([]string, error) {
	f, err := os.Open(s.procPath)
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	defer f.Close()

	var devices []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "H: Handlers=") {
			continue
		}
		handlers := strings.Fields(strings.TrimPrefix(line, "H: Handlers="))
		hasKbd := false
		eventNode := ""
		for _, h := range handlers {
			if h == "kbd" {
				hasKbd = true
			}
			if strings.HasPrefix(h, "event") {
				eventNode = h
			}
		}
		if hasKbd && eventNode != "" {
			devices = append(devices, filepath.Join(s.devDir, eventNode))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no keyboard found in %s", s.procPath)
	}
	return devices, nil
}
