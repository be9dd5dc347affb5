package deps

import "os/exec"

// Status represents the installation status of an external tool.
type Status struct {
	Name      string
	Installed bool
	Path      string
	Required  bool
	Purpose   string
}

type tool struct {
	name     string
	required bool
	purpose  string
}

var tools = []tool{
	{"pw-record", true, "microphone capture (PipeWire)"},
	{"wl-copy", false, "clipboard insertion strategy"},
	{"wl-paste", false, "clipboard snapshot and restore"},
	{"wtype", false, "paste chord and keypress insertion"},
	{"ydotool", false, "keypress insertion fallback"},
	{"notify-send", false, "desktop notifications"},
}

// Check probes one tool by name.
func Check(name string) Status {
	for _, t := range tools {
		if t.name == name {
			return check(t)
		}
	}
	return check(tool{name: name})
}

// CheckAll probes every tool the daemon may shell out to.
func CheckAll() []Status {
	statuses := make([]Status, 0, len(tools))
	for _, t := range tools {
		statuses = append(statuses, check(t))
	}
	return statuses
}

// MissingRequired returns the names of required tools that are absent.
func MissingRequired() []string {
	var missing []string
	for _, s := range CheckAll() {
		if s.Required && !s.Installed {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

func check(t tool) Status {
	s := Status{Name: t.name, Required: t.required, Purpose: t.purpose}
	path, err := exec.LookPath(t.name)
	if err != nil {
		return s
	}
	s.Installed = true
	s.Path = path
	return s
}
