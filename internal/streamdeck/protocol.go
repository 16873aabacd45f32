package streamdeck

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tessro/ytmdeck/internal/core"
)

// ActionPrefix is the action UUID namespace; the suffix is the control kind.
const ActionPrefix = "com.tessro.ytmdeck."

// Inbound host events.
const (
	EventWillAppear          = "willAppear"
	EventWillDisappear       = "willDisappear"
	EventKeyDown             = "keyDown"
	EventKeyUp               = "keyUp"
	EventDidReceiveSettings  = "didReceiveSettings"
	EventDeviceDidConnect    = "deviceDidConnect"
	EventDeviceDidDisconnect = "deviceDidDisconnect"
	EventSystemDidWakeUp     = "systemDidWakeUp"
)

// Outbound plugin commands.
const (
	CmdSetImage  = "setImage"
	CmdSetTitle  = "setTitle"
	CmdShowAlert = "showAlert"
	CmdShowOk    = "showOk"
)

// KindForAction maps an action UUID to a control kind.
func KindForAction(action string) (core.ControlKind, bool) {
	kind, ok := strings.CutPrefix(action, ActionPrefix)
	if !ok || kind == "" {
		return "", false
	}
	return core.ControlKind(kind), true
}

// ActionForKind returns the action UUID for kind.
func ActionForKind(kind core.ControlKind) string {
	return ActionPrefix + string(kind)
}

type inbound struct {
	Event   string          `json:"event"`
	Action  string          `json:"action,omitempty"`
	Context string          `json:"context,omitempty"`
	Device  string          `json:"device,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type actionPayload struct {
	Settings    Settings `json:"settings"`
	Coordinates struct {
		Column int `json:"column"`
		Row    int `json:"row"`
	} `json:"coordinates"`
}

// Settings are the per-key options edited in the property inspector.
type Settings struct {
	Background string `json:"background,omitempty"`
	Foreground string `json:"foreground,omitempty"`
	ShowTitle  bool   `json:"showTitle,omitempty"`
}

// Options converts settings to display options.
func (s Settings) Options() core.DisplayOptions {
	return core.DisplayOptions{
		Background: s.Background,
		Foreground: s.Foreground,
		ShowTitle:  s.ShowTitle,
	}
}

type outbound struct {
	Event   string `json:"event"`
	Context string `json:"context,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type registration struct {
	Event string `json:"event"`
	UUID  string `json:"uuid"`
}

type imagePayload struct {
	Image  string `json:"image"`
	Target int    `json:"target"`
}

type titlePayload struct {
	Title  string `json:"title"`
	Target int    `json:"target"`
}

// Params are the launch arguments the host passes to the plugin.
type Params struct {
	Port          int
	PluginUUID    string
	RegisterEvent string
	Info          Info
}

// Info describes the host application and attached devices.
type Info struct {
	Application struct {
		Platform string `json:"platform"`
		Version  string `json:"version"`
	} `json:"application"`
	Devices []Device `json:"devices"`
}

// Device is one attached Stream Deck.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
	Size struct {
		Columns int `json:"columns"`
		Rows    int `json:"rows"`
	} `json:"size"`
}

// ParseArgs parses "-port N -pluginUUID U -registerEvent E -info JSON".
// Flags may use one or two dashes and either "-flag value" or "-flag=value".
func ParseArgs(args []string) (Params, error) {
	var p Params
	var info string
	for i := 0; i < len(args); i++ {
		name := strings.TrimLeft(args[i], "-")
		if name == args[i] {
			return p, fmt.Errorf("unexpected argument %q", args[i])
		}
		value, hasValue := "", false
		if k, v, ok := strings.Cut(name, "="); ok {
			name, value, hasValue = k, v, true
		}
		if !hasValue {
			if i+1 >= len(args) {
				return p, fmt.Errorf("flag -%s needs a value", name)
			}
			i++
			value = args[i]
		}

		switch name {
		case "port":
			port, err := strconv.Atoi(value)
			if err != nil || port <= 0 || port > 65535 {
				return p, fmt.Errorf("invalid port %q", value)
			}
			p.Port = port
		case "pluginUUID":
			p.PluginUUID = value
		case "registerEvent":
			p.RegisterEvent = value
		case "info":
			info = value
		default:
			// Newer hosts add flags; ignore them.
		}
	}

	switch {
	case p.Port == 0:
		return p, fmt.Errorf("missing -port")
	case p.PluginUUID == "":
		return p, fmt.Errorf("missing -pluginUUID")
	case p.RegisterEvent == "":
		return p, fmt.Errorf("missing -registerEvent")
	}
	if info != "" {
		if err := json.Unmarshal([]byte(info), &p.Info); err != nil {
			return p, fmt.Errorf("parse -info: %w", err)
		}
	}
	return p, nil
}
