package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tessro/ytmdeck/internal/companion/client"
)

// Namespace is the Socket.IO namespace of the companion realtime API.
const Namespace = "/api/v1/realtime"

const stateUpdateEvent = "state-update"

// Engine.IO packet types.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineNoop    byte = '6'
)

// Socket.IO packet types, carried inside engine messages.
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketConnectError byte = '4'
)

const (
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
)

var errEmptyPacket = errors.New("empty packet")

type packet struct {
	engine byte
	kind   byte
	nsp    string
	data   []byte
}

func parsePacket(msg []byte) (packet, error) {
	if len(msg) == 0 {
		return packet{}, errEmptyPacket
	}
	p := packet{engine: msg[0]}
	rest := msg[1:]
	if p.engine != engineMessage {
		p.data = rest
		return p, nil
	}
	if len(rest) == 0 {
		return packet{}, fmt.Errorf("truncated message packet %q", msg)
	}

	p.kind = rest[0]
	rest = rest[1:]

	p.nsp = "/"
	if len(rest) > 0 && rest[0] == '/' {
		if i := bytes.IndexByte(rest, ','); i >= 0 {
			p.nsp = string(rest[:i])
			rest = rest[i+1:]
		} else {
			p.nsp = string(rest)
			rest = nil
		}
	}

	// Ack id.
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}
	p.data = rest
	return p, nil
}

type openPayload struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// readTimeout is how long the socket may stay silent before it is considered dead.
func (o openPayload) readTimeout() time.Duration {
	interval := time.Duration(o.PingInterval) * time.Millisecond
	if interval <= 0 {
		interval = defaultPingInterval
	}
	timeout := time.Duration(o.PingTimeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return interval + timeout
}

func encodeConnect(token string) []byte {
	auth, _ := json.Marshal(map[string]string{"token": token})
	return append([]byte(string(engineMessage)+string(socketConnect)+Namespace+","), auth...)
}

func encodeDisconnect() []byte {
	return []byte(string(engineMessage) + string(socketDisconnect) + Namespace + ",")
}

func encodePong() []byte {
	return []byte{enginePong}
}

// connectErrorMessage extracts the message of a connect_error payload.
func connectErrorMessage(data []byte) string {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}

func isAuthRejection(msg string) bool {
	msg = strings.ToLower(msg)
	for _, word := range []string{"auth", "token", "unauthorized"} {
		if strings.Contains(msg, word) {
			return true
		}
	}
	return false
}

// decodeEvent returns the event name and, for state updates, the decoded state.
func decodeEvent(data []byte) (string, *client.State, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return "", nil, fmt.Errorf("decode event: %w", err)
	}
	if len(parts) == 0 {
		return "", nil, errors.New("decode event: empty array")
	}

	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("decode event name: %w", err)
	}
	if name != stateUpdateEvent {
		return name, nil, nil
	}
	if len(parts) < 2 {
		return name, nil, errors.New("state-update without payload")
	}

	var state client.State
	if err := json.Unmarshal(parts[1], &state); err != nil {
		return name, nil, fmt.Errorf("decode state: %w", err)
	}
	return name, &state, nil
}
