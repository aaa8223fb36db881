package adapter

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/mmcdole/playloop/internal/domain"
)

const eventBuffer = 16

// ipcMessage is one line received from the mpv JSON IPC socket
type ipcMessage struct {
	Event  string          `json:"event"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
	Reason string          `json:"reason"`
	Error  string          `json:"error"`
}

// ipcCommand is one line sent to the socket
type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

// parseIPCEvent maps an IPC line to a playback state change
func parseIPCEvent(line []byte) (domain.PlaybackState, bool) {
	var msg ipcMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return 0, false
	}

	switch msg.Event {
	case "property-change":
		if msg.Name != "pause" {
			return 0, false
		}
		var paused bool
		if err := json.Unmarshal(msg.Data, &paused); err != nil {
			return 0, false
		}
		if paused {
			return domain.PlaybackPaused, true
		}
		return domain.PlaybackStarted, true
	case "end-file":
		if msg.Reason == "eof" {
			return domain.PlaybackEnded, true
		}
	}
	return 0, false
}

// processPlayer is a domain.Player backed by an external process, with
// controls over an optional IPC connection
type processPlayer struct {
	proc   *os.Process
	socket string
	logger *slog.Logger

	mu        sync.Mutex
	conn      net.Conn
	enc       *json.Encoder
	requestID int
	state     domain.PlaybackState
	events    chan domain.PlaybackState
	released  bool
}

func newProcessPlayer(proc *os.Process, socket string, logger *slog.Logger) *processPlayer {
	return &processPlayer{
		proc:   proc,
		socket: socket,
		logger: logger,
		events: make(chan domain.PlaybackState, eventBuffer),
	}
}

// attach connects the IPC socket and subscribes to pause changes
func (p *processPlayer) attach(conn net.Conn) error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		conn.Close()
		return nil
	}
	p.conn = conn
	p.enc = json.NewEncoder(conn)
	p.mu.Unlock()

	go p.readLoop(conn)
	return p.send("observe_property", 1, "pause")
}

func (p *processPlayer) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		st, ok := parseIPCEvent(scanner.Bytes())
		if !ok {
			continue
		}
		p.mu.Lock()
		p.emitLocked(st)
		p.mu.Unlock()
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		p.logger.Debug("player connection closed", "error", err)
	}
}

// watchExit closes the player once the process exits. Without IPC a clean
// exit is the only end-of-video signal.
func (p *processPlayer) watchExit(exited <-chan error) {
	err := <-exited

	p.mu.Lock()
	if !p.released && p.conn == nil && err == nil {
		p.emitLocked(domain.PlaybackEnded)
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Debug("player exited", "error", err)
	}
	p.Release()
}

func (p *processPlayer) markStarted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitLocked(domain.PlaybackStarted)
}

// emitLocked records st and offers it to the events channel without blocking
func (p *processPlayer) emitLocked(st domain.PlaybackState) {
	if p.released {
		return
	}
	p.state = st
	select {
	case p.events <- st:
	default:
		p.logger.Warn("dropping player event", "state", st.String())
	}
}

func (p *processPlayer) send(args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return fmt.Errorf("player released: %w", domain.ErrPlayerNotReady)
	}
	if p.enc == nil {
		return domain.ErrPlayerNotReady
	}
	p.requestID++
	if err := p.enc.Encode(ipcCommand{Command: args, RequestID: p.requestID}); err != nil {
		return fmt.Errorf("failed to send %v: %w", args[0], err)
	}
	return nil
}

func (p *processPlayer) Play() error  { return p.send("set_property", "pause", false) }
func (p *processPlayer) Pause() error { return p.send("set_property", "pause", true) }

func (p *processPlayer) Seek(offset time.Duration) error {
	return p.send("seek", offset.Seconds(), "relative")
}

func (p *processPlayer) SetMuted(muted bool) error {
	return p.send("set_property", "mute", muted)
}

func (p *processPlayer) SetVolume(percent int) error {
	percent = max(0, min(100, percent))
	return p.send("set_property", "volume", percent)
}

func (p *processPlayer) State() domain.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *processPlayer) Events() <-chan domain.PlaybackState {
	return p.events
}

// Release stops the process and closes the events channel. Idempotent.
func (p *processPlayer) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return nil
	}
	p.released = true
	close(p.events)

	if p.conn != nil {
		p.conn.Close()
	}
	if p.proc != nil {
		if err := p.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Warn("failed to stop player", "error", err)
		}
	}
	if p.socket != "" {
		_ = os.Remove(p.socket)
	}
	return nil
}
