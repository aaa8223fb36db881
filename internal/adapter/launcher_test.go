package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/playloop/internal/domain"
)

// fakeMPV serves the IPC socket named in the player arguments
type fakeMPV struct {
	t        *testing.T
	mu       sync.Mutex
	args     []string
	commands []ipcCommand
	conn     net.Conn
	exited   chan error
	accepted chan struct{}
}

func newFakeMPV(t *testing.T) *fakeMPV {
	return &fakeMPV{t: t, exited: make(chan error, 1), accepted: make(chan struct{})}
}

func (f *fakeMPV) start(name string, args []string) (*os.Process, <-chan error, error) {
	f.mu.Lock()
	f.args = args
	f.mu.Unlock()

	for _, a := range args {
		socket, ok := strings.CutPrefix(a, "--input-ipc-server=")
		if !ok {
			continue
		}
		ln, err := net.Listen("unix", socket)
		require.NoError(f.t, err)
		f.t.Cleanup(func() { ln.Close() })

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.conn = conn
			f.mu.Unlock()
			close(f.accepted)

			scanner := bufio.NewScanner(conn)
			for scanner.Scan() {
				var cmd ipcCommand
				if json.Unmarshal(scanner.Bytes(), &cmd) == nil {
					f.mu.Lock()
					f.commands = append(f.commands, cmd)
					f.mu.Unlock()
				}
			}
		}()
	}
	return nil, f.exited, nil
}

func (f *fakeMPV) emit(line string) {
	<-f.accepted
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	_, err := conn.Write([]byte(line + "\n"))
	require.NoError(f.t, err)
}

func (f *fakeMPV) sent() []ipcCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ipcCommand, len(f.commands))
	copy(out, f.commands)
	return out
}

type fakeResolver struct {
	url string
	err error
}

func (r fakeResolver) Resolve(ctx context.Context, videoID string) (string, error) {
	return r.url, r.err
}

func newTestLauncher(cfg PlayerConfig, resolver URLResolver, start func(string, []string) (*os.Process, <-chan error, error)) *Launcher {
	l := NewLauncher(cfg, resolver, NullLogger())
	l.start = start
	return l
}

func nextEvent(t *testing.T, p domain.Player) domain.PlaybackState {
	t.Helper()
	select {
	case st, ok := <-p.Events():
		require.True(t, ok, "events closed")
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("no player event")
		return 0
	}
}

func TestParseIPCEvent(t *testing.T) {
	tests := []struct {
		line string
		want domain.PlaybackState
		ok   bool
	}{
		{`{"event":"property-change","id":1,"name":"pause","data":true}`, domain.PlaybackPaused, true},
		{`{"event":"property-change","id":1,"name":"pause","data":false}`, domain.PlaybackStarted, true},
		{`{"event":"end-file","reason":"eof"}`, domain.PlaybackEnded, true},
		{`{"event":"end-file","reason":"quit"}`, 0, false},
		{`{"event":"property-change","name":"volume","data":50}`, 0, false},
		{`{"request_id":3,"error":"success"}`, 0, false},
		{`not json`, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseIPCEvent([]byte(tt.line))
		assert.Equal(t, tt.ok, ok, tt.line)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.line)
		}
	}
}

func TestLauncherDrivesMPVOverIPC(t *testing.T) {
	mpv := newFakeMPV(t)
	l := newTestLauncher(PlayerConfig{Command: "/usr/bin/mpv", Args: []string{"--no-terminal"}, ReadyTimeout: 2 * time.Second}, nil, mpv.start)

	p, err := l.Open(context.Background(), domain.Video{ID: "abc"})
	require.NoError(t, err)
	defer p.Release()

	mpv.mu.Lock()
	args := mpv.args
	mpv.mu.Unlock()
	assert.Equal(t, "--no-terminal", args[0])
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", args[len(args)-1])

	mpv.emit(`{"event":"property-change","id":1,"name":"pause","data":false}`)
	assert.Equal(t, domain.PlaybackStarted, nextEvent(t, p))
	mpv.emit(`{"event":"property-change","id":1,"name":"pause","data":true}`)
	assert.Equal(t, domain.PlaybackPaused, nextEvent(t, p))
	assert.Equal(t, domain.PlaybackPaused, p.State())

	require.NoError(t, p.Play())
	require.NoError(t, p.SetVolume(150))
	require.NoError(t, p.Seek(10*time.Second))

	assert.Eventually(t, func() bool { return len(mpv.sent()) == 4 }, 2*time.Second, 10*time.Millisecond)
	cmds := mpv.sent()
	assert.Equal(t, []any{"observe_property", float64(1), "pause"}, cmds[0].Command)
	assert.Equal(t, []any{"set_property", "pause", false}, cmds[1].Command)
	assert.Equal(t, []any{"set_property", "volume", float64(100)}, cmds[2].Command)
	assert.Equal(t, []any{"seek", float64(10), "relative"}, cmds[3].Command)

	mpv.emit(`{"event":"end-file","reason":"eof"}`)
	assert.Equal(t, domain.PlaybackEnded, nextEvent(t, p))
}

func TestLauncherDegradesWhenSocketNeverAppears(t *testing.T) {
	exited := make(chan error, 1)
	start := func(string, []string) (*os.Process, <-chan error, error) {
		return nil, exited, nil
	}
	l := newTestLauncher(PlayerConfig{Command: "mpv", ReadyTimeout: 80 * time.Millisecond}, nil, start)

	began := time.Now()
	p, err := l.Open(context.Background(), domain.Video{ID: "abc"})
	require.NoError(t, err)
	assert.Less(t, time.Since(began), time.Second)

	assert.Equal(t, domain.PlaybackStarted, p.State())
	assert.ErrorIs(t, p.Pause(), domain.ErrPlayerNotReady)
	assert.ErrorIs(t, p.SetMuted(true), domain.ErrPlayerNotReady)

	require.NoError(t, p.Release())
	require.NoError(t, p.Release())
	_, open := <-p.Events()
	for open {
		_, open = <-p.Events()
	}
}

func TestLauncherOtherCommandEndsOnExit(t *testing.T) {
	exited := make(chan error, 1)
	var gotArgs []string
	start := func(name string, args []string) (*os.Process, <-chan error, error) {
		assert.Equal(t, "vlc", name)
		gotArgs = args
		return nil, exited, nil
	}
	l := newTestLauncher(PlayerConfig{Command: "vlc"}, fakeResolver{url: "https://media.example/stream"}, start)

	p, err := l.Open(context.Background(), domain.Video{ID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://media.example/stream"}, gotArgs)
	assert.Equal(t, domain.PlaybackStarted, nextEvent(t, p))

	exited <- nil
	assert.Equal(t, domain.PlaybackEnded, nextEvent(t, p))

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-p.Events():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestLauncherFallsBackToWatchURL(t *testing.T) {
	var gotArgs []string
	start := func(name string, args []string) (*os.Process, <-chan error, error) {
		gotArgs = args
		return nil, make(chan error), nil
	}
	l := newTestLauncher(PlayerConfig{Command: "vlc"}, fakeResolver{err: errors.New("blocked")}, start)

	p, err := l.Open(context.Background(), domain.Video{ID: "xyz"})
	require.NoError(t, err)
	defer p.Release()
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=xyz"}, gotArgs)
}

func TestLauncherStartFailure(t *testing.T) {
	start := func(string, []string) (*os.Process, <-chan error, error) {
		return nil, nil, errors.New("executable file not found")
	}
	l := newTestLauncher(PlayerConfig{Command: "vlc"}, nil, start)

	_, err := l.Open(context.Background(), domain.Video{ID: "abc"})
	assert.Error(t, err)

	_, err = l.Open(context.Background(), domain.Video{})
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}
