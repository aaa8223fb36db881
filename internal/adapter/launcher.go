package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/playloop/internal/domain"
	"github.com/mmcdole/playloop/internal/player"
)

const dialInterval = 50 * time.Millisecond

// Launcher opens videos in an external player process. mpv is driven over its
// JSON IPC socket; any other command plays uncontrolled.
type Launcher struct {
	command      string
	args         []string
	readyTimeout time.Duration
	resolver     URLResolver // nil plays watch URLs
	logger       *slog.Logger

	// start is swapped in tests
	start func(name string, args []string) (*os.Process, <-chan error, error)
}

// NewLauncher creates a launcher from the player configuration
func NewLauncher(cfg PlayerConfig, resolver URLResolver, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	command := cfg.Command
	if command == "" {
		command = "mpv"
	}
	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Launcher{
		command:      command,
		args:         cfg.Args,
		readyTimeout: timeout,
		resolver:     resolver,
		logger:       logger,
		start:        startProcess,
	}
}

var _ domain.PlayerFactory = (*Launcher)(nil)

// Open starts the player for video. When the IPC socket does not come up
// within the ready timeout the process keeps playing and the returned
// player's controls fail with domain.ErrPlayerNotReady.
func (l *Launcher) Open(ctx context.Context, video domain.Video) (domain.Player, error) {
	if video.ID == "" {
		return nil, fmt.Errorf("cannot open player: %w", domain.ErrVideoNotFound)
	}

	url := l.mediaURL(ctx, video)
	args := append([]string{}, l.args...)

	var socket string
	if l.isMPV() {
		socket = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s.sock", appName, uuid.NewString()))
		args = append(args, "--input-ipc-server="+socket, "--force-window=yes")
	}
	args = append(args, url)

	l.logger.Info("launching player", "command", l.command, "videoID", video.ID)
	proc, exited, err := l.start(l.command, args)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", l.command, err)
	}

	p := newProcessPlayer(proc, socket, l.logger.With("videoID", video.ID))
	go p.watchExit(exited)

	if socket == "" {
		p.markStarted()
		return p, nil
	}

	conn, err := l.waitForSocket(ctx, socket)
	if err != nil {
		l.logger.Warn("player controls unavailable", "error", err, "socket", socket)
		p.markStarted()
		return p, nil
	}
	if err := p.attach(conn); err != nil {
		l.logger.Warn("failed to subscribe to player events", "error", err)
	}
	return p, nil
}

func (l *Launcher) isMPV() bool {
	base := strings.ToLower(filepath.Base(l.command))
	return strings.TrimSuffix(base, filepath.Ext(base)) == "mpv"
}

// mediaURL prefers a resolved stream and falls back to the watch URL
func (l *Launcher) mediaURL(ctx context.Context, video domain.Video) string {
	if l.resolver == nil {
		return video.WatchURL()
	}
	url, err := l.resolver.Resolve(ctx, video.ID)
	if err != nil {
		l.logger.Warn("failed to resolve stream, using watch URL", "error", err, "videoID", video.ID)
		return video.WatchURL()
	}
	return url
}

// waitForSocket dials the IPC socket until it answers, the ready timeout
// elapses or ctx ends
func (l *Launcher) waitForSocket(ctx context.Context, socket string) (net.Conn, error) {
	ready := player.NewReady()
	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var conn net.Conn
	go func() {
		ticker := time.NewTicker(dialInterval)
		defer ticker.Stop()
		for {
			var d net.Dialer
			c, err := d.DialContext(dialCtx, "unix", socket)
			if err == nil {
				conn = c
				if !ready.Resolve(nil) {
					c.Close()
				}
				return
			}
			select {
			case <-dialCtx.Done():
				ready.Resolve(dialCtx.Err())
				return
			case <-ticker.C:
			}
		}
	}()

	err := ready.Wait(ctx, l.readyTimeout)
	if err != nil && !ready.Resolve(err) {
		err = ready.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPlayerNotReady, err)
	}
	return conn, nil
}

func startProcess(name string, args []string) (*os.Process, <-chan error, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()
	return cmd.Process, exited, nil
}
