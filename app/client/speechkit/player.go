package speechkit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Player feeds raw PCM into an ffplay child process.
type Player struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr io.ReadCloser
	mu     sync.Mutex
}

func NewPlayer(ctx context.Context) (*Player, error) {
	args := []string{
		"-loglevel", "warning",
		"-autoexit",
		"-nodisp",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-i", "-",
	}

	cmd := exec.CommandContext(ctx, "ffplay", args...)
	slog.Info("Running ffplay", "cmd", "ffplay "+strings.Join(args, " "))

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	return &Player{
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
	}, nil
}

func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffplay: %w", err)
	}

	go p.logStderr()

	return nil
}

func (p *Player) Write(data []byte) error {
	_, err := p.stdin.Write(data)
	return err
}

// CloseInput signals end of audio; with -autoexit ffplay exits once
// the buffered audio has played out.
func (p *Player) CloseInput() error {
	return p.stdin.Close()
}

func (p *Player) Wait() error {
	return p.cmd.Wait()
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd.Process != nil {
		return p.cmd.Process.Kill()
	}
	return nil
}

func (p *Player) logStderr() {
	scanner := bufio.NewScanner(p.stderr)
	for scanner.Scan() {
		slog.Debug("ffplay", "stderr", scanner.Text())
	}
}
