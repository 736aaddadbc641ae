// Package source runs an external keyword spotter and raises what it
// prints. Each stdout line is one notification, either a plain list
// ("green activate") or JSON ({"keywords":["green","activate"]}).
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kwhmi/agent/internal/keyword"
	"kwhmi/agent/internal/logging"
	"kwhmi/agent/internal/types"
)

type Raiser interface {
	Raise(bits keyword.Set)
}

type Journal interface {
	Append(typ string, payload map[string]any) types.Event
}

const (
	backoffBase = 500 * time.Millisecond
	backoffMax  = 30 * time.Second
	// A run that lasts this long resets the backoff.
	stableRun = 30 * time.Second
)

type Exec struct {
	cmdline string
	vocab   *keyword.Vocabulary
	raiser  Raiser
	journal Journal

	running atomic.Bool
	runs    atomic.Int64
	lines   atomic.Int64
}

func NewExec(cmdline string, vocab *keyword.Vocabulary, raiser Raiser, journal Journal) *Exec {
	if vocab == nil {
		vocab = keyword.Default()
	}
	return &Exec{cmdline: cmdline, vocab: vocab, raiser: raiser, journal: journal}
}

func (e *Exec) Running() bool { return e.running.Load() }
func (e *Exec) Runs() int64   { return e.runs.Load() }

// Supervise keeps the command running until ctx is done, restarting it with
// exponential backoff when it exits.
func (e *Exec) Supervise(ctx context.Context) error {
	attempt := 0
	for {
		started := time.Now()
		err := e.RunOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) >= stableRun {
			attempt = 0
		}
		wait := backoff(attempt)
		attempt++
		logging.Info("source", "keyword source exited (%v), restarting in %s", err, wait.Round(time.Millisecond))
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// RunOnce starts the command and reads it until it exits.
func (e *Exec) RunOnce(ctx context.Context) error {
	parts := strings.Fields(e.cmdline)
	if len(parts) == 0 {
		return errors.New("source command not configured")
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		e.appendEvent(map[string]any{"cmd": parts[0], "error": err.Error()})
		return err
	}
	e.running.Store(true)
	e.runs.Add(1)
	metricRuns.Inc()
	logging.Info("source", "started %s pid=%d", parts[0], cmd.Process.Pid)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logLines(stderr)
	}()
	e.readLines(stdout)
	wg.Wait()
	err = cmd.Wait()
	e.running.Store(false)

	payload := map[string]any{"cmd": parts[0], "lines": e.lines.Load()}
	if err != nil {
		payload["error"] = err.Error()
	}
	e.appendEvent(payload)
	return err
}

// maxLine bounds one notification line. Longer lines are skipped whole and
// reading continues with the next line.
const maxLine = 64 * 1024

func (e *Exec) readLines(r io.Reader) {
	br := bufio.NewReaderSize(r, 4096)
	var line []byte
	long := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !long {
			if len(line)+len(chunk) > maxLine {
				long = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if long {
			metricLines.WithLabelValues("too_long").Inc()
			logging.Info("source", "skipping line longer than %d bytes", maxLine)
		} else if len(line) > 0 {
			e.handleLine(string(line))
		}
		line = line[:0]
		long = false
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logging.Info("source", "read error: %v", err)
				// Keep the pipe flowing so the process can run to exit.
				_, _ = io.Copy(io.Discard, r)
			}
			return
		}
	}
}

func (e *Exec) handleLine(text string) {
	set, ok, err := ParseLine(e.vocab, text)
	if err != nil {
		metricLines.WithLabelValues("rejected").Inc()
		logging.Info("source", "bad line %q: %v", strings.TrimSpace(text), err)
		return
	}
	if !ok {
		return
	}
	e.lines.Add(1)
	metricLines.WithLabelValues("accepted").Inc()
	e.raiser.Raise(set)
}

func logLines(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			logging.Info("source", "stderr: %s", line)
		}
	}
	if err := scanner.Err(); err != nil {
		logging.Info("source", "stderr: %v, discarding the rest", err)
		_, _ = io.Copy(io.Discard, r)
	}
}

type lineEvent struct {
	Keywords []string `json:"keywords"`
	Keyword  string   `json:"keyword"`
}

// ParseLine decodes one output line. Blank lines and lines starting with
// '#' report ok=false.
func ParseLine(v *keyword.Vocabulary, line string) (keyword.Set, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return 0, false, nil
	}
	if strings.HasPrefix(line, "{") {
		var evt lineEvent
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			return 0, false, err
		}
		names := evt.Keywords
		if evt.Keyword != "" {
			names = append(names, evt.Keyword)
		}
		set, err := v.ParseList(names)
		return set, err == nil, err
	}
	set, err := v.Parse(line)
	return set, err == nil, err
}

func backoff(attempt int) time.Duration {
	if attempt > 6 {
		attempt = 6
	}
	d := backoffBase << uint(attempt)
	if d > backoffMax {
		d = backoffMax
	}
	return d + time.Duration(rand.Int63n(int64(backoffBase)))
}

func (e *Exec) appendEvent(payload map[string]any) {
	if e.journal != nil {
		e.journal.Append(types.EventSourceExit, payload)
	}
}
