package tray

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fgeck/magic-packet/internal/models"
	"github.com/rs/zerolog"
)

const consoleHelp = `commands:
  send     send a magic packet to the configured target
  config   edit the target MAC/IP
  status   show the current configuration
  quit     exit
`

// Store is the configuration store used by the console's config form.
type Store interface {
	Load() models.TargetConfig
	Save(cfg models.TargetConfig) error
}

type lineResult struct {
	line string
	err  error
}

// Console is a line-oriented frontend for terminals without a tray. It also
// serves as the configuration dialog, sharing its input with the command loop.
type Console struct {
	in     io.Reader
	out    io.Writer
	store  Store
	logger zerolog.Logger

	outMu sync.Mutex

	startOnce  sync.Once
	readErr    error
	lines      chan lineResult
	prompts    chan chan lineResult
	dialogDone chan struct{}
}

// NewConsole creates a console frontend reading commands from in.
func NewConsole(logger zerolog.Logger, in io.Reader, out io.Writer, store Store) *Console {
	return &Console{
		in:         in,
		out:        out,
		store:      store,
		logger:     logger,
		lines:      make(chan lineResult),
		prompts:    make(chan chan lineResult),
		dialogDone: make(chan struct{}, 1),
	}
}

// Run reads commands until quit, end of input, ctx cancellation or
// dispatcher termination.
func (c *Console) Run(ctx context.Context, sub Submitter) error {
	c.startReader()

	c.printf("%s: type 'help' for commands\n", Title)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case <-c.dialogDone:
		case reply := <-c.prompts:
			if !c.answer(ctx, sub, reply) {
				return nil
			}
		case res, ok := <-c.lines:
			if !ok {
				res = lineResult{err: c.readErr}
			}
			if res.err != nil {
				if !errors.Is(res.err, io.EOF) {
					c.logger.Error().Err(res.err).Msg("reading console input")
				}
				c.quit(ctx, sub)
				return nil
			}
			if done := c.handle(ctx, sub, res.line); done {
				return nil
			}
		}
	}
}

func (c *Console) handle(ctx context.Context, sub Submitter, line string) bool {
	cmd := strings.TrimSpace(line)
	switch strings.ToLower(cmd) {
	case "":
		return false
	case "help", "?":
		c.printf("%s", consoleHelp)
		return false
	case "status":
		cfg := c.store.Load()
		c.printf("mac=%q ip=%q\n", cfg.MAC, cfg.IP)
		return false
	}

	action, err := models.ParseAction(cmd)
	if err != nil {
		c.printf("%v (type 'help')\n", err)
		return false
	}

	if action == models.ActionQuit {
		c.quit(ctx, sub)
		return true
	}

	if err := sub.Submit(ctx, action); err != nil {
		c.logger.Debug().Err(err).Str("action", action.String()).Msg("action not submitted")
		return true
	}

	if action == models.ActionShowConfig {
		return !c.serveDialog(ctx, sub)
	}
	return false
}

// serveDialog hands input lines to the config form until it closes.
func (c *Console) serveDialog(ctx context.Context, sub Submitter) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-sub.Done():
			return false
		case <-c.dialogDone:
			return true
		case reply := <-c.prompts:
			if !c.answer(ctx, sub, reply) {
				return false
			}
		}
	}
}

func (c *Console) answer(ctx context.Context, sub Submitter, reply chan lineResult) bool {
	select {
	case <-ctx.Done():
		reply <- lineResult{err: ctx.Err()}
		return false
	case <-sub.Done():
		reply <- lineResult{err: io.EOF}
		return false
	case res, ok := <-c.lines:
		if !ok {
			res = lineResult{err: c.readErr}
		}
		reply <- res
		return res.err == nil
	}
}

func (c *Console) quit(ctx context.Context, sub Submitter) {
	if err := sub.Submit(ctx, models.ActionQuit); err != nil {
		return
	}
	select {
	case <-sub.Done():
	case <-ctx.Done():
	}
}

// Notify prints the outcome of an action.
func (c *Console) Notify(n models.Notification) {
	status := "ok"
	if !n.Success {
		status = "error"
	}
	c.printf("[%s] %s\n", status, n.Message)
}

// Show runs the configuration form. It blocks until the form is answered.
func (c *Console) Show(ctx context.Context) error {
	defer func() {
		select {
		case c.dialogDone <- struct{}{}:
		default:
		}
	}()

	current := c.store.Load()

	mac, err := c.ask(ctx, fmt.Sprintf("MAC address [%s]: ", current.MAC), current.MAC)
	if err != nil {
		return err
	}
	ip, err := c.ask(ctx, fmt.Sprintf("IP address [%s]: ", current.IP), current.IP)
	if err != nil {
		return err
	}

	edited := models.TargetConfig{MAC: mac, IP: ip}
	if edited == current {
		c.printf("no changes\n")
		return nil
	}

	answer, err := c.ask(ctx, "Save? [Y/n]: ", "y")
	if err != nil {
		return err
	}
	if !strings.HasPrefix(strings.ToLower(answer), "y") {
		c.printf("discarded\n")
		return nil
	}

	if err := c.store.Save(edited); err != nil {
		c.logger.Error().Err(err).Msg("failed to save configuration")
		return nil
	}
	c.printf("saved\n")
	return nil
}

func (c *Console) ask(ctx context.Context, prompt, fallback string) (string, error) {
	c.printf("%s", prompt)

	reply := make(chan lineResult, 1)
	select {
	case c.prompts <- reply:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-reply:
		if res.err != nil {
			return "", fmt.Errorf("reading answer: %w", res.err)
		}
		if v := strings.TrimSpace(res.line); v != "" {
			return v, nil
		}
		return fallback, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Console) startReader() {
	c.startOnce.Do(func() {
		go func() {
			scanner := bufio.NewScanner(c.in)
			for scanner.Scan() {
				c.lines <- lineResult{line: scanner.Text()}
			}
			c.readErr = scanner.Err()
			if c.readErr == nil {
				c.readErr = io.EOF
			}
			close(c.lines)
		}()
	})
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}
