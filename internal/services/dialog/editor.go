// Package dialog implements the configuration dialog as an external editor session.
package dialog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/fgeck/magic-packet/internal/models"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const header = `# Magic Packet sender configuration.
# Edit the values below, save and close the editor to apply.
# mac: target hardware address, e.g. "AA:BB:CC:DD:EE:FF" or "AA-BB-CC-DD-EE-FF"
# ip:  broadcast address or host name to send to, e.g. "192.168.1.255"

`

// Store is the configuration store the dialog reads from and saves to.
type Store interface {
	Load() models.TargetConfig
	Save(cfg models.TargetConfig) error
}

// CommandRunner runs the editor process (for mocking).
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands attached to the current terminal.
type ExecRunner struct{}

// Run starts the command and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Editor edits the configuration in a temporary TOML file.
type Editor struct {
	store   Store
	command []string
	runner  CommandRunner
	logger  zerolog.Logger
	tempDir string
}

// NewEditor creates an editor dialog. An empty editor command is resolved
// from $VISUAL, $EDITOR and finally a platform default.
func NewEditor(logger zerolog.Logger, store Store, editor string) *Editor {
	return NewEditorWithRunner(logger, store, editor, ExecRunner{}, os.TempDir())
}

// NewEditorWithRunner creates an editor dialog with a custom runner (for testing).
func NewEditorWithRunner(logger zerolog.Logger, store Store, editor string, runner CommandRunner, tempDir string) *Editor {
	if strings.TrimSpace(editor) == "" {
		editor = ResolveEditor()
	}
	return &Editor{
		store:   store,
		command: strings.Fields(editor),
		runner:  runner,
		logger:  logger,
		tempDir: tempDir,
	}
}

// ResolveEditor picks the editor command used when none is configured.
func ResolveEditor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	switch runtime.GOOS {
	case "windows":
		return "notepad"
	case "darwin":
		return "open -W -n -t"
	default:
		return "vi"
	}
}

// Show blocks until the editor exits. Changed values are saved through the
// store; closing without changes leaves the configuration untouched.
func (d *Editor) Show(ctx context.Context) error {
	if len(d.command) == 0 {
		return fmt.Errorf("no editor configured")
	}

	current := d.store.Load()

	f, err := os.CreateTemp(d.tempDir, "magic-packet-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	body, err := toml.Marshal(current)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	if _, err := f.Write(append([]byte(header), body...)); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	d.logger.Debug().
		Strs("editor", d.command).
		Str("file", path).
		Msg("opening config editor")

	args := append(append([]string{}, d.command[1:]...), path)
	if err := d.runner.Run(ctx, d.command[0], args...); err != nil {
		return fmt.Errorf("running editor %q: %w", d.command[0], err)
	}

	edited, err := readEdited(path)
	if err != nil {
		return err
	}

	if edited == current {
		d.logger.Info().Msg("config dialog closed without changes")
		return nil
	}

	if err := d.store.Save(edited); err != nil {
		d.logger.Error().Err(err).Msg("failed to save configuration")
	}

	return nil
}

func readEdited(path string) (models.TargetConfig, error) {
	var cfg models.TargetConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading edited config: %w", err)
	}

	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing edited config: %w", err)
	}

	cfg.MAC = strings.TrimSpace(cfg.MAC)
	cfg.IP = strings.TrimSpace(cfg.IP)
	return cfg, nil
}
