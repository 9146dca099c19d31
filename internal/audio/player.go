package audio

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Player plays a clip file to the speakers
type Player interface {
	// Play blocks until the clip finished. Cancelling ctx stops the output
	// right away and Play returns ctx.Err().
	Play(ctx context.Context, file string) error
}

// filePlaceholder marks where the clip path goes in a custom player command
const filePlaceholder = "{file}"

var lookPath = exec.LookPath

// ExecPlayer plays clips through an external command line player
type ExecPlayer struct {
	command []string
}

// NewExecPlayer creates a player. An empty command picks a platform player
// on every Play call; otherwise the command line is split shell-style and the
// clip path replaces {file}, or is appended when there is no placeholder.
func NewExecPlayer(command string) (*ExecPlayer, error) {
	p := &ExecPlayer{}
	if strings.TrimSpace(command) == "" {
		return p, nil
	}

	args, err := shellwords.NewParser().Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse player command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("player command empty")
	}
	p.command = args
	return p, nil
}

// Play starts the player process and waits for it
func (p *ExecPlayer) Play(ctx context.Context, file string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	args, err := p.commandLine(file)
	if err != nil {
		return err
	}

	// CommandContext kills the process when ctx is cancelled
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("%s failed: %w", args[0], runErr)
	}
	return nil
}

func (p *ExecPlayer) commandLine(file string) ([]string, error) {
	if len(p.command) > 0 {
		args := make([]string, 0, len(p.command)+1)
		replaced := false
		for _, arg := range p.command {
			if strings.Contains(arg, filePlaceholder) {
				arg = strings.ReplaceAll(arg, filePlaceholder, file)
				replaced = true
			}
			args = append(args, arg)
		}
		if !replaced {
			args = append(args, file)
		}
		return args, nil
	}

	return platformCommand(runtime.GOOS, file)
}

// platformCommand picks a player available on this system
func platformCommand(goos, file string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"afplay", file}, nil
	case "linux":
		// mpg123 first since it handles MP3 files best
		candidates := [][]string{
			{"mpg123", "-q", file},
			{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", file},
			{"play", "-q", file}, // SoX
			{"paplay", file},
			{"aplay", "-q", file},
		}
		for _, c := range candidates {
			if _, err := lookPath(c[0]); err == nil {
				return c, nil
			}
		}
		return nil, fmt.Errorf("no audio player found. Install mpg123, ffplay, sox, paplay, or aplay")
	case "windows":
		return []string{"cmd", "/c", "start", "", "/wait", "/min", file}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
