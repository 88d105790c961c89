// asker implements the ports.ForAsking interface.
package asker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
	"golang.org/x/term"
)

var ErrNotTerminal = errors.New("stdin is not a terminal")

type forAsking struct {
	force    bool
	terminal func() bool
}

// New returns an asker that prompts in the terminal. With force every
// question is answered yes without prompting.
func New(force bool) ports.ForAsking {
	return &forAsking{
		force:    force,
		terminal: stdoutIsTerminal,
	}
}

func (p *forAsking) Ask(ctx context.Context, format string, a ...any) bool {
	l := logger.FromContext(ctx)
	if p.force {
		l.Info(fmt.Sprintf("%s? Yes", fmt.Sprintf(format, a...)))
		return true
	}
	return p.yes(ctx, format, a...)
}

func (p *forAsking) Input(ctx context.Context, message string) (string, error) {
	if !p.isTerminal() {
		return "", ErrNotTerminal
	}
	var answer string
	if err := survey.AskOne(&survey.Input{Message: message}, &answer, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return answer, nil
}

func (p *forAsking) Password(ctx context.Context, message string) (string, error) {
	if !p.isTerminal() {
		return "", ErrNotTerminal
	}
	var answer string
	if err := survey.AskOne(&survey.Password{Message: message}, &answer, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return answer, nil
}

func (p *forAsking) yes(ctx context.Context, format string, a ...any) bool {
	l := logger.FromContext(ctx)
	if !p.isTerminal() {
		l.Warn("Stdout is not a terminal, will answer no", "question", fmt.Sprintf(format, a...))
		return false
	}
	choice := ""
	prompt := &survey.Select{
		Message: fmt.Sprintf(format, a...) + "?",
		Options: []string{"No", "Yes", "Exit program"},
		Default: "No",
	}
	survey.AskOne(prompt, &choice)
	switch choice {
	case "", "No":
		return false
	case "Yes":
		return true
	case "Exit program":
		l.Warn("Exiting")
		os.Exit(0)
	}
	return false
}

func (p *forAsking) isTerminal() bool {
	if p.terminal == nil {
		return stdoutIsTerminal()
	}
	return p.terminal()
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
