package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/archicontribs/modelrepo/pkg/git"
)

// terminalPrompter asks for a username on the terminal and reads the
// password without echo.
type terminalPrompter struct {
	in  *os.File
	out io.Writer
}

func newTerminalPrompter(in *os.File, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: in, out: out}
}

func (p *terminalPrompter) Prompt(ctx context.Context, label string) (git.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return git.Credentials{}, err
	}

	fmt.Fprintf(p.out, "Credentials for %s\nUsername: ", label)
	username, err := bufio.NewReader(p.in).ReadString('\n')
	username = strings.TrimSpace(username)
	if err != nil && username == "" {
		fmt.Fprintln(p.out)
		return git.Credentials{}, git.ErrPromptCancelled
	}
	if username == "" {
		return git.Credentials{}, git.ErrPromptCancelled
	}

	password, err := p.readPassword("Password: ")
	if err != nil {
		return git.Credentials{}, err
	}

	return git.Credentials{Username: username, Password: password}, nil
}

func (p *terminalPrompter) readPassword(label string) (string, error) {
	fmt.Fprint(p.out, label)
	raw, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", git.ErrPromptCancelled, err)
	}
	return string(raw), nil
}

// credentialFlags are the explicit credential options of remote commands.
type credentialFlags struct {
	username      string
	passwordStdin bool
}

func (f *credentialFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.username, "username", "u", "", "Username for the remote (overrides stored credentials)")
	flags.BoolVar(&f.passwordStdin, "password-stdin", false, "Read the password from stdin")
}

// credentials returns explicit credentials, or nil when no username was given.
// Without --password-stdin the password is read from the terminal.
func (f *credentialFlags) credentials(in io.Reader) (*git.Credentials, error) {
	if f.username == "" {
		if f.passwordStdin {
			return nil, fmt.Errorf("--password-stdin requires --username")
		}
		return nil, nil
	}

	var password string
	if f.passwordStdin {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read password from stdin: %w", err)
		}
		password = strings.TrimRight(string(data), "\r\n")
	} else {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("no terminal to read the password from, use --password-stdin")
		}
		var err error
		password, err = newTerminalPrompter(os.Stdin, os.Stderr).readPassword("Password: ")
		if err != nil {
			return nil, err
		}
	}

	return &git.Credentials{Username: f.username, Password: password}, nil
}
