package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/ui"
)

// terminalPrompter interacts with the user on the terminal.
//
// Answers given on the command line are used instead of prompting.
type terminalPrompter struct {
	in           *bufio.Reader
	out          io.Writer
	readPassword func() ([]byte, error)

	message   string // commit message
	branch    string // picked branch
	assumeYes bool
}

var _ ui.Prompter = &terminalPrompter{}

func newTerminalPrompter() *terminalPrompter {
	p := &terminalPrompter{
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		assumeYes: lineageFlags.root.yes,
		message:   lineageFlags.commit.message,
		branch:    lineageFlags.branch.name,
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.readPassword = func() ([]byte, error) {
			defer fmt.Fprintln(p.out)
			return term.ReadPassword(fd)
		}
	}
	return p
}

func (p *terminalPrompter) readLine(prompt string) (string, bool) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (p *terminalPrompter) RequestCommitMessage() ui.Result[string] {
	if p.message != "" {
		return ui.Ok(p.message)
	}
	message, ok := p.readLine("Commit message: ")
	if !ok || message == "" {
		return ui.Cancel[string]()
	}
	return ui.Ok(message)
}

func (p *terminalPrompter) RequestCredentials(url string, previousAttemptFailed bool) ui.Result[ui.Credentials] {
	if previousAttemptFailed {
		color.New(color.FgRed).Fprintln(p.out, "Authentication failed, please try again.")
	}
	fmt.Fprintf(p.out, "Credentials for %s\n", url)
	username, ok := p.readLine("Username: ")
	if !ok || username == "" {
		return ui.Cancel[ui.Credentials]()
	}

	var password string
	if p.readPassword != nil {
		fmt.Fprint(p.out, "Password: ")
		b, err := p.readPassword()
		if err != nil {
			return ui.Cancel[ui.Credentials]()
		}
		password = string(b)
	} else if password, ok = p.readLine("Password: "); !ok {
		return ui.Cancel[ui.Credentials]()
	}
	return ui.Ok(ui.Credentials{Username: username, Password: password})
}

func (p *terminalPrompter) ShowError(title string, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(p.out, "%s failed\n", title)
	fmt.Fprintln(p.out, errors.Details(err))
}

func (p *terminalPrompter) ShowBranchPicker(branches []string, current string) ui.Result[string] {
	if p.branch != "" {
		return ui.Ok(p.branch)
	}
	if len(branches) == 0 {
		fmt.Fprintln(p.out, "No branch to choose from.")
		return ui.Cancel[string]()
	}
	for i, b := range branches {
		marker := " "
		if b == current {
			marker = "*"
		}
		fmt.Fprintf(p.out, "%s %2d) %s\n", marker, i+1, b)
	}
	answer, ok := p.readLine("Select a branch: ")
	if !ok || answer == "" {
		return ui.Cancel[string]()
	}
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(branches) {
			return ui.Cancel[string]()
		}
		return ui.Ok(branches[n-1])
	}
	return ui.Ok(answer)
}

func (p *terminalPrompter) Notify(title, message string) {
	color.New(color.FgGreen).Fprint(p.out, "✓ ")
	fmt.Fprintf(p.out, "%s: %s\n", title, message)
}

func (p *terminalPrompter) Confirm(title, message string) bool {
	color.New(color.FgYellow, color.Bold).Fprintln(p.out, title)
	fmt.Fprintln(p.out, message)
	if p.assumeYes {
		return true
	}
	answer, ok := p.readLine("[y/N] ")
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
