package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/klabast/wb-services/meal-roster/internal/app"
)

func newHashPassphraseCmd() *cobra.Command {
	var overwrite, insecureUnmask bool

	cmd := &cobra.Command{
		Use:   "hash-passphrase",
		Short: "Create the kitchen credentials file (Argon2id)",
		Long: "Prompts for a kitchen username and passphrase and writes them, hashed with\n" +
			"Argon2id, to AUTH_FILE (default: auth.secret next to the binary).",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.AuthFilePath(os.Getenv("AUTH_FILE"))
			if err != nil {
				return err
			}
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return hashPassphrase(p, path, overwrite, insecureUnmask)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing auth file without asking")
	cmd.Flags().BoolVar(&insecureUnmask, "insecure-unmask-password", false, "Show the passphrase as plain text (INSECURE!)")
	return cmd
}

func hashPassphrase(p *prompter, path string, overwrite, unmask bool) error {
	user, err := p.line("Enter username: ")
	if err != nil {
		return fmt.Errorf("reading username: %w", err)
	}
	if user == "" {
		return errors.New("username cannot be empty")
	}

	var pass, confirm string
	if unmask || !p.terminal() {
		if unmask {
			fmt.Fprintln(p.errOut, warnStyle.Render("WARNING: the passphrase will be visible on screen!"))
		}
		if pass, err = p.line("Enter passphrase:   "); err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		if confirm, err = p.line("Confirm passphrase: "); err != nil {
			return fmt.Errorf("reading passphrase confirmation: %w", err)
		}
	} else {
		pass = p.masked("Enter passphrase:   ")
		confirm = p.masked("Confirm passphrase: ")
	}

	if pass == "" {
		return errors.New("passphrase cannot be empty")
	}
	if pass != confirm {
		return errors.New("passphrases do not match")
	}

	if _, err := os.Stat(path); err == nil && !overwrite {
		fmt.Fprintf(p.out, "Auth file already exists: %s\n", path)
		answer, _ := p.line("Overwrite? (y/N): ")
		answer = strings.ToLower(answer)
		if answer != "y" && answer != "yes" {
			return errors.New("aborted")
		}
		overwrite = true
	}

	if err := app.CreateAuthFile(path, user, pass, overwrite); err != nil {
		return err
	}
	fmt.Fprintln(p.out, okStyle.Render(fmt.Sprintf("Auth file created: %s (mode: 0400 read-only)", path)))
	fmt.Fprintf(p.out, "   Username: %s\n", user)
	return nil
}

// prompter reads answers from in, which may or may not be a terminal.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func newPrompter(in io.Reader, out, errOut io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), out: out, errOut: errOut}
}

func (p *prompter) fd() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	return int(f.Fd()), true
}

func (p *prompter) terminal() bool {
	fd, ok := p.fd()
	return ok && term.IsTerminal(fd)
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// masked reads a passphrase in raw mode and echoes an asterisk per character.
func (p *prompter) masked(prompt string) string {
	fmt.Fprint(p.out, prompt)
	fd, _ := p.fd()

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// fall back to hidden input
		pass, _ := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		return string(pass)
	}
	defer term.Restore(fd, oldState)

	var pass []byte
	for {
		char, _, err := p.reader.ReadRune()
		if err != nil {
			break
		}
		switch char {
		case '\n', '\r':
			fmt.Fprint(p.out, "\r\n")
			return string(pass)
		case 127, 8: // backspace, delete
			if len(pass) > 0 {
				pass = pass[:len(pass)-1]
				fmt.Fprint(p.out, "\b \b")
			}
		case 3: // Ctrl+C
			term.Restore(fd, oldState)
			fmt.Fprintln(p.out)
			os.Exit(1)
		default:
			if char >= 32 && char <= 126 {
				pass = append(pass, byte(char))
				fmt.Fprint(p.out, "*")
			}
		}
	}
	fmt.Fprint(p.out, "\r\n")
	return string(pass)
}
