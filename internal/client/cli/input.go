package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints a password prompt for user to w and reads the password
// from the terminal without echo.
func GetPassword(w io.Writer, user string) (string, error) {
	if _, err := fmt.Fprintf(w, "Password for %s: ", user); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// FillCredentials prompts for whatever of user and password is missing.
func FillCredentials(reader *bufio.Reader, w io.Writer, user, password *string) error {
	if *user == "" {
		u, err := GetSimpleText(reader, "User name", w)
		if err != nil {
			return err
		}
		*user = u
	}
	if *password == "" {
		pw, err := GetPassword(w, *user)
		if err != nil {
			return err
		}
		*password = pw
	}
	return nil
}
