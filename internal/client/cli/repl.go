package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Exec(ctx context.Context, name string, args []string) error
}

// runREPL reads one command per line from scanner and dispatches it to a.
//
// "help" prints the command list and "exit" or "quit" ends the loop, as does
// scanner EOF. A failing command prints its error and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("agile %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpText())
			} else {
				printlnFn("Available commands: login, help, exit")
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			err := a.Exec(ctx, cmd, args)
			switch {
			case err == nil:
			case errors.Is(err, ErrUnknownCommand):
				printlnFn("Unknown command:", cmd)
			case errors.Is(err, ErrUsage):
				printlnFn("Usage:", strings.TrimPrefix(err.Error(), ErrUsage.Error()+": "))
			default:
				printlnFn("Error:", err)
			}
		}
	}
}
