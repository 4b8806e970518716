package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Goto(ctx context.Context, path string) error
	List(ctx context.Context, args []string) error
	Create(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Attach(ctx context.Context, args []string) error
	URL(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: login [email], signup [email], goto <path>, help, exit"
	helpSignedIn  = "Available commands: goto <path>, list [table], create <table> k=v..., " +
		"update <table> <id> k=v..., delete <table> <id>, attach <table> <id> <file>, url [put] <key>, " +
		"whoami, logout, help, exit"
)

// runREPL starts a simple read–eval–print loop for the console.
//
// It reads a line from reader, takes the first token as the command and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// Command errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gopanel %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "signup", "register":
			cmdErr = a.Signup(ctx, args)

		case "login":
			cmdErr = a.Login(ctx, args)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "goto", "go":
			if len(args) != 1 {
				printlnFn("Usage: goto <path>")
				continue
			}
			cmdErr = a.Goto(ctx, args[0])

		case "l", "list":
			cmdErr = a.List(ctx, args)

		case "create":
			cmdErr = a.Create(ctx, args)

		case "update":
			cmdErr = a.Update(ctx, args)

		case "delete", "rm":
			cmdErr = a.Delete(ctx, args)

		case "attach":
			cmdErr = a.Attach(ctx, args)

		case "url":
			cmdErr = a.URL(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
