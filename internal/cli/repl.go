package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Categories(ctx context.Context) error
	Edit(ctx context.Context) error
	Delete(ctx context.Context) error
	Favorite(ctx context.Context) error
	Syncable(ctx context.Context) error
	Generate(ctx context.Context) error
	Sync(ctx context.Context) error
	SyncAll(ctx context.Context) error
	Backup(ctx context.Context) error
	Rotate(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cyphero %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, (l)ist, categories, edit, delete, favorite, syncable, generate, sync, syncall, backup, rotate, delete-account, logout, exit")
			} else {
				printlnFn("Available commands: register, login, generate, backup, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "add":
			_ = a.Add(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "categories":
			_ = a.Categories(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "favorite":
			_ = a.Favorite(ctx)

		case "syncable":
			_ = a.Syncable(ctx)

		case "generate":
			_ = a.Generate(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "syncall":
			_ = a.SyncAll(ctx)

		case "backup":
			_ = a.Backup(ctx)

		case "rotate":
			_ = a.Rotate(ctx)

		case "delete-account":
			_ = a.DeleteAccount(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
