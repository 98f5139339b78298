package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Pending(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Storage(ctx context.Context, args []string) error
	Cleanup(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login, status, exit"
	helpLoggedIn  = "Available commands: import, (l)ist, pending, sync, delete, storage, cleanup, status, logout, exit"
)

// runREPL reads commands from scanner until EOF, exit or quit, or until ctx
// is done. Command errors are printed and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("jk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
		case "login":
			err = a.Login(ctx, args)
		case "status":
			err = a.Status(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "logout", "import", "l", "list", "pending", "sync", "delete", "storage", "cleanup":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			err = dispatch(ctx, a, cmd, args)
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "logout":
		return a.Logout(ctx, args)
	case "import":
		return a.Import(ctx, args)
	case "l", "list":
		return a.List(ctx, args)
	case "pending":
		return a.Pending(ctx, args)
	case "sync":
		return a.Sync(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	case "storage":
		return a.Storage(ctx, args)
	case "cleanup":
		return a.Cleanup(ctx, args)
	}
	return nil
}
