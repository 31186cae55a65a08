package main

import (
	"bufio"
	"cmp"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akovalenko/sessionauth/internal/client/api"
	"github.com/akovalenko/sessionauth/internal/client/session"
	"github.com/akovalenko/sessionauth/internal/models"
)

const requestTimeout = 10 * time.Second

var (
	version   string
	buildDate string
)

// printNavigator announces navigation outcomes on stdout; the CLI has no
// views to switch between, so landing/profile/success are just messages.
type printNavigator struct{}

func (printNavigator) ToProfile() { fmt.Println("→ profile") }
func (printNavigator) ToLanding() { fmt.Println("→ landing") }
func (printNavigator) ToSuccess() { fmt.Println("→ registration successful, you can log in now") }

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func printUser(u *models.User) {
	fmt.Printf("Logged in as %s (%s %s)\n", u.Username, u.FirstName, u.LastName)
}

// repl runs the interactive shell loop, accepting session commands.
func repl(sess *session.Session) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("auth> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, login <username> <password>, register, whoami, logout, exit")
		case "login":
			if len(args) < 3 {
				fmt.Println("Usage: login <username> <password>")
				continue
			}
			ctx, cancel := withTimeout()
			res := sess.Login(ctx, args[1], args[2])
			cancel()
			switch res.Kind {
			case session.ResultOK:
				printUser(sess.CurrentUser())
			case session.ResultRejected:
				fmt.Println("Login failed:", res.Message)
			case session.ResultTransport:
				fmt.Println("Server unreachable:", res.Message)
			}
		case "register":
			reg := promptRegistration(scanner)
			ctx, cancel := withTimeout()
			res := sess.Register(ctx, reg)
			cancel()
			switch res.Kind {
			case session.ResultRejected:
				fmt.Println("Registration failed:", res.Message)
			case session.ResultTransport:
				fmt.Println("Server unreachable:", res.Message)
			}
		case "whoami":
			if u := sess.CurrentUser(); u != nil {
				printUser(u)
			} else {
				fmt.Println("Not logged in")
			}
		case "logout":
			if err := sess.Logout(); err != nil {
				fmt.Println("Logout failed:", err)
			}
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// promptRegistration reads the registration form fields line by line.
func promptRegistration(scanner *bufio.Scanner) models.Registration {
	read := func(label string) string {
		fmt.Print(label + ": ")
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}
	return models.Registration{
		Username:  read("Username"),
		FirstName: read("First name"),
		LastName:  read("Last name"),
		Password:  read("Password"),
	}
}

// main parses command-line flags, restores any persisted session,
// and drops into the shell.
func main() {
	var (
		baseURL   string
		storePath string
		showVer   bool
	)

	flag.StringVar(&baseURL, "url", cmp.Or(os.Getenv("BACKEND_URL"), "http://localhost:3000"), "server base URL")
	flag.StringVar(&storePath, "storage", "session.json", "path to the token storage file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("SessionAuth Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	store := session.NewFileStore(storePath)
	sess := session.New(api.New(baseURL), store, printNavigator{}, nil)

	// Restore login state persisted by a previous run before the shell
	// reads any commands.
	ctx, cancel := withTimeout()
	state := sess.Restore(ctx)
	cancel()
	if state == session.StateAuthenticated {
		printUser(sess.CurrentUser())
	}

	repl(sess)
}
