// Command authbox is the terminal client for the authbox API.
//
// It covers the same flows the web frontend does — register, log in, show
// the current account, log out — with the session persisted under the
// user's config directory so it survives between invocations.
//
// Usage:
//
//	authbox [-server URL] register
//	authbox [-server URL] login
//	authbox [-server URL] me
//	authbox logout
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/arefin/authbox/internal/client"
)

const defaultServerURL = "http://localhost:5000"

// readPassword is a variable so tests can substitute terminal input.
var readPassword = term.ReadPassword

func main() {
	serverURL := flag.String("server", defaultServerURL, "base URL of the authbox server")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *serverURL); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command>

Commands:
  register    create a new account and log in
  login       log in with existing credentials
  me          show the account behind the saved session
  logout      discard the saved session

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func run(command, serverURL string) error {
	storePath, err := client.DefaultStorePath()
	if err != nil {
		return err
	}

	api := client.New(serverURL)
	manager := client.NewManager(api, client.NewStore(storePath))
	ctx := context.Background()

	switch command {
	case "register":
		email, password, err := promptCredentials()
		if err != nil {
			return err
		}
		sess, err := manager.Register(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Printf("Registered and logged in as %s\n", sess.User.Email)
		return nil

	case "login":
		email, password, err := promptCredentials()
		if err != nil {
			return err
		}
		sess, err := manager.Login(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", sess.User.Email)
		return nil

	case "me":
		sess, err := manager.Restore(ctx)
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				return errors.New("your session has expired, please log in again")
			}
			return err
		}
		if sess == nil {
			return errors.New("not logged in")
		}
		fmt.Printf("Logged in as %s (user #%d)\n", sess.User.Email, sess.User.ID)
		return nil

	case "logout":
		if err := manager.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// promptCredentials reads the email from stdin and the password without
// echo, so it never lands in terminal scrollback or shell history.
func promptCredentials() (email, password string, err error) {
	fmt.Print("Email: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading email: %w", err)
	}
	email = strings.TrimSpace(line)

	fmt.Print("Password: ")
	raw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println() // ReadPassword swallows the newline
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}

	return email, string(raw), nil
}

// describe turns a classified client error into a message for humans.
func describe(err error) string {
	var netErr *client.NetworkError
	if errors.As(err, &netErr) {
		return "could not reach the server, is it running?"
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
