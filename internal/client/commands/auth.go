package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"luchess/internal/client/api"
	"luchess/internal/client/display"

	"golang.org/x/term"
)

func (r *Registry) registerAuthCommands() {
	r.Register(&Command{
		Name:        "register",
		ShortName:   "r",
		Group:       GroupAccount,
		Description: "Create an account and sign in",
		Usage:       "register [username] [email]",
		Handler:     registerHandler,
	})
	r.Register(&Command{
		Name:        "login",
		ShortName:   "l",
		Group:       GroupAccount,
		Description: "Sign in by username or email",
		Usage:       "login [username|email]",
		Handler:     loginHandler,
	})
	r.Register(&Command{
		Name:        "logout",
		ShortName:   "o",
		Group:       GroupAccount,
		Description: "End the server session and forget the token",
		Usage:       "logout",
		Handler:     logoutHandler,
	})
	r.Register(&Command{
		Name:        "whoami",
		ShortName:   "i",
		Group:       GroupAccount,
		Description: "Show the signed-in account",
		Usage:       "whoami",
		Handler:     whoamiHandler,
	})
}

var stdin = bufio.NewScanner(os.Stdin)

// argOrPrompt returns args[i] when given, otherwise reads a line
func argOrPrompt(args []string, i int, label string) string {
	if i < len(args) {
		return args[i]
	}
	fmt.Print(display.Yellow + label + ": " + display.Reset)
	stdin.Scan()
	return strings.TrimSpace(stdin.Text())
}

func readPassword() (string, error) {
	fmt.Print(display.Yellow + "Password: " + display.Reset)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(pw), err
}

// signIn keeps the issued token and identity in the session
func signIn(s Session, resp *api.AuthResponse, verb string) {
	s.SetAuthToken(resp.Token)
	s.SetCurrentUser(resp.UserID)
	s.SetUsername(resp.Username)

	fmt.Printf("%s%s as %s%s\n", display.Green, verb, resp.Username, display.Reset)
	fmt.Printf("User ID: %s\n", resp.UserID)
}

// signOut forgets the identity; the seat color goes with it
func signOut(s Session) {
	s.SetAuthToken("")
	s.SetCurrentUser("")
	s.SetUsername("")
	s.SetPlayerColor("")
}

func registerHandler(s Session, args []string) error {
	username := argOrPrompt(args, 0, "Username")
	if username == "" {
		return fmt.Errorf("usage: register [username] [email]")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	email := argOrPrompt(args, 1, "Email (optional)")

	resp, err := s.GetClient().(*api.Client).Register(username, password, email)
	if err != nil {
		return err
	}
	signIn(s, resp, "Registered")
	return nil
}

func loginHandler(s Session, args []string) error {
	identifier := argOrPrompt(args, 0, "Username or email")
	if identifier == "" {
		return fmt.Errorf("usage: login [username|email]")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}

	resp, err := s.GetClient().(*api.Client).Login(identifier, password)
	if err != nil {
		return err
	}
	signIn(s, resp, "Logged in")
	return nil
}

func logoutHandler(s Session, args []string) error {
	if s.GetAuthToken() == "" {
		fmt.Printf("%sNot signed in%s\n", display.Yellow, display.Reset)
		return nil
	}

	// local credentials go even if the server call fails
	err := s.GetClient().(*api.Client).Logout()
	signOut(s)
	if err != nil {
		return err
	}

	fmt.Printf("%sLogged out%s\n", display.Green, display.Reset)
	return nil
}

func whoamiHandler(s Session, args []string) error {
	if s.GetAuthToken() == "" {
		fmt.Printf("%sNot signed in%s\n", display.Yellow, display.Reset)
		return nil
	}

	user, err := s.GetClient().(*api.Client).GetCurrentUser()
	if err != nil {
		return err
	}

	fmt.Printf("%s%s%s (%s)\n", display.Cyan, user.Username, display.Reset, user.UserID)
	if user.Email != "" {
		fmt.Printf("  email:   %s\n", user.Email)
	}
	fmt.Printf("  since:   %s\n", user.CreatedAt.Format("2006-01-02"))
	if color := s.GetPlayerColor(); color != "" {
		fmt.Printf("  playing: %s\n", display.ColorForTurn(color))
	}
	return nil
}
