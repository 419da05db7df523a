package commands

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"luchess/internal/client/api"
	"luchess/internal/client/display"

	"github.com/chzyer/readline"
)

func (r *Registry) registerDebugCommands() {
	r.Register(&Command{
		Name:        "health",
		ShortName:   ".",
		Group:       GroupUtility,
		Description: "Show server storage, games and waiting polls",
		Usage:       "health",
		Handler:     healthHandler,
	})
	r.Register(&Command{
		Name:        "url",
		ShortName:   "/",
		Group:       GroupUtility,
		Description: "Show or change the server address",
		Usage:       "url [host:port|http(s)://host:port]",
		Handler:     urlHandler,
	})
	r.Register(&Command{
		Name:        "raw",
		ShortName:   ":",
		Group:       GroupUtility,
		Description: "Send a request as typed, e.g. raw post /api/v1/games {}",
		Usage:       "raw <method> <path> [json-body]",
		Handler:     rawRequestHandler,
	})
	r.Register(&Command{
		Name:        "clear",
		ShortName:   "-",
		Group:       GroupUtility,
		Description: "Clear the terminal",
		Usage:       "clear",
		Handler:     clearHandler,
	})
}

func healthHandler(s Session, args []string) error {
	resp, err := s.GetClient().(*api.Client).Health()
	if err != nil {
		return err
	}

	status := display.Green + resp.Status + display.Reset
	if resp.Status != "healthy" {
		status = display.Yellow + resp.Status + display.Reset
	}
	storage := resp.Storage
	if storage == "" {
		storage = "unknown"
	}

	fmt.Printf("%s %s at %s\n", status, s.GetAPIBaseURL(), time.Unix(resp.Time, 0).Format(time.TimeOnly))
	fmt.Printf("  storage: %s\n", storage)
	fmt.Printf("  games:   %d in memory, %d poll(s) waiting\n", resp.Games, resp.Waiting)
	return nil
}

// normalizeBaseURL defaults the scheme to http and drops any path
func normalizeBaseURL(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func urlHandler(s Session, args []string) error {
	if len(args) == 0 {
		fmt.Printf("Server: %s\n", s.GetAPIBaseURL())
		return nil
	}

	base, err := normalizeBaseURL(args[0])
	if err != nil {
		return err
	}
	s.SetAPIBaseURL(base)
	s.GetClient().(*api.Client).SetBaseURL(base)

	fmt.Printf("%sServer set to %s%s\n", display.Cyan, base, display.Reset)
	return nil
}

func rawRequestHandler(s Session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: raw <method> <path> [json-body]")
	}

	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	body := strings.Join(args[2:], " ")

	return s.GetClient().(*api.Client).RawRequest(strings.ToUpper(args[0]), path, body)
}

func clearHandler(s Session, args []string) error {
	// ClearScreen only homes the cursor; erase everything below it
	if _, err := readline.ClearScreen(os.Stdout); err != nil {
		return err
	}
	_, err := fmt.Fprint(os.Stdout, "\033[J")
	return err
}
