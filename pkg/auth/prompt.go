package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Authorizer sends the user to the authorization page and returns the URL
// the provider redirected them to.
type Authorizer interface {
	Authorize(ctx context.Context, authURL string) (redirectURL string, err error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, authURL string) (string, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, authURL string) (string, error) {
	return f(ctx, authURL)
}

// BrowserPrompt opens the authorization page in the default browser and
// asks for the redirect URL on the console.
type BrowserPrompt struct {
	In   io.Reader
	Out  io.Writer
	Open func(url string) error
}

// Authorize implements Authorizer.
func (p BrowserPrompt) Authorize(ctx context.Context, authURL string) (string, error) {
	in, out, open := p.In, p.Out, p.Open
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	if open == nil {
		open = OpenBrowser
	}

	fmt.Fprintf(out, "Please open the following URL in your browser to authorize ticktask:\n%s\n\n", authURL)
	if err := open(authURL); err != nil {
		fmt.Fprintf(out, "Could not open a browser (%v); copy the URL above instead.\n", err)
	}
	fmt.Fprint(out, "Paste the full URL you were redirected to: ")

	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			errCh <- fmt.Errorf("reading redirect URL: %w", err)
			return
		}
		lineCh <- strings.TrimSpace(line)
	}()

	select {
	case line := <-lineCh:
		return line, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
