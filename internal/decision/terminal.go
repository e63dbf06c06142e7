package decision

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal asks on an interactive console. Input is read by a single
// background goroutine so a prompt abandoned on shutdown does not leave a
// second reader competing for the next line.
type Terminal struct {
	in       io.Reader
	out      io.Writer
	once     sync.Once
	lines    chan string
	readDone chan struct{}
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:       in,
		out:      out,
		lines:    make(chan string),
		readDone: make(chan struct{}),
	}
}

func (t *Terminal) startReader() {
	go func() {
		defer close(t.readDone)
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			t.lines <- scanner.Text()
		}
	}()
}

func (t *Terminal) AskContinueOrSkip(ctx context.Context, prompt Prompt) Decision {
	t.once.Do(t.startReader)
	t.printBanner(prompt)

	for {
		fmt.Fprint(t.out, "Enter your choice (continue/skip): ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.out, "\nShutdown requested. Skipping.")
			return Skip
		case <-t.readDone:
			fmt.Fprintln(t.out, "\nInput closed. Skipping.")
			return Skip
		case line := <-t.lines:
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "continue", "c":
				return Continue
			case "skip", "s":
				return Skip
			default:
				fmt.Fprintln(t.out, "Invalid choice. Please enter 'continue' or 'skip'.")
			}
		}
	}
}

func (t *Terminal) printBanner(prompt Prompt) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, rule)
	fmt.Fprintln(t.out, "NETWORK CONNECTIVITY ISSUE DETECTED")
	fmt.Fprintln(t.out, rule)
	fmt.Fprintf(t.out, "Failed to fetch URL after %d attempts:\n  %s\n", prompt.Attempts, prompt.URL)
	if prompt.Reason != "" {
		fmt.Fprintf(t.out, "Last error: %s\n", prompt.Reason)
	}
	fmt.Fprintf(t.out, "\nRetry cycle: %d/%d\n", prompt.Cycle, prompt.MaxCycles)
	if prompt.IsFinal() {
		fmt.Fprintln(t.out, "WARNING: This is the final retry cycle. If it fails, the URL will be skipped automatically.")
	}
	fmt.Fprintln(t.out, "\nOptions:")
	fmt.Fprintf(t.out, "  continue - Retry this URL (up to %d more attempts)\n", prompt.Attempts)
	fmt.Fprintln(t.out, "  skip     - Skip this URL and proceed to the next one")
	fmt.Fprintln(t.out, rule)
}
