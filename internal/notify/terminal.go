package notify

import (
	"fmt"
	"io"
	"sync"
)

// TerminalNotifier renders notifications as a highlighted line on the given
// writer. It stands in for a desktop notification center when the client runs
// in a plain terminal.
type TerminalNotifier struct {
	mu sync.Mutex
	W  io.Writer
}

type terminalHandle struct{}

func (terminalHandle) Dismiss() {}

func (n *TerminalNotifier) Show(title, body string, onActivate func()) (Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprintf(n.W, "\r\n[%s] %s\r\n", title, body); err != nil {
		return nil, err
	}
	return terminalHandle{}, nil
}

// BellPlayer implements the audio cue with the terminal bell. Volume zero is
// treated as muted; the bell itself has no volume control.
type BellPlayer struct {
	mu sync.Mutex
	W  io.Writer
}

func (p *BellPlayer) Play(volume float64) error {
	if volume <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.W, "\a")
	return err
}
