package sink

import (
	"chatit/contract"
	"chatit/domain"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gookit/color"
)

var _ contract.Notifier = (*TerminalNotifier)(nil)

// TerminalNotifier prints alerts to a terminal, title in bold cyan.
type TerminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{out: out}
}

func (t *TerminalNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	at := time.UnixMilli(n.SentAt).Format(time.TimeOnly)
	_, err := fmt.Fprintf(t.out, "%s %s\n%s\n",
		color.FgDarkGray.Sprint(at),
		color.New(color.FgCyan, color.OpBold).Sprint(n.Title()),
		n.Body())
	return err
}
