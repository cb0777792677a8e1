package main

import (
	"chatit/codec"
	"chatit/contract"
	"chatit/domain"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var _ contract.TimelineView = (*terminalView)(nil)

// terminalView renders a conversation: the history as a table, then one line per new message.
type terminalView struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{out: out}
}

func (v *terminalView) OnHistoryLoaded(messages []domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	table := newTable(v.out, "ID", "Sent at", "Sender", "Message")
	for _, m := range messages {
		table.Append([]string{m.ID, sentAt(m), m.Sender, text(m)})
	}
	table.Render()
}

// OnMessageInserted prints the message even when it lands before the end:
// a terminal cannot insert above what it already printed.
func (v *terminalView) OnMessageInserted(_ int, m domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "%s %s %s\n", color.FgDarkGray.Sprint(sentAt(m)), color.FgGreen.Sprint(m.Sender+":"), text(m))
}

func (v *terminalView) ScrollTo(int) {}

func (v *terminalView) OnError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, color.FgRed.Sprint(err.Error()))
}

func sentAt(m domain.Message) string {
	return time.UnixMilli(m.SentAt).Format(time.DateTime)
}

func text(m domain.Message) string {
	decoded, err := codec.Decode(m.Content)
	if err != nil {
		return m.Content
	}
	return decoded
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
