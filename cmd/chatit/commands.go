package main

import (
	"bufio"
	"chatit/contract"
	"chatit/domain"
	"chatit/domain/event"
	"chatit/errors"
	"chatit/projection"
	"chatit/runtime"
	"chatit/runtime/workers"
	"chatit/sink"
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

var errUsage = stdErrors.New("wrong arguments")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":          {usage: "<username> [email]", help: "sign this device in, creating the identity when missing", run: login},
	"logout":         {usage: "", help: "sign this device out", run: logout},
	"listen":         {usage: "", help: "raise an alert for every new message of your groups (locks the database)", run: listen},
	"history":        {usage: "<conversation>", help: "print a conversation and follow it live (locks the database)", run: history},
	"chat":           {usage: "<conversation>", help: "follow a conversation, send every line typed and raise alerts", run: chat},
	"send":           {usage: "<conversation> <text...>", help: "send a message", run: send},
	"delete-message": {usage: "<conversation> <message-id>", help: "delete one message, ids are shown by history", run: deleteMessage},
	"bio":            {usage: "<text...>", help: "update your profile biography", run: bio},
	"groups":         {usage: "", help: "list your groups", run: groups},
	"create":         {usage: "<name> [usernames...]", help: "create a group you own", run: create},
	"add":            {usage: "<conversation> <usernames...>", help: "add users to a group you own", run: add},
	"kick":           {usage: "<conversation> <username>", help: "remove someone from a group you own", run: kick},
	"leave":          {usage: "<conversation>", help: "leave a group", run: leave},
	"users":          {usage: "[prefix]", help: "search users by username prefix", run: users},
	"alerts":         {usage: "<conversation>", help: "print the alerts shown for a conversation", run: alerts},
	"delete-account": {usage: "", help: "delete your identity and the groups you own", run: deleteAccount},
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "usage: chatit <command> [arguments]")
	names := lo.Keys(commands)
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-15s %-32s %s\n", name, commands[name].usage, commands[name].help)
	}
}

func conversationArg(args []string) (domain.ConversationID, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: conversation must be a number", errUsage)
	}
	return domain.ConversationID(id), nil
}

func login(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}
	username := args[0]
	_, err := a.membership.Directory().GetUser(ctx, username)
	if stdErrors.Is(err, errors.ErrNotFound) {
		user := domain.User{Username: username}
		if len(args) == 2 {
			user.Email = args[1]
		}
		if err = a.store.Set(ctx, domain.UserPath(username), user.Fields()); err != nil {
			return err
		}
		a.log.Info("Identity created", "username", username)
	} else if err != nil {
		return err
	}
	if err = a.session.SaveUsername(username); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", username)
	return nil
}

func logout(_ context.Context, a *app, _ []string) error {
	return a.session.Clear()
}

// alertWorkers wires the notification engine of the session identity to the alert sinks.
func alertWorkers(a *app) contract.ISupervisor {
	events := make(chan event.DomainEvent, a.config.BufferSize)
	engine := runtime.NewNotificationEngine(a.log, a.store, runtime.NewRegistry(), a.session, events)
	fanout := workers.NewEventFanout(a.log, events, a.config.SinkTimeout,
		sink.NewNotifierSink(sink.NewTerminalNotifier(a.out), a.log),
		sink.NewAlertLogSink(a.alerts, a.log),
		sink.NewLogSink(a.log),
	)
	return workers.NewSupervisor(a.log).
		WithRestartDelay(a.config.RestartInterval).
		Add(engine, fanout)
}

func listen(ctx context.Context, a *app, _ []string) error {
	if _, err := a.session.CurrentUsername(); err != nil {
		return err
	}
	alertWorkers(a).Run(ctx)
	return nil
}

// chat runs a conversation stream and the notification engine in one process,
// so the lines typed here reach both while the database stays locked.
func chat(ctx context.Context, a *app, args []string) error {
	id, err := conversationArg(args)
	if err != nil {
		return err
	}
	stream, err := openStream(a, id)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()
	if err = stream.Open(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		alertWorkers(a).Run(ctx)
	}()

	err = sendLines(ctx, stream, a.in)
	cancel()
	<-done
	return err
}

// sendLines sends every non blank line of in until it is exhausted or ctx ends.
func sendLines(ctx context.Context, stream *projection.ConversationStream, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if _, err := stream.Send(ctx, line); err != nil {
				return err
			}
		}
	}
}

func openStream(a *app, id domain.ConversationID) (*projection.ConversationStream, error) {
	identity, err := a.session.CurrentUsername()
	if err != nil {
		return nil, err
	}
	return projection.NewConversationStream(a.log, a.store, newTerminalView(a.out), identity, id)
}

func history(ctx context.Context, a *app, args []string) error {
	id, err := conversationArg(args)
	if err != nil {
		return err
	}
	stream, err := openStream(a, id)
	if err != nil {
		return err
	}
	if err = stream.Open(ctx); err != nil {
		_ = stream.Close()
		return err
	}
	<-ctx.Done()
	return stream.Close()
}

func send(ctx context.Context, a *app, args []string) error {
	id, err := conversationArg(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errUsage
	}
	stream, err := openStream(a, id)
	if err != nil {
		return err
	}
	_, err = stream.Send(ctx, strings.Join(args[1:], " "))
	return err
}

func deleteMessage(ctx context.Context, a *app, args []string) error {
	id, err := conversationArg(args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return errUsage
	}
	stream, err := openStream(a, id)
	if err != nil {
		return err
	}
	if err = stream.DeleteMessage(ctx, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Message %s deleted\n", args[1])
	return nil
}

func bio(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	identity, err := a.session.CurrentUsername()
	if err != nil {
		return err
	}
	return a.membership.Directory().UpdateBiography(ctx, identity, strings.Join(args, " "))
}

func groups(ctx context.Context, a *app, _ []string) error {
	identity, err := a.session.CurrentUsername()
	if err != nil {
		return err
	}
	convs, err := a.membership.ListForMember(ctx, identity)
	if err != nil {
		return err
	}
	table := newTable(a.out, "ID", "Name", "Owner", "Members")
	for _, conv := range convs {
		table.Append([]string{
			strconv.Itoa(int(conv.ID)),
			conv.Name,
			conv.Owner,
			strings.Join(conv.Usernames(), ", "),
		})
	}
	table.Render()
	return nil
}

func create(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	identity, err := a.session.CurrentUsername()
	if err != nil {
		return err
	}
	conv, err := a.membership.Create(ctx, domain.NewConversationRequest{
		Owner:   identity,
		Name:    args[0],
		Members: args[1:],
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %q with id %d\n", conv.Name, conv.ID)
	return nil
}

func add(ctx context.Context, a *app, args []string) error {
	id, err := conversationArg(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return errUsage
	}
	identity, err := a.session.CurrentUsername()
	if err != nil {
		return err
	}
	conv, err := a.membership.Add(ctx, id, identity, args[1:])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Members: %s\n", strings.Join(conv.Usernames(), ", "))
	return nil
}

func kick(ctx context.Context, a *app, args []string) error {
	id, err := conversationArg(args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return errUsage
	}
	identity, err := a.session.CurrentUsername()
	if err != nil {
		return err
	}
	conv, err := a.membership.Kick(ctx, id, identity, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Members: %s\n", strings.Join(conv.Usernames(), ", "))
	return nil
}

func leave(ctx context.Context, a *app, args []string) error {
	id, err := conversationArg(args)
	if err != nil {
		return err
	}
	identity, err := a.session.CurrentUsername()
	if err != nil {
		return err
	}
	_, err = a.membership.Leave(ctx, id, identity)
	return err
}

func users(ctx context.Context, a *app, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	var exclude []string
	if identity, err := a.session.CurrentUsername(); err == nil {
		exclude = append(exclude, identity)
	}
	found, err := a.membership.Directory().Search(ctx, prefix, exclude)
	if err != nil {
		return err
	}
	table := newTable(a.out, "Username", "Email", "Biography")
	for _, user := range found {
		table.Append([]string{user.Username, user.Email, user.Biography})
	}
	table.Render()
	return nil
}

func alerts(_ context.Context, a *app, args []string) error {
	id, err := conversationArg(args)
	if err != nil {
		return err
	}
	stored, _, err := a.alerts.GetAlerts(id, nil)
	if err != nil {
		return err
	}
	table := newTable(a.out, "Sent at", "Group", "Sender", "Content")
	for _, alert := range stored {
		table.Append([]string{
			time.UnixMilli(alert.SentAt).Format(time.DateTime),
			alert.Name,
			alert.Sender,
			alert.Content,
		})
	}
	table.Render()
	return nil
}

func deleteAccount(ctx context.Context, a *app, _ []string) error {
	identity, err := a.session.CurrentUsername()
	if err != nil {
		return err
	}
	deleted, err := a.membership.Directory().DeleteUser(ctx, identity)
	if err != nil {
		return err
	}
	if err = a.session.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s deleted with %d groups\n", identity, deleted)
	return nil
}
