package main

import (
	"chatit/internal"
	"chatit/membership"
	"chatit/repositories"
	"chatit/store"
	"io"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// app holds what every command needs. The document store lives in the same
// badger database as the local records, and badger locks its directory:
// one chatit process at a time, live commands only see writes made by themselves.
type app struct {
	log        *slog.Logger
	config     internal.Config
	in         io.Reader
	out        io.Writer
	store      *store.DocumentStore
	session    *repositories.SessionRepository
	alerts     repositories.AlertRepository
	membership *membership.Service
}

func newApp(log *slog.Logger, config internal.Config, db *badger.DB, in io.Reader, out io.Writer) *app {
	documents := store.NewBadgerStore(db, log)
	return &app{
		log:        log,
		config:     config,
		in:         in,
		out:        out,
		store:      documents,
		session:    repositories.NewSessionRepository(db),
		alerts:     repositories.NewAlertRepository(db, log, config.LimitAlerts),
		membership: membership.NewService(log, documents),
	}
}

func (a *app) close() {
	_ = a.store.Close()
}
