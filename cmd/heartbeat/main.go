package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/heartbeat-sense/heartbeat-go/api"
	"github.com/heartbeat-sense/heartbeat-go/internal/config"
	"github.com/heartbeat-sense/heartbeat-go/session"
	"github.com/heartbeat-sense/heartbeat-go/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("heartbeat failed")
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)

	if len(args) == 0 {
		displayAppname(c.GetAppName())
		usage()
		return nil
	}

	app, err := newApp(c)
	if err != nil {
		return errors.Wrap(err, "[run] newApp")
	}

	command, rest := args[0], args[1:]
	handler, ok := app.commands()[command]
	if !ok {
		usage()
		return errors.Errorf("unknown command %q", command)
	}
	return handler(rest)
}

// app bundles the wired client components every command works with.
type app struct {
	config  config.Config
	store   store.Store
	client  *api.Client
	session *session.Manager
}

func newApp(c config.Config) (*app, error) {
	st, err := store.NewFileStore(filepath.Join(c.GetDataDir(), "state.json"))
	if err != nil {
		return nil, errors.Wrap(err, "[newApp] NewFileStore")
	}

	client, err := api.New(c.GetBaseURL(), api.StoreTokenSource{Store: st, Key: session.StorageTokenKey})
	if err != nil {
		return nil, errors.Wrap(err, "[newApp] api.New")
	}

	sess, err := session.New(st, client)
	if err != nil {
		return nil, errors.Wrap(err, "[newApp] session.New")
	}

	return &app{config: c, store: st, client: client, session: sess}, nil
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func usage() {
	fmt.Println(`Usage: heartbeat <command> [flags]

Commands:
  login      sign in with email and password
  signup     create an account
  status     show session and profile status
  activity   show the half-hour activity log
  tag        assign a local label to an activity slot
  overview   show daily and weekly statistics
  dossier    show or edit the local medical dossier
  monitor    run a simulated measuring session
  logout     clear the local session`)
}
