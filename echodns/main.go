package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedisct1/dlog"
)

const AppVersion = "1.0.0"

type Request struct {
	Domain          string
	RecordType      string
	ResolverAddress string
	UseDoH          bool
	UseAXFR         bool
	DoHBaseURL      string
}

type App struct {
	stdout   io.Writer
	stderr   io.Writer
	flags    *ConfigFlags
	settings Settings
	querier  *Querier
}

func main() {
	dlog.Init("echodns", dlog.SeverityWarning, "DAEMON")
	app := &App{stdout: os.Stdout, stderr: os.Stderr}
	if err := ConfigLoad(app, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		dlog.Critical(err)
		os.Exit(1)
	}
	if *app.flags.Version {
		printVersion(app.stdout)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	app.Run(ctx)
}

func (app *App) Requests() []Request {
	flags := app.flags
	requests := make([]Request, 0, len(*flags.Domains))
	for _, domain := range *flags.Domains {
		requests = append(requests, Request{
			Domain:          domain,
			RecordType:      *flags.RecordType,
			ResolverAddress: *flags.Server,
			UseDoH:          *flags.DoH,
			UseAXFR:         *flags.AXFR,
			DoHBaseURL:      *flags.BaseURL,
		})
	}
	return requests
}

// Run processes the requested domains one after the other.
func (app *App) Run(ctx context.Context) {
	for _, request := range app.Requests() {
		if ctx.Err() != nil {
			dlog.Notice("Interrupted")
			break
		}
		app.querier.Dispatch(ctx, request)
	}
	app.querier.stats.Log()
	if app.settings.ShowStats {
		app.querier.stats.Print(app.stdout)
	}
}

// Dispatch routes a request to exactly one lookup path: AXFR, then DoH,
// then standard resolution.
func (querier *Querier) Dispatch(ctx context.Context, request Request) {
	switch {
	case request.UseAXFR:
		if len(request.ResolverAddress) == 0 {
			querier.formatter.Errorf("Nameserver must be specified for AXFR using -s option")
			return
		}
		querier.PerformAXFR(ctx, request.Domain, request.ResolverAddress)
	case request.UseDoH:
		querier.QueryDoH(ctx, request.Domain, request.RecordType, request.DoHBaseURL)
	default:
		querier.QueryStandard(ctx, request.Domain, request.RecordType, request.ResolverAddress)
	}
}
