package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gregory-j-wilson/Suplica/internal/api"
	"github.com/gregory-j-wilson/Suplica/internal/app"
	"github.com/gregory-j-wilson/Suplica/internal/config"
	"github.com/gregory-j-wilson/Suplica/internal/geocode"
	"github.com/gregory-j-wilson/Suplica/internal/prayerroom"
	"github.com/gregory-j-wilson/Suplica/internal/router"
	"github.com/gregory-j-wilson/Suplica/internal/session"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
	"github.com/gregory-j-wilson/Suplica/pkg/tlsutil"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

const usage = `usage: suplica [flags] [command]

commands:
  ui                   interactive client (default)
  login                start a session
  signup               create an account and start a session
  logout               end the session
  whoami               show the current session
  register-missionary  add yourself to the missionaries map
  version              print version

flags:
`

func setLogger(fname string, debug bool) io.Closer {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)

	if fname != "" {
		if f, err := os.OpenFile(fname, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
			w, closer = f, f
		} else {
			fmt.Fprintf(os.Stderr, "can't open log file %s: %s\n", fname, err)
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))

	return closer
}

func newApp(cfg *config.AppConfig) (*app.App, error) {
	remote := api.New(cfg.APIURL(), cfg.HTTPTimeout())
	remote.SetLegacyLogin(cfg.LegacyLogin())

	if cert := cfg.String("ssl.cert"); cert != "" {
		tlsConf, err := tlsutil.ClientConfig(cert, cfg.String("ssl.password"), cfg.Bool("ssl.strict"))
		if err != nil {
			return nil, fmt.Errorf("client cert: %w", err)
		}

		remote.SetTLS(tlsConf)
	}

	lat, lon := cfg.MyPosition()

	opts := app.Options{
		Room: prayerroom.Config{
			PollInterval:   cfg.PollInterval(),
			ReconcileDelay: cfg.ReconcileDelay(),
		},
		MyPos: model.NewPos(lat, lon),
	}

	return app.New(
		remote,
		geocode.New(cfg.GeocoderURL(), cfg.HTTPTimeout()),
		session.NewStore(cfg.SessionFile()),
		router.New(),
		opts,
	), nil
}

func main() {
	conf := flag.String("config", "suplica.yml", "name of config file")
	debug := flag.Bool("debug", false, "debug")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "ui"
	}

	if cmd == "version" {
		fmt.Printf("suplica %s %s\n", gitRevision, gitBranch)
		return
	}

	cfg := config.NewClientConfig()
	cfg.LoadEnv(config.ClientEnvPrefix)
	cfg.Load(*conf)

	closer := setLogger(cfg.LogFile(), *debug)
	defer closer.Close()

	slog.Info("start", slog.String("version", gitRevision), slog.String("api", cfg.APIURL()), slog.String("command", cmd))

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, a, cmd); err != nil {
		fmt.Fprintln(os.Stderr, app.UserMessage(err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, cmd string) error {
	switch cmd {
	case "ui":
		return NewUI(a).Run(ctx)
	case "login":
		return cmdLogin(ctx, a, newPrompter(os.Stdin, os.Stdout))
	case "signup":
		return cmdSignup(ctx, a, newPrompter(os.Stdin, os.Stdout))
	case "logout":
		return cmdLogout(ctx, a, os.Stdout)
	case "whoami":
		return cmdWhoami(ctx, a, os.Stdout)
	case "register-missionary":
		return cmdRegisterMissionary(ctx, a, newPrompter(os.Stdin, os.Stdout))
	default:
		flag.Usage()

		return fmt.Errorf("unknown command %q", cmd)
	}
}
