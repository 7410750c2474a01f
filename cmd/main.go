package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"go.dedis.ch/kyber/v4/suites"

	"github.com/luca-patrignani/radio-rps/api"
	"github.com/luca-patrignani/radio-rps/application"
	"github.com/luca-patrignani/radio-rps/communication"
	"github.com/luca-patrignani/radio-rps/config"
	"github.com/luca-patrignani/radio-rps/discovery"
	"github.com/luca-patrignani/radio-rps/domain/rps"
	"github.com/luca-patrignani/radio-rps/network"
)

const discoveryInterval = time.Second

type options struct {
	id            string
	opponent      string
	power         uint
	group         string
	port          uint
	retry         time.Duration
	linger        time.Duration
	apiAddr       string
	auto          bool
	discoveryPort uint
}

func main() {
	var opts options
	flag.StringVar(&opts.id, "id", "", "two character ID of this device")
	flag.StringVar(&opts.opponent, "opponent", "", "ID of the opponent, discovered on the network when empty")
	flag.UintVar(&opts.power, "power", uint(config.DefaultPower), "transmission power, 0 to 7")
	flag.StringVar(&opts.group, "group", network.DefaultGroup, "multicast group of the radio")
	flag.UintVar(&opts.port, "port", network.DefaultPort, "UDP port of the radio")
	flag.DurationVar(&opts.retry, "retry", config.DefaultRetryInterval, "retransmission interval of unacknowledged moves")
	flag.DurationVar(&opts.linger, "linger", config.DefaultLinger, "how long to keep answering the opponent after the match")
	flag.StringVar(&opts.apiAddr, "api", "", "listen address of the status API, disabled when empty")
	flag.BoolVar(&opts.auto, "auto", false, "play random moves without asking")
	flag.UintVar(&opts.discoveryPort, "discovery-port", discovery.DefaultPort, "UDP port used to discover opponents")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn or error")
	flag.Parse()

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage: %s [OPTIONS]: %v\n", os.Args[0], err)
		flag.PrintDefaults()
		os.Exit(2)
	}
	// Create a new slog handler with the default PTerm logger
	handler := pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(level))
	logger := slog.New(handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			pterm.Warning.Println("Match aborted.")
			os.Exit(130)
		}
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	pterm.Print("\n")
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("R", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("adio ", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("RPS", pterm.FgRed.ToStyle()),
	).Srender()
	if err != nil {
		logger.Error(err.Error())
	}
	pterm.Print(title)

	if opts.id == "" {
		if opts.auto {
			return errors.New("-auto needs -id")
		}
		opts.id, _ = pterm.DefaultInteractiveTextInput.WithDefaultText("Enter the two character ID of this device").Show()
		pterm.Println()
	}
	if opts.power > uint(network.MaxPower) {
		return fmt.Errorf("%w: %d", config.ErrInvalidPower, opts.power)
	}
	cfg, err := config.New(strings.TrimSpace(opts.id),
		config.WithPower(uint8(opts.power)),
		config.WithRetryInterval(opts.retry),
		config.WithLinger(opts.linger),
	)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("Your ID: %s", pterm.LightCyan(cfg.DeviceID))

	var opponent rps.DeviceID
	if opts.opponent != "" {
		if opponent, err = rps.ParseDeviceID(opts.opponent); err != nil {
			return err
		}
	}

	pinger, err := NewPinger(Info{ID: cfg.DeviceID}, uint16(opts.discoveryPort), discoveryInterval, logger)
	if err != nil {
		return err
	}
	if opponent == "" {
		if err := pinger.Start(); err != nil {
			return fmt.Errorf("start discovery: %w", err)
		}
		defer pinger.Close()
	}

	radio := &network.UDPRadio{
		Group:  opts.group,
		Port:   uint16(opts.port),
		Logger: logger,
	}
	defer radio.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := communication.NewMetrics(reg)
	board := application.NewStatusBoard(cfg.DeviceID)
	if opts.apiAddr != "" {
		server := api.NewServer(opts.apiAddr, board, reg, logger)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start status API: %w", err)
		}
		defer server.Shutdown(context.Background())
		pterm.Info.Printfln("Status API on http://%s/api/match", server.Addr())
	}

	var input application.InputSource
	if opts.auto {
		input = &autoInput{
			opponent: opponent,
			pinger:   pinger,
			stream:   suites.MustFind("Ed25519").RandomStream(),
		}
	} else {
		input = &terminalInput{opponent: opponent, pinger: pinger}
	}
	display := &terminalDisplay{}

	match := application.NewMatch(cfg, radio, input, display,
		application.WithStatusBoard(board),
		application.WithLogger(logger),
		application.WithMetrics(metrics),
	)
	result, err := match.Play(ctx)
	if err != nil && result != rps.Pending && errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		display.stopSpinner(false)
		return err
	}
	return nil
}

func parseLogLevel(s string) (pterm.LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return pterm.LogLevelDebug, nil
	case "info":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
