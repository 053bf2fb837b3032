package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/spmctl/internal/client"
	"github.com/danmuck/spmctl/internal/instrument"
	"github.com/danmuck/spmctl/internal/logging"
	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/danmuck/spmctl/internal/tcplog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: spmctl [flags] <command> [args]

commands:
  version                     print controller software version
  session                     print the session directory
  bias [volts]                read or set the tip bias
  signals                     list signal names
  call <name> [code=value..]  send a raw command; -r lists result codes
  tcplog                      stream data logger frames

flags:
`

func main() {
	configPath := flag.String("config", "", "connection config (toml)")
	host := flag.String("host", "", "controller host (overrides config)")
	port := flag.Int("port", 0, "controller port (overrides config)")
	timeout := flag.Duration("timeout", 0, "read and write timeout (overrides config)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := defaultConnConfig()
	if *configPath != "" {
		loaded, err := loadConnConfig(*configPath)
		if err != nil {
			fatalf("%v", err)
		}
		cfg = loaded
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *timeout > 0 {
		cfg.Options.ReadTimeout = *timeout
		cfg.Options.WriteTimeout = *timeout
	}

	logging.ConfigureRuntime()
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok && os.Getenv(logging.EnvLogLevel) == "" {
		zerolog.SetGlobalLevel(lvl)
	}
	cfg.Options.Logger = log.Logger

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args[0], args[1:]); err != nil {
		var se *client.ServerError
		if errors.As(err, &se) {
			fatalf("instrument rejected command: %s (code %d)", se.Message, se.Code)
		}
		fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg connConfig, cmd string, args []string) error {
	conn, err := client.Dial(ctx, cfg.Host, cfg.Port, cfg.Options)
	if err != nil {
		return err
	}
	defer conn.Close()
	in := instrument.New(conn)

	switch cmd {
	case "version":
		v, err := in.VersionGet()
		if err != nil {
			return err
		}
		fmt.Printf("%s\n%s\nhost app release: %d\nrt engine release: %d\n", v.ProductLine, v.Version, v.HostAppRelease, v.RTEngineRelease)
	case "session":
		path, err := in.SessionPathGet()
		if err != nil {
			return err
		}
		fmt.Println(path)
	case "bias":
		return runBias(in, args)
	case "signals":
		names, err := in.SignalNamesGet()
		if err != nil {
			return err
		}
		for i, n := range names {
			fmt.Printf("%3d  %s\n", i, n)
		}
	case "call":
		return runCall(conn, args)
	case "tcplog":
		return runTCPLog(ctx, cfg, in, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func runBias(in *instrument.Instrument, args []string) error {
	if len(args) == 0 {
		v, err := in.BiasGet()
		if err != nil {
			return err
		}
		fmt.Printf("%g V\n", v)
		return nil
	}
	v, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return fmt.Errorf("parse bias: %w", err)
	}
	return in.BiasSet(float32(v))
}

func runCall(conn *client.Conn, args []string) error {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	results := fs.String("r", "", "comma-separated result codes, e.g. i,*-c")
	if len(args) == 0 {
		return fmt.Errorf("call: missing command name")
	}
	name := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	values := make([]protocol.Value, 0, fs.NArg())
	argCodes := make([]protocol.Code, 0, fs.NArg())
	for _, spec := range fs.Args() {
		v, c, err := parseArg(spec)
		if err != nil {
			return err
		}
		values = append(values, v)
		argCodes = append(argCodes, c)
	}
	var resultCodes []protocol.Code
	if *results != "" {
		var err error
		if resultCodes, err = protocol.ParseCodes(strings.Split(*results, ",")...); err != nil {
			return err
		}
	}

	out, err := conn.Transact(name, values, argCodes, resultCodes)
	if err != nil {
		return err
	}
	for i, v := range out {
		fmt.Printf("%d  %-24s %s\n", i, resultCodes[i], formatValue(v))
	}
	return nil
}

func runTCPLog(ctx context.Context, cfg connConfig, in *instrument.Instrument, args []string) error {
	fs := flag.NewFlagSet("tcplog", flag.ContinueOnError)
	frames := fs.Int("n", 10, "frames to read, 0 for until interrupted")
	chs := fs.String("chs", "", "comma-separated channel indexes to record")
	oversampling := fs.Int("oversampling", -1, "oversampling factor, -1 keeps the current one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *chs != "" {
		idx, err := parseList(*chs, func(s string) (int32, error) {
			n, err := strconv.ParseInt(s, 10, 32)
			return int32(n), err
		})
		if err != nil {
			return fmt.Errorf("parse -chs: %w", err)
		}
		if err := in.TCPLogChsSet(idx); err != nil {
			return err
		}
	}
	if *oversampling >= 0 {
		if err := in.TCPLogOversamplSet(int32(*oversampling)); err != nil {
			return err
		}
	}

	stream, err := tcplog.Dial(ctx, cfg.Host, cfg.TCPLogPort, tcplog.Options{
		ConnectTimeout: cfg.Options.ConnectTimeout,
		ReadTimeout:    cfg.Options.ReadTimeout,
		Logger:         cfg.Options.Logger,
	})
	if err != nil {
		return err
	}
	defer stream.Close()
	if err := in.TCPLogStart(); err != nil {
		return err
	}
	defer func() {
		if err := in.TCPLogStop(); err != nil {
			log.Warn().Err(err).Msg("tcplog stop failed")
		}
	}()
	status, err := in.TCPLogStatusGet()
	if err != nil {
		return err
	}
	log.Info().Str("status", status.String()).Msg("data logger started")

	// closing the stream unblocks ReadFrame on interrupt
	go func() {
		<-ctx.Done()
		_ = stream.Close()
	}()
	start := time.Now()
	for n := 0; *frames == 0 || n < *frames; n++ {
		f, err := stream.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Printf("%8d  %-16s %v\n", f.Counter, f.State, f.Samples)
	}
	log.Info().Int("frames", *frames).Dur("elapsed", time.Since(start)).Msg("data logger stream done")
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "spmctl: "+format+"\n", args...)
	os.Exit(1)
}
