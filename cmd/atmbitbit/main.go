package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/atmbitbit/internal/app"
)

const usage = `usage: atmbitbit [flags] [command]

commands:
  (none)            start the terminal panel
  list              print all terminals
  show <id>         print one terminal
  export [-dir D] <id>
                    write atmbitbit.conf to D (or the export dir); "-" prints it

flags:
`

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override prefs path (optional)")
	pollSeconds := flag.Int("poll", 0, "refresh interval in seconds (optional, defaults to 20s)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, PrefsPath: *prefsPath}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := dispatch(ctx, opts, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "atmbitbit: %v\n", err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, opts app.Options, args []string) error {
	if len(args) == 0 {
		return app.Run(ctx, opts)
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "list":
		return app.List(ctx, opts, os.Stdout)

	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("show needs exactly one id")
		}
		return app.Show(ctx, opts, rest[0], os.Stdout)

	case "export":
		fs := flag.NewFlagSet("export", flag.ContinueOnError)
		dir := fs.String("dir", "", `target directory, "-" for stdout (remembered)`)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("export needs exactly one id")
		}
		return app.Export(ctx, opts, fs.Arg(0), *dir, os.Stdout)

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
