// Command atomicdict inspects and exercises shared atomic tables.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/op/go-logging"

	"github.com/homier/atomicdict"
)

var log = logging.MustGetLogger("main")

var stdoutLogFormat = logging.MustStringFormatter(
	`%{color:reset}%{color}%{time:2006-01-02 15:04:05.000} [%{level}] [%{module}/%{shortfunc}] %{message}`,
)

type Options struct {
	LogLevel string `short:"l" long:"loglevel" description:"set the logging level [debug, info, notice, warning, error, critical]" default:"info"`
}

// LayoutOptions selects the row layout of a table.
type LayoutOptions struct {
	K64 int `long:"k64" description:"number of 64-bit key words" default:"1"`
	K32 int `long:"k32" description:"number of 32-bit key words" default:"0"`
	V64 int `long:"v64" description:"number of 64-bit value words" default:"1"`
	V32 int `long:"v32" description:"number of 32-bit value words" default:"0"`
}

func (o LayoutOptions) Layout() atomicdict.Layout {
	return atomicdict.Layout{K64: o.K64, K32: o.K32, V64: o.V64, V32: o.V32}
}

var options Options

var parser = flags.NewParser(&options, flags.Default)

func setupLogging() error {
	level, err := logging.LogLevel(options.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", options.LogLevel, err)
	}

	backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), stdoutLogFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)

	return nil
}

func main() {
	parser.AddCommand("geometry",
		"Print the geometry of a table",
		"Compute rows per block, block count and region size for a layout and entry count.",
		&geometryCommand{})
	parser.AddCommand("demo",
		"Run the shared counter scenario across processes",
		"Create a shared dictionary, run worker processes fetch-adding one counter and verify the results.",
		&demoCommand{})
	parser.AddCommand("worker",
		"Demo worker (started by demo)",
		"Attach to the dictionary inherited on file descriptor 3 and fetch-add the counter.",
		&workerCommand{})
	parser.AddCommand("dump",
		"Dump a named region as JSON lines",
		"Open a named region and print every occupied row in storage order.",
		&dumpCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}
}
