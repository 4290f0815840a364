/*
Copyright (C) 2024  DataCode Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Command datacode is the CLI entrypoint of spec §6.2, grounded on memcp's
// own main.go: flag.Parse into plain locals, a signal.Notify-driven
// shutdown path, then either run a file, start the session server, or
// fall into the REPL.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcscript/datacode/eval"
	"github.com/dcscript/datacode/host/repl"
	"github.com/dcscript/datacode/host/session"
	"github.com/dcscript/datacode/host/sqliteexport"
)

// buildModelValue implements flag.Value with IsBoolFlag so `--build_model`
// works both bare (exports to the default path) and with an explicit
// `--build_model=out.db`, per spec §6.2's "[out.db]" optional argument.
type buildModelValue struct {
	val *string
	set *bool
}

func newBuildModelValue(val *string, set *bool) *buildModelValue {
	return &buildModelValue{val: val, set: set}
}

func (b *buildModelValue) String() string {
	if b.val == nil {
		return ""
	}
	return *b.val
}

func (b *buildModelValue) Set(s string) error {
	*b.set = true
	if s == "true" {
		*b.val = ""
	} else {
		*b.val = s
	}
	return nil
}

func (b *buildModelValue) IsBoolFlag() bool { return true }

const version = "0.1.0"

const demoScript = `
print('DataCode demo')
global orders = read_file('testdata/orders.csv', 0)
print(orders)
global total = 0
for row in orders do
    total = total + row.amount
next row
print('total: ' + str(total))
`

func main() {
	var (
		replFlag    bool
		demoFlag    bool
		buildModel  string
		buildModelSet bool
		websocket   bool
		host        string
		port        int
		useVE       bool
		showHelp    bool
		showVersion bool
	)

	fs := flag.NewFlagSet("datacode", flag.ExitOnError)
	fs.BoolVar(&replFlag, "repl", false, "interactive line-oriented REPL (default when no file is given)")
	fs.BoolVar(&demoFlag, "demo", false, "run a canned demonstration script")
	fs.StringVar(&host, "host", "", "bind host for --websocket")
	fs.IntVar(&port, "port", 0, "bind port for --websocket")
	fs.BoolVar(&websocket, "websocket", false, "start the session server instead of the REPL")
	fs.BoolVar(&useVE, "use-ve", false, "enable per-session isolated working directory")
	fs.BoolVar(&showHelp, "help", false, "show usage")
	fs.BoolVar(&showVersion, "version", false, "show version")
	fs.Var(newBuildModelValue(&buildModel, &buildModelSet), "build_model", "export every Table global to SQLite after execution (optional output path)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	args := fs.Args()

	if showHelp {
		fs.Usage()
		return
	}
	if showVersion {
		fmt.Println("datacode " + version)
		return
	}

	cancelChan := make(chan os.Signal, 1)
	signal.Notify(cancelChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-cancelChan
		os.Exit(1)
	}()

	in := eval.NewInterpreter()
	if wd, err := os.Getwd(); err == nil {
		in.SetWorkingDir(wd, useVE)
	}

	switch {
	case websocket:
		runWebsocket(useVE, host, port)
		return
	case demoFlag:
		runSource(in, demoScript)
	case len(args) > 0:
		runFile(in, args[0])
	default:
		replFlag = true
	}

	if buildModelSet {
		out := buildModel
		if out == "" {
			out = "datacode_model.db"
		}
		if err := sqliteexport.Export(in, out); err != nil {
			fmt.Fprintln(os.Stderr, "build_model:", err)
			os.Exit(1)
		}
	}

	if replFlag {
		if err := repl.Run(in); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func runFile(in *eval.Interpreter, path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	runSource(in, string(src))
}

func runSource(in *eval.Interpreter, src string) {
	err := in.Exec(src)
	for _, line := range in.CaptureOutput() {
		fmt.Println(line)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// runWebsocket starts the session server of spec §6.1/§6.2, with bind
// address precedence flags > DATACODE_WS_ADDRESS env > 127.0.0.1:8080.
func runWebsocket(useVE bool, host string, port int) {
	addr := resolveAddress(host, port)
	userDir := ""
	if useVE {
		userDir = "datacode-sessions"
	}
	srv := session.NewServer(useVE, userDir)
	fmt.Println("datacode: session server listening on " + addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveAddress(host string, port int) string {
	if host != "" || port != 0 {
		h := host
		if h == "" {
			h = "127.0.0.1"
		}
		p := port
		if p == 0 {
			p = 8080
		}
		return fmt.Sprintf("%s:%d", h, p)
	}
	if env := os.Getenv("DATACODE_WS_ADDRESS"); env != "" {
		return env
	}
	return "127.0.0.1:8080"
}
