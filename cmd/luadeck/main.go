// Package main is the entry point for the luadeck configuration tool.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/luadeck/internal/conf"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	switch args[0] {
	case "get":
		return cmdGet(args[1:])
	case "exists":
		return cmdExists(args[1:])
	case "call":
		return cmdCall(args[1:])
	case "export":
		return cmdExport(args[1:])
	case "watch":
		return cmdWatch(args[1:])
	case "version", "-version", "-v":
		fmt.Printf("luadeck %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return 0
	case "help", "-help", "-h":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "luadeck - script-backed configuration tool\n\n")
	fmt.Fprintf(os.Stderr, "Usage: luadeck <command> [options] [args...]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  get -c <script> <path>            Print the value at a dotted path\n")
	fmt.Fprintf(os.Stderr, "  exists -c <script> <path>         Exit 0 when the path is set\n")
	fmt.Fprintf(os.Stderr, "  call -c <script> <hook> [args...] Invoke a hook function\n")
	fmt.Fprintf(os.Stderr, "  export -c <script> [-format toml|json] [-q query]\n")
	fmt.Fprintf(os.Stderr, "  watch -c <script> [-q query]      Reload and report on file changes\n")
	fmt.Fprintf(os.Stderr, "  version                           Show version information\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  luadeck get -c app.lua pool.workers\n")
	fmt.Fprintf(os.Stderr, "  luadeck call -c app.lua hooks.greet deck\n")
	fmt.Fprintf(os.Stderr, "  luadeck export -c app.lua -format json -q limits.retry\n")
}

// commonFlags carries the flags every subcommand shares.
type commonFlags struct {
	fs     *flag.FlagSet
	config string
	global string
}

func newFlagSet(name string) *commonFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := &commonFlags{fs: fs}
	fs.StringVar(&c.config, "config", "", "path to the configuration script")
	fs.StringVar(&c.config, "c", "", "path to the configuration script (shorthand)")
	fs.StringVar(&c.global, "global", "", "name of the configuration global table")
	return c
}

func (c *commonFlags) load() (*conf.Config, error) {
	if c.config == "" {
		return nil, fmt.Errorf("missing -c <script>")
	}
	var opts []conf.Option
	if c.global != "" {
		opts = append(opts, conf.WithGlobalName(c.global))
	}
	return conf.Load(c.config, opts...)
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func cmdGet(args []string) int {
	cf := newFlagSet("get")
	_ = cf.fs.Parse(args)
	if cf.fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: luadeck get -c <script> <path>")
		return 2
	}

	cfg, err := cf.load()
	if err != nil {
		return fail(err)
	}
	defer cfg.Close()

	v, ok := cfg.Value(cf.fs.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %s is not set\n", cf.fs.Arg(0))
		return 1
	}
	fmt.Println(render(v))
	return 0
}

func cmdExists(args []string) int {
	cf := newFlagSet("exists")
	_ = cf.fs.Parse(args)
	if cf.fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: luadeck exists -c <script> <path>")
		return 2
	}

	cfg, err := cf.load()
	if err != nil {
		return fail(err)
	}
	defer cfg.Close()

	if !cfg.Exists(cf.fs.Arg(0)) {
		fmt.Println("false")
		return 1
	}
	fmt.Println("true")
	return 0
}

func cmdCall(args []string) int {
	cf := newFlagSet("call")
	nresults := cf.fs.Int("n", 1, "number of results to collect")
	_ = cf.fs.Parse(args)
	if cf.fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: luadeck call -c <script> <hook> [args...]")
		return 2
	}

	cfg, err := cf.load()
	if err != nil {
		return fail(err)
	}
	defer cfg.Close()

	hookArgs := make([]any, 0, cf.fs.NArg()-1)
	for _, raw := range cf.fs.Args()[1:] {
		hookArgs = append(hookArgs, coerceArg(raw))
	}

	out, err := cfg.Call(cf.fs.Arg(0), *nresults, hookArgs...)
	if err != nil {
		return fail(err)
	}
	for _, v := range out {
		fmt.Println(render(v))
	}
	return 0
}

func cmdExport(args []string) int {
	cf := newFlagSet("export")
	format := cf.fs.String("format", "toml", "output format: toml or json")
	query := cf.fs.String("q", "", "query to apply to the JSON export")
	_ = cf.fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return fail(err)
	}
	defer cfg.Close()

	out, err := export(cfg, *format, *query)
	if err != nil {
		return fail(err)
	}
	os.Stdout.Write(out)
	return 0
}

func export(cfg *conf.Config, format, query string) ([]byte, error) {
	if query != "" && format != "json" {
		return nil, fmt.Errorf("-q requires -format json")
	}
	switch format {
	case "toml":
		return cfg.ExportTOML()
	case "json":
		out, err := cfg.ExportJSON()
		if err != nil {
			return nil, err
		}
		if query != "" {
			res := gjson.GetBytes(out, query)
			if !res.Exists() {
				return nil, fmt.Errorf("query %q matched nothing", query)
			}
			out = []byte(res.Raw)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (toml or json)", format)
	}
}

func cmdWatch(args []string) int {
	cf := newFlagSet("watch")
	query := cf.fs.String("q", "", "query to print after each reload")
	_ = cf.fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return fail(err)
	}
	defer cfg.Close()

	cfg.OnReload(func(err error) {
		if err != nil {
			log.Printf("reload failed: %v", err)
			return
		}
		log.Printf("reloaded %s", cfg.Path())
		if *query != "" {
			out, err := export(cfg, "json", *query)
			if err != nil {
				log.Printf("query failed: %v", err)
				return
			}
			os.Stdout.Write(out)
		}
	})
	if err := cfg.Watch(); err != nil {
		return fail(err)
	}
	log.Printf("watching %s", cfg.Path())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	return 0
}

// render formats one value for the terminal: scalars print bare, tables
// print as JSON.
func render(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		wrapped, err := sjson.SetBytes([]byte(`{}`), "v", t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return gjson.GetBytes(wrapped, "v").Raw
	}
}

// coerceArg maps a command-line token to the richest value it parses as.
func coerceArg(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "nil":
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}
