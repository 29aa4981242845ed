// Command sctool inspects table files in a local directory, S3 or MinIO.
//
// Usage:
//
//	sctool [global flags] <command> [flags] <table>...
//
// Tables are named as stored, for example L0/000042.sct.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"
)

const usage = `Usage: sctool [global flags] <command> [flags] <table>...

Commands:
  verify <table>...           Validate structure and checksums
  stat <table>...             Print table statistics
  dump [--limit n] <table>    Print entries in catalog order
  get [--seq n] [--visible] <table> <key>
                              Look up a key
  pack [--codec c] <table>    Rewrite a table inside a compressed envelope
  ls [prefix]                 List tables

Global flags:
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out, errOut io.Writer, getenv func(string) string) int {
	global := flag.NewFlagSet("sctool", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	global.SetInterspersed(false)

	var sf storeFlags
	sf.register(global, getenv)
	help := global.BoolP("help", "h", false, "Show help")

	if err := global.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}
	rest := global.Args()
	if *help || len(rest) == 0 {
		fmt.Fprint(out, usage)
		fmt.Fprint(out, global.FlagUsages())
		return 0
	}

	store, err := sf.open(ctx)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	cmd, cmdArgs := rest[0], rest[1:]
	var runErr error
	switch cmd {
	case "verify":
		runErr = cmdVerify(ctx, out, store, cmdArgs)
	case "stat":
		runErr = cmdStat(ctx, out, store, cmdArgs)
	case "dump":
		runErr = cmdDump(ctx, out, store, cmdArgs)
	case "get":
		runErr = cmdGet(ctx, out, store, cmdArgs)
	case "pack":
		runErr = cmdPack(ctx, out, store, cmdArgs)
	case "ls":
		runErr = cmdList(ctx, out, store, cmdArgs)
	default:
		runErr = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	switch {
	case runErr == nil:
		return 0
	case errors.Is(runErr, errUsage):
		fmt.Fprintln(errOut, "error:", runErr)
		return 2
	default:
		fmt.Fprintln(errOut, "error:", runErr)
		return 1
	}
}
