// Command warpgridhost runs a WebAssembly guest compiled against a stock
// WASI sysroot under wazero, with the warpgrid host module installed
// alongside stock WASI preview 1 so the guest can reach host-managed
// virtual files through the shim ABI instead of (or in addition to) the
// ordinary preopened-directory path.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/stealthrocket/wazergo"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/dotindustries/warpgrid"
	"github.com/dotindustries/warpgrid/hostmodule"
)

func printUsage() {
	fmt.Printf(`warpgridhost - Run a WebAssembly module against the warpgrid shim ABI

USAGE:
   warpgridhost [OPTIONS]... <MODULE> [--] [ARGS]...

ARGS:
   <MODULE>
      The path of the WebAssembly module to run

   [ARGS]...
      Arguments to pass to the module

OPTIONS:
   --virtual <PATH=FILE>
      Serve PATH through fs_read_virtual from the contents of the local
      FILE. May be repeated.

   --trace
      Accepted, but shim calls made through the host module are not
      logged; a notice saying so is printed to stderr

   -h, --help
      Show this usage information
`)
}

var (
	virtuals stringList
	trace    bool
)

func main() {
	flagSet := flag.NewFlagSet("warpgridhost", flag.ExitOnError)
	flagSet.Usage = printUsage

	flagSet.Var(&virtuals, "virtual", "")
	flagSet.BoolVar(&trace, "trace", false, "")
	flagSet.Parse(os.Args[1:])

	args := flagSet.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if err := run(args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile string, args []string) error {
	wasmCode, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("could not read WASM file '%s': %w", wasmFile, err)
	}

	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}

	files, err := parseVirtuals(virtuals)
	if err != nil {
		return err
	}

	ctx := context.Background()
	runtime := wazero.NewRuntime(ctx)
	defer runtime.Close(ctx)

	wasmModule, err := runtime.CompileModule(ctx, wasmCode)
	if err != nil {
		return err
	}

	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	host := warpgrid.ShimHost(&fileShimHost{files: files})
	if trace {
		fmt.Fprintf(os.Stderr, "warpgridhost: tracing disabled for the host-module boundary; "+
			"wrap a *warpgrid.Patches with warpgrid.Trace in an embedding program instead\n")
	}

	module := wazergo.MustInstantiate(ctx, runtime,
		hostmodule.HostModule,
		hostmodule.WithShimHost(host),
	)
	ctx = wazergo.WithModuleInstance(ctx, module)

	instance, err := runtime.InstantiateModule(ctx, wasmModule, wazero.NewModuleConfig().WithArgs(args...))
	if err != nil {
		return err
	}
	return instance.Close(ctx)
}

func parseVirtuals(specs []string) (map[string][]byte, error) {
	files := make(map[string][]byte, len(specs))
	for _, spec := range specs {
		path, localFile, ok := splitVirtualSpec(spec)
		if !ok {
			return nil, fmt.Errorf("invalid --virtual spec %q, expected PATH=FILE", spec)
		}
		data, err := os.ReadFile(localFile)
		if err != nil {
			return nil, fmt.Errorf("could not read virtual file for %q: %w", path, err)
		}
		files[path] = data
	}
	return files, nil
}

func splitVirtualSpec(spec string) (path, localFile string, ok bool) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '=' {
			return spec[:i], spec[i+1:], true
		}
	}
	return "", "", false
}

// fileShimHost is a minimal ShimHost serving only virtual files out of a
// fixed map populated from --virtual flags at startup, leaving DNS and the
// DB proxy entirely not-managed. It exists to give warpgridhost something
// runnable without requiring a concrete production host backend.
type fileShimHost struct {
	files map[string][]byte
}

func (h *fileShimHost) DNSResolve(string, warpgrid.AddressFamily) ([]net.IP, bool, error) {
	return nil, false, nil
}

func (h *fileShimHost) FSReadVirtual(path string) ([]byte, bool, error) {
	data, ok := h.files[path]
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (h *fileShimHost) DBProxyConnect(string, uint16) (int32, bool, error) {
	return 0, false, nil
}

func (h *fileShimHost) DBProxySend(int32, []byte) (int, error) {
	return 0, warpgrid.ENOTCONN
}

func (h *fileShimHost) DBProxyRecv(int32, []byte, bool) (int, error) {
	return 0, warpgrid.ENOTCONN
}

func (h *fileShimHost) DBProxyClose(int32) error {
	return nil
}

type stringList []string

func (s stringList) String() string {
	return fmt.Sprintf("%v", []string(s))
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
