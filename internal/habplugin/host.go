// Package habplugin hosts hab's WASM-based entry-point hooks (currently
// hab.site.add_paths) using wazero, so site files can extend hab's
// behavior without hab linking in a scripting runtime.
package habplugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// maxResultBytes bounds how much memory a guest module's result pointer may
// be scanned for; guards against a misbehaving module with no NUL
// terminator ever stalling the host.
const maxResultBytes = 1 << 20

// Host runs entry-point WASM modules in a shared wazero runtime. One Host
// should be created per hab invocation and closed when resolution is done.
type Host struct {
	runtime wazero.Runtime
	mu sync.Mutex
	cache map[string]wazero.CompiledModule
	habModule api.Module
}

// NewHost creates a Host with a fresh wazero runtime and WASI preview1
// instantiated so guest modules can use standard TinyGo/Rust WASI builds.
func NewHost(ctx context.Context) (*Host, error) {
	runtime := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiating WASI: %w", err)
	}
	return &Host{runtime: runtime, cache: map[string]wazero.CompiledModule{}}, nil
}

// Close releases the underlying wazero runtime and every compiled module.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// AddPaths loads and runs the hab.site.add_paths hook at wasmPath, passing
// the current merged site as JSON, and returns the additional site file
// paths it reports.
//
// Guest ABI: the module exports a zero-argument `add_paths` function
// returning an i32 pointer into its own linear memory at which a
// NUL-terminated JSON string (a []string of paths) is written. It may call
// the imported `hab_get_site(ptr, max_len) -> i32` function to read the
// site JSON the host prepared into its own memory, where a negative
// return means max_len was too small for the full payload.
func (h *Host) AddPaths(wasmPath string, siteJSON []byte) ([]string, error) {
	ctx := context.Background()

	compiled, err := h.compile(ctx, wasmPath)
	if err != nil {
		return nil, err
	}

	if err := h.registerHostModule(ctx, siteJSON); err != nil {
		return nil, err
	}

	cfg := wazero.NewModuleConfig().WithStdout(os.Stderr).WithStderr(os.Stderr)
	guest, err := h.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("instantiating add_paths module %s: %w", wasmPath, err)
	}
	defer guest.Close(ctx)

	fn := guest.ExportedFunction("add_paths")
	if fn == nil {
		return nil, fmt.Errorf("module %s does not export add_paths", wasmPath)
	}

	results, err := fn.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("calling add_paths in %s: %w", wasmPath, err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("add_paths in %s must return one i32 pointer", wasmPath)
	}

	raw, err := readCString(guest, uint32(results[0]))
	if err != nil {
		return nil, fmt.Errorf("reading add_paths result from %s: %w", wasmPath, err)
	}

	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return nil, fmt.Errorf("add_paths in %s returned invalid JSON: %w", wasmPath, err)
	}

	slog.Debug("add_paths hook returned paths", "module", wasmPath, "count", len(paths))
	return paths, nil
}

// registerHostModule (re-)instantiates the "hab" host module exposing
// hab_get_site, capturing siteJSON in the closure for this call only. The
// previous instance is closed first, so AddPaths calls must not run
// concurrently.
func (h *Host) registerHostModule(ctx context.Context, siteJSON []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.habModule != nil {
		if err := h.habModule.Close(ctx); err != nil {
			return fmt.Errorf("closing previous hab host module: %w", err)
		}
		h.habModule = nil
	}

	builder := h.runtime.NewHostModuleBuilder("hab")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(
			api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				ptr := uint32(stack[0])
				maxLen := uint32(stack[1])
				if uint32(len(siteJSON)) > maxLen || !mod.Memory().Write(ptr, siteJSON) {
					stack[0] = uint64(^uint32(0)) // -1 as unsigned i32: buffer too small / OOB
					return
				}
				stack[0] = uint64(uint32(len(siteJSON)))
			}),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32},
		).
		Export("hab_get_site")

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("registering hab host module: %w", err)
	}
	h.habModule = mod
	return nil
}

func (h *Host) compile(ctx context.Context, wasmPath string) (wazero.CompiledModule, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if compiled, ok := h.cache[wasmPath]; ok {
		return compiled, nil
	}

	data, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("reading WASM module %s: %w", wasmPath, err)
	}

	compiled, err := h.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("compiling WASM module %s: %w", wasmPath, err)
	}

	h.cache[wasmPath] = compiled
	return compiled, nil
}

func readCString(mod api.Module, ptr uint32) ([]byte, error) {
	mem := mod.Memory()
	for length := uint32(0); length < maxResultBytes; length++ {
		b, ok := mem.ReadByte(ptr + length)
		if !ok {
			return nil, fmt.Errorf("result pointer %d out of bounds", ptr)
		}
		if b == 0 {
			buf, ok := mem.Read(ptr, length)
			if !ok {
				return nil, fmt.Errorf("failed reading %d bytes at %d", length, ptr)
			}
			return buf, nil
		}
	}
	return nil, fmt.Errorf("result at %d exceeds %d bytes with no terminator", ptr, maxResultBytes)
}
