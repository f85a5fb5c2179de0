package model

import (
	"sync"

	"google.golang.org/genai"
)

// NativeToolProvider is an optional interface that LLM implementations can
// implement to declare provider-specific native tools.
//
// Client.Generate checks whether the wrapped LLM implements this interface
// and asks it for the spec of each requested native tool.
//
// A model that does not implement this interface, or returns (nil, false) for a
// given name, gets a request without that tool.
type NativeToolProvider interface {
	// NativeTool returns the genai.Tool representation for the given tool name
	// if it is a provider-managed native tool, or (nil, false) if unsupported.
	NativeTool(name string) (*genai.Tool, bool)
}

// nativeToolSpecs maps well-known Upal tool names to their genai.Tool spec,
// read through LookupNativeTool. The NativeToolProvider implementations in
// this package build their own specs and do not read this table.
var (
	nativeToolSpecsMu sync.RWMutex
	nativeToolSpecs   = map[string]*genai.Tool{}
)

// RegisterNativeToolSpec registers a genai.Tool spec for a native tool name.
func RegisterNativeToolSpec(name string, spec *genai.Tool) {
	nativeToolSpecsMu.Lock()
	defer nativeToolSpecsMu.Unlock()
	nativeToolSpecs[name] = spec
}

// LookupNativeTool returns the genai.Tool spec for the given tool name.
func LookupNativeTool(name string) (*genai.Tool, bool) {
	nativeToolSpecsMu.RLock()
	defer nativeToolSpecsMu.RUnlock()
	spec, ok := nativeToolSpecs[name]
	return spec, ok
}

func init() {
	RegisterNativeToolSpec("web_search", &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
}
