// Package hwaccel implements the process-wide hardware accelerator
// registry (spec §4.3). It is grounded on the hardware-encoder detection
// cache pattern (sync.RWMutex-guarded map, lazy detect-once) used by the
// ffmpeg hwaccel prober in the retrieval pack.
package hwaccel

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Accelerator describes one known hardware accelerator (spec §4.3
// "{name, description, available}").
type Accelerator struct {
	Name        string
	Description string
	available   bool
}

// Available reports whether this accelerator was usable when this value
// was read from the registry. List and ListAvailable return copies, so a
// value does not track later RegisterAvailable/MarkUnavailable calls.
func (a Accelerator) Available() bool { return a.available }

// registry is the singleton process-wide accelerator table. Protected by a
// single mutex per spec §5 "Shared resources".
type registry struct {
	mu           sync.RWMutex
	initialized  bool
	accelerators []*Accelerator
	preferred    string // name of the preferred accelerator, "" if none
}

var global = &registry{}

// detect enumerates platform accelerators exactly once per process
// lifetime (spec §4.3 "init on first query, retained for process
// lifetime"). Real platform probing (VAAPI device nodes, NVENC/QSV/
// VideoToolbox availability) is a collaborator's concern; this registry
// ships a fixed, software-backend-first catalogue that a host can extend.
func (r *registry) detect() {
	if r.initialized {
		return
	}
	r.accelerators = []*Accelerator{
		{Name: "videotoolbox", Description: "Apple Silicon / Intel Mac hardware codec", available: false},
		{Name: "nvenc", Description: "NVIDIA GPU hardware codec", available: false},
		{Name: "qsv", Description: "Intel Quick Sync hardware codec", available: false},
		{Name: "vaapi", Description: "Linux VA-API hardware codec (Intel/AMD)", available: false},
	}
	r.initialized = true
	log.Debug().Int("count", len(r.accelerators)).Msg("hwaccel: registry initialized")
}

// RegisterAvailable marks name as present and usable on this host. Called
// by the platform-probe collaborator once it has confirmed an accelerator
// actually works; not part of the WebCodecs-facing contract.
func RegisterAvailable(name, description string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.detect()
	for _, a := range global.accelerators {
		if a.Name == name {
			a.available = true
			a.Description = description
			return
		}
	}
	global.accelerators = append(global.accelerators, &Accelerator{Name: name, Description: description, available: true})
}

// SetPreferred designates name as the accelerator preferred() should
// return, when it is available.
func SetPreferred(name string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.preferred = name
}

// List returns every known accelerator (spec §6 "getHardwareAccelerators").
func List() []Accelerator {
	global.mu.RLock()
	defer global.mu.RUnlock()
	global.detect()
	out := make([]Accelerator, len(global.accelerators))
	for i, a := range global.accelerators {
		out[i] = *a
	}
	return out
}

// ListAvailable returns only currently-available accelerators (spec §6
// "getAvailableHardwareAccelerators").
func ListAvailable() []Accelerator {
	all := List()
	out := make([]Accelerator, 0, len(all))
	for _, a := range all {
		if a.available {
			out = append(out, a)
		}
	}
	return out
}

// Preferred returns the preferred accelerator, or ok=false if none is
// designated or the designated one is unavailable (spec §6
// "getPreferredHardwareAccelerator").
func Preferred() (acc Accelerator, ok bool) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	global.detect()
	if global.preferred == "" {
		return Accelerator{}, false
	}
	for _, a := range global.accelerators {
		if a.Name == global.preferred && a.available {
			return *a, true
		}
	}
	return Accelerator{}, false
}

// IsAvailable reports whether name is a currently-available accelerator
// (spec §6 "isHardwareAcceleratorAvailable").
func IsAvailable(name string) bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	global.detect()
	for _, a := range global.accelerators {
		if a.Name == name {
			return a.available
		}
	}
	return false
}

// MarkUnavailable flips name to unavailable for the remainder of the
// process (spec §4.3 "A hardware attempt that fails with a backend error
// flips that accelerator to unavailable for the process"). It is a no-op
// for an unknown name.
func MarkUnavailable(name string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.detect()
	for _, a := range global.accelerators {
		if a.Name == name {
			if a.available {
				log.Warn().Str("accelerator", name).Msg("hwaccel: marking unavailable after backend failure")
			}
			a.available = false
			return
		}
	}
}

// ResetFallbackState restores every accelerator's availability to its
// detected state and clears the preference (spec §6
// "resetHardwareFallbackState", §5 "provides resetHardwareFallbackState()
// for tests"). Intended for test harnesses and long-running hosts that
// want to re-probe after a driver reset.
func ResetFallbackState() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.initialized = false
	global.accelerators = nil
	global.preferred = ""
}
