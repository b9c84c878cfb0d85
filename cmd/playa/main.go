// Command playa is the minimal CLI shell spec.md §6 describes: not part of
// the core, but the smallest possible driver for it — pass a path on
// argv, load it as a FileNode, make a default CompNode, set it active,
// enter the event loop.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/playa/core/internal/cachemgr"
	"github.com/playa/core/internal/config"
	"github.com/playa/core/internal/decode"
	"github.com/playa/core/internal/events"
	"github.com/playa/core/internal/framecache"
	"github.com/playa/core/internal/node"
	"github.com/playa/core/internal/pixel"
	"github.com/playa/core/internal/player"
	"github.com/playa/core/internal/preload"
	"github.com/playa/core/internal/sysmem"
	"github.com/playa/core/internal/workers"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code: 0 on clean shutdown, nonzero only on
// initialization failure (spec §6: "no media path, no working display").
func run(args []string) int {
	fs := flag.NewFlagSet("playa", flag.ContinueOnError)
	fps := fs.Float64("fps", 24, "base playback fps")
	padding := fs.Int("padding", 4, "frame-index zero padding width")
	seek := fs.Int("seek", -1, "scrub to this frame before playing, clamped to the comp's range (-1: don't seek)")
	step := fs.Int("step", 0, "step the current frame by this many frames (relative to -seek, or to the sequence's first frame) before playing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: playa [-fps N] [-padding N] [-seek N] [-step N] <path>")
		return 1
	}

	pattern, in, out, err := discoverSequence(fs.Arg(0), *padding)
	if err != nil {
		log.Printf("playa: %v", err)
		return 1
	}

	cfg := config.Default()
	mgr := cachemgr.New(sysmem.BudgetBytes(sysmem.Available(), cfg.CacheMemoryFraction, cfg.ReservedFloorBytes))
	cache := framecache.New(mgr, cfg.FrameCacheCapacity)
	var epoch atomic.Uint64
	workers.SetPanicLogger(func(r any) { log.Printf("playa: worker job panicked: %v", r) })
	pool := workers.New(workers.DefaultThreadCount(cfg.WorkerThreadFraction), &epoch)
	defer pool.Stop(cfg.ShutdownDeadline)
	bus := events.New()

	media := node.NewMediaPool()
	f := node.NewFileNode(filepath.Base(pattern), pattern, *padding, in, out, *fps, 0, 0)
	media.AddFileNode(f)

	comp := node.NewCompNode("main", in, out, *fps)
	media.AddCompNode(comp)
	ctx := &node.Context{Cache: cache, Media: media, Decode: decode.StdDecoder{}.Decode, Events: bus}
	if err := comp.AddLayer(media, ctx, node.NewLayer(f.ID(), in, out)); err != nil {
		log.Printf("playa: %v", err)
		return 1
	}
	if err := media.SetActive(comp.ID()); err != nil {
		log.Printf("playa: %v", err)
		return 1
	}

	p := player.New()
	p.SetActiveComp(comp.ID(), in)
	if *seek >= 0 {
		p.SetFrame(*seek, comp.In, comp.Out)
	}
	if *step != 0 {
		p.Step(*step, comp.TrimIn, comp.TrimOut)
	}

	debouncer := preload.NewDebouncer(cfg.DebounceInterval)

	bus.Subscribe(func(e events.Event) {
		log.Printf("playa: event %s comp=%d", e.Type, e.Comp)
	})

	p.Play()
	eventLoop(p, comp, ctx, pool, cache, bus, debouncer, cfg.DefaultPreloadRadius)
	return 0
}

// eventLoop drives the player at roughly 60Hz until playback stops. The
// player loops by default, so the loop only ends on its own when looping
// has been switched off and Tick reaches the end of the work area. It
// stands in for the real UI frame loop
// this shell has no window system to drive (spec §1: the GUI toolkit is
// out of scope).
func eventLoop(p *player.Player, comp *node.CompNode, ctx *node.Context, pool *workers.Pool, cache *framecache.Cache, bus *events.Bus, debouncer *preload.Debouncer, preloadRadius int) {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		old, newFrame, changed := p.Tick(time.Now(), comp.TrimIn, comp.TrimOut)
		if changed {
			comp.Frame = newFrame
			bus.EmitFrameChanged(comp.ID(), old, newFrame)
			if _, err := comp.Compute(newFrame, ctx); err != nil {
				log.Printf("playa: compute frame %d: %v", newFrame, err)
			}
			debouncer.Trigger(func() {
				preload.Submit(pool, cache, comp.ID(), newFrame, comp.In, comp.Out, preloadRadius, func(frame int) (*pixel.Frame, error) {
					return comp.Compute(frame, ctx)
				})
			})
		}
		if !p.IsPlaying() {
			return
		}
	}
}

// sequencePattern matches a run of digits immediately before the
// extension, e.g. "plate.0001.png".
var sequencePattern = regexp.MustCompile(`(\d+)(\.[^.]+)$`)

// discoverSequence scans path's directory for files matching the same
// name/extension shape as path but with varying zero-padded frame
// indices, returning a "#"-substituted pattern and the discovered [in,
// out] range (spec §6: "load it as a FileNode").
func discoverSequence(path string, padding int) (pattern string, in, out int, err error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	loc := sequencePattern.FindStringSubmatchIndex(base)
	if loc == nil {
		return "", 0, 0, fmt.Errorf("discover sequence: %q has no frame-index suffix", base)
	}
	digitsStart, digitsEnd := loc[2], loc[3]
	prefix := base[:digitsStart]
	ext := base[digitsEnd:]

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, 0, fmt.Errorf("discover sequence: %w", err)
	}
	in, out = -1, -1
	for _, e := range entries {
		name := e.Name()
		if len(name) <= len(prefix)+len(ext) || name[:len(prefix)] != prefix || name[len(name)-len(ext):] != ext {
			continue
		}
		digits := name[len(prefix) : len(name)-len(ext)]
		idx, convErr := strconv.Atoi(digits)
		if convErr != nil {
			continue
		}
		if in == -1 || idx < in {
			in = idx
		}
		if out == -1 || idx > out {
			out = idx
		}
	}
	if in == -1 {
		return "", 0, 0, fmt.Errorf("discover sequence: no frames found matching %q in %s", prefix+"*"+ext, dir)
	}
	pad := padding
	if pad <= 0 {
		pad = digitsEnd - digitsStart
	}
	return filepath.Join(dir, prefix+repeatHash(pad)+ext), in, out, nil
}

func repeatHash(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '#'
	}
	return string(b)
}
