package main

import (
	"context"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/hack-pad/hackpadfs/indexeddb"

	"github.com/seqsense/structviewer/blob"
)

func main() {
	ctx := context.Background()

	var override []byte
	if u := js.Global().Get("structviewerConfig"); u.Type() == js.TypeString {
		b, err := fetchOptional(ctx, u.String())
		if err != nil {
			newLogger(os.Stderr, "info").Error("failed to fetch config", "url", u.String(), "error", err)
			return
		}
		override = b
	}
	cfg, err := loadConfig(override)
	if err != nil {
		newLogger(os.Stderr, "info").Error("failed to load config", "error", err)
		return
	}
	log := newLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	f := httpFetcher{}

	var cache assetCache
	if cfg.Assets.Cache {
		fs, err := indexeddb.NewFS(ctx, cfg.Assets.CacheDB, indexeddb.Options{})
		if err != nil {
			log.Warn("persistent cache unavailable", "db", cfg.Assets.CacheDB, "error", err)
		} else {
			cache = &fsCache{fs: fs}
		}
	}

	res, err := bootstrap(ctx, cfg.Assets, f, cache, log)
	if err != nil {
		log.Error("failed to load assets", "error", err)
		return
	}

	deps := viewerDeps{
		ctx:       ctx,
		camera:    cfg.Camera,
		resources: res,
		fetcher:   f,
		log:       log,
	}
	host := func(el js.Value) mountPoint {
		return &canvasHost{el: el, cfg: cfg, log: log}
	}

	nodes := js.Global().Get("document").Call("querySelectorAll", cfg.HostSelector)
	points := make([]mountPoint, nodes.Length())
	for i := range points {
		points[i] = host(nodes.Index(i))
	}
	var viewers viewerList
	vs, err := mount(points, deps)
	if err != nil {
		log.Error("failed to mount viewers", "error", err)
	}
	viewers.add(vs...)
	log.Info("viewers mounted", "hosts", len(points))

	js.Global().Set("structviewerMount",
		js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			if len(args) < 1 {
				return errorToJS(errArgumentNumber)
			}
			vs, err := mount([]mountPoint{host(args[0])}, deps)
			if err != nil {
				log.Error("failed to mount viewer", "error", err)
				return errorToJS(err)
			}
			return viewers.add(vs...)
		}),
	)
	lookup := func(args []js.Value) (*viewer, error) {
		if len(args) < 2 {
			return nil, errArgumentNumber
		}
		if args[0].Type() != js.TypeNumber {
			return nil, errNoViewer
		}
		f := args[0].Float()
		i := int(f)
		if float64(i) != f {
			return nil, errNoViewer
		}
		return viewers.get(i)
	}
	js.Global().Set("structviewerCommand",
		js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			return newPromise(func() (interface{}, error) {
				v, err := lookup(args)
				if err != nil {
					return nil, err
				}
				return v.runCommand(ctx, args[1].String())
			})
		}),
	)
	js.Global().Set("structviewerLoad",
		js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			return newPromise(func() (interface{}, error) {
				v, err := lookup(args)
				if err != nil {
					return nil, err
				}
				b, err := blob.JS(args[1])
				if err != nil {
					return nil, err
				}
				data, err := b.Bytes()
				if err != nil {
					return nil, err
				}
				return nil, v.show(ctx, data)
			})
		}),
	)

	select {}
}

// newPromise runs fn on a new goroutine and settles a JS promise with its
// result.
func newPromise(fn func() (interface{}, error)) js.Value {
	var executor js.Func
	executor = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		executor.Release()
		resolve, reject := args[0], args[1]
		go func() {
			res, err := fn()
			if err != nil {
				reject.Invoke(errorToJS(err))
				return
			}
			resolve.Invoke(res)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}
