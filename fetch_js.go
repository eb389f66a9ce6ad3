package main

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"
)

// httpFetcher downloads resources with the browser fetch API.
type httpFetcher struct{}

func (httpFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	return fetchGet(ctx, path)
}

func fetchGet(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b []byte
	var errored bool
	chErr := make(chan error, 1)

	abort := js.Global().Get("AbortController").New()
	stop := context.AfterFunc(ctx, func() {
		abort.Call("abort")
	})
	defer stop()

	onResponse := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if !args[0].Get("ok").Bool() {
			chErr <- fmt.Errorf("failed to fetch %s: %s", path, args[0].Get("statusText").String())
			errored = true
			return nil
		}
		return args[0].Call("arrayBuffer")
	})
	onFetchError := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		chErr <- fmt.Errorf("failed to fetch %s", path)
		errored = true
		return nil
	})
	onBody := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if errored {
			return nil
		}
		array := js.Global().Get("Uint8Array").New(args[0])
		n := array.Get("byteLength").Int()
		b = make([]byte, n)
		js.CopyBytesToGo(b, array)
		chErr <- nil
		return nil
	})
	onBodyError := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if errored {
			return nil
		}
		chErr <- errors.New("failed to handle received data")
		return nil
	})
	defer func() {
		onResponse.Release()
		onFetchError.Release()
		onBody.Release()
		onBodyError.Release()
	}()

	js.Global().Call("fetch", path, map[string]interface{}{
		"credentials": "same-origin",
		"signal":      abort.Get("signal"),
	}).Call("then", onResponse, onFetchError).Call("then", onBody, onBodyError)

	// Cancellation aborts the request, which settles the promise chain.
	if err := <-chErr; err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return b, nil
}

// fetchOptional returns nil without fetching if the path is empty.
func fetchOptional(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return fetchGet(ctx, path)
}
