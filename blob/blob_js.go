// Package blob reads JavaScript Blob and File objects.
package blob

import (
	"bytes"
	"errors"
	"io"
	"syscall/js"
)

type Blob js.Value

var blobJS = js.Global().Get("Blob")

var (
	ErrNotObject = errors.New("requires JavaScript object")
	ErrNotBlob   = errors.New("requires Blob object")
)

func JS(j interface{}) (Blob, error) {
	jv, ok := j.(js.Value)
	if !ok {
		return Blob{}, ErrNotObject
	}
	if !jv.InstanceOf(blobJS) {
		return Blob{}, ErrNotBlob
	}
	return Blob(jv), nil
}

// Size returns the byte length of the blob.
func (blob Blob) Size() int {
	return js.Value(blob).Get("size").Int()
}

// Reader reads the whole blob into a JavaScript array and returns a reader
// over it.
func (blob Blob) Reader() (io.Reader, error) {
	var r *blobReader
	chErr := make(chan error, 1)
	onData := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		array := js.Global().Get("Uint8Array").New(args[0])
		r = &blobReader{
			jsArray: array,
			n:       array.Get("byteLength").Int(),
		}
		chErr <- nil
		return nil
	})
	onError := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		chErr <- errors.New("failed to read blob")
		return nil
	})
	defer func() {
		onData.Release()
		onError.Release()
	}()
	js.Value(blob).Call("arrayBuffer").Call("then", onData, onError)

	if err := <-chErr; err != nil {
		return nil, err
	}
	return r, nil
}

// Bytes reads the whole blob.
func (blob Blob) Bytes() ([]byte, error) {
	r, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	buf.Grow(blob.Size())
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type blobReader struct {
	jsArray js.Value
	n       int
	pos     int
}

func (r *blobReader) Read(b []byte) (int, error) {
	if r.n == r.pos {
		return 0, io.EOF
	}
	end := r.pos + len(b)
	if end > r.n {
		end = r.n
	}
	n := end - r.pos
	sa := r.jsArray.Call("subarray", js.ValueOf(r.pos), js.ValueOf(end))
	js.CopyBytesToGo(b[:n], sa)
	r.pos = end
	return n, nil
}
