//go:build js && wasm

// Command wasm runs the page controller in the browser. Build with
//
//	GOOS=js GOARCH=wasm go build -o static/numisight.wasm ./web/wasm
//
// and copy $(go env GOROOT)/lib/wasm/wasm_exec.js next to it.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall/js"

	"go.uber.org/zap"

	"github.com/numisight/numisight/internal/logger"
	"github.com/numisight/numisight/internal/page"
)

// domElement adapts a browser element to page.Element.
type domElement struct {
	v  js.Value
	id string
}

func (e *domElement) ID() string { return e.id }

func (e *domElement) Show() { e.v.Get("style").Set("display", "block") }

func (e *domElement) Hide() { e.v.Get("style").Set("display", "none") }

func (e *domElement) Visible() bool { return e.v.Get("style").Get("display").String() != "none" }

func (e *domElement) SetHTML(markup string) { e.v.Set("innerHTML", markup) }

func (e *domElement) SetText(text string) { e.v.Set("textContent", text) }

func (e *domElement) SetSrc(src string) { e.v.Set("src", src) }

func (e *domElement) Prepend(child page.Element) {
	if c, ok := child.(*domElement); ok {
		e.v.Call("prepend", c.v)
	}
}

func (e *domElement) Value() string { return e.v.Get("value").String() }

// await blocks until the promise settles. It must not run on the event
// loop goroutine.
func await(promise js.Value) (js.Value, error) {
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)
	var then, catch js.Func
	then = js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- result{v: args[0]}
		return nil
	})
	catch = js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- result{err: errors.New(args[0].Call("toString").String())}
		return nil
	})
	defer then.Release()
	defer catch.Release()

	promise.Call("then", then).Call("catch", catch)
	r := <-ch
	return r.v, r.err
}

// fileUpload reads a browser File lazily, once per Open.
func fileUpload(file js.Value) page.Upload {
	return page.Upload{
		Name:        file.Get("name").String(),
		ContentType: file.Get("type").String(),
		Open: func() (io.ReadCloser, error) {
			buf, err := await(file.Call("arrayBuffer"))
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", file.Get("name").String(), err)
			}
			arr := js.Global().Get("Uint8Array").New(buf)
			data := make([]byte, arr.Get("length").Int())
			js.CopyBytesToGo(data, arr)
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func main() {
	log, err := logger.New("prod", "info")
	if err != nil {
		log = logger.Nop()
	}

	doc := js.Global().Get("document")
	els, err := page.Bind(func(id string) (page.Element, bool) {
		v := doc.Call("getElementById", id)
		if v.IsNull() || v.IsUndefined() {
			return nil, false
		}
		return &domElement{v: v, id: id}, true
	})
	if err != nil {
		log.Fatal("binding page", zap.Error(err))
	}

	origin := js.Global().Get("location").Get("origin").String()
	ctrl := page.New(els, page.NewClient(origin, http.DefaultClient), log)
	ctx := context.Background()

	els.SearchInput.(*domElement).v.Call("addEventListener", "keypress", js.FuncOf(func(_ js.Value, args []js.Value) any {
		ctrl.HandleKey(ctx, args[0].Get("key").String())
		return nil
	}))

	els.FileInput.(*domElement).v.Call("addEventListener", "change", js.FuncOf(func(_ js.Value, args []js.Value) any {
		files := args[0].Get("target").Get("files")
		if files.IsNull() || files.IsUndefined() {
			return nil
		}
		uploads := make([]page.Upload, 0, files.Length())
		for i := 0; i < files.Length(); i++ {
			uploads = append(uploads, fileUpload(files.Index(i)))
		}
		ctrl.HandleFileChange(ctx, uploads)
		return nil
	}))

	log.Info("page controller ready")
	select {}
}
