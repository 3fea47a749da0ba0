//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"connectrpc.com/connect"

	"github.com/tenntenn/minilang/backend/api"
	"github.com/tenntenn/minilang/backend/model"
)

var handler = api.NewToolchainServiceHandler(api.WithMaxSteps(10_000_000))

func main() {
	c := make(chan struct{})

	// Register functions
	js.Global().Set("goCompile", js.FuncOf(compileWrapper))
	js.Global().Set("goRun", js.FuncOf(runWrapper))

	println("Go WASM module loaded successfully")

	<-c
}

// compileWrapper wraps Compile for JavaScript: goCompile(code, format?)
func compileWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("code parameter is required")
	}

	req := &model.CompileRequest{Code: args[0].String()}
	if len(args) >= 2 {
		req.Format = args[1].String()
	}

	resp, err := handler.Compile(context.Background(), connect.NewRequest(req))
	if err != nil {
		return errorValue(err.Error())
	}
	return toJS(resp.Msg)
}

// runWrapper wraps Run for JavaScript: goRun(code, format?, entry?, args?)
// where args is an array of integers
func runWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("code parameter is required")
	}

	req := &model.RunRequest{Code: args[0].String()}
	if len(args) >= 2 {
		req.Format = args[1].String()
	}
	if len(args) >= 3 {
		req.Entry = args[2].String()
	}
	if len(args) >= 4 && args[3].Type() == js.TypeObject {
		for i := 0; i < args[3].Length(); i++ {
			req.Args = append(req.Args, int32(args[3].Index(i).Int()))
		}
	}

	resp, err := handler.Run(context.Background(), connect.NewRequest(req))
	if err != nil {
		return errorValue(err.Error())
	}
	return toJS(resp.Msg)
}

func errorValue(msg string) interface{} {
	return map[string]interface{}{"error": msg}
}

// toJS converts v to a JavaScript object through JSON
func toJS(v interface{}) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorValue(err.Error())
	}
	return js.Global().Get("JSON").Call("parse", string(jsonBytes))
}
