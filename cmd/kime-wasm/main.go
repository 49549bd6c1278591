//go:build js && wasm

// kime-wasm mounts composition sessions on DOM text inputs.
//
// It exports one global function:
//
//	kimeInstall(config, element) -> session | Error
//
// config is a TOML, JSON or YAML document; element is an <input> or
// <textarea>. The returned session object has free(), injectKey(code,
// mask), stopComposite(), setCategory(name) and category(). Install
// failures are returned as Error values rather than thrown.
package main

import (
	"log/slog"
	"syscall/js"

	"kimeweb/internal/composer"
	"kimeweb/internal/ime"
	"kimeweb/internal/keycode"
	"kimeweb/internal/logging"
	"kimeweb/internal/web"
)

func main() {
	cfg := logging.DefaultConfig()
	cfg.Output = "stderr"
	cfg.Level = logging.LevelWarn
	if js.Global().Get("kimeDebug").Truthy() {
		cfg.Level = logging.LevelDebug
	}
	log, err := logging.New(cfg)
	if err != nil {
		log = logging.Default()
	}

	install := js.FuncOf(func(this js.Value, args []js.Value) any {
		defer logging.Recover(log.Logger, "kimeInstall")
		if len(args) < 2 {
			return jsError("kimeInstall: expected (config, element)")
		}
		return installSession(args[0].String(), args[1], log.Logger)
	})
	js.Global().Set("kimeInstall", install)

	// The exported functions must outlive main.
	select {}
}

func installSession(cfgText string, element js.Value, log *slog.Logger) any {
	target, err := web.NewElement(element)
	if err != nil {
		return jsError(err.Error())
	}
	session, err := ime.Install(cfgText, target, ime.WithLogger(log))
	if err != nil {
		return jsError(err.Error())
	}
	return sessionObject(session)
}

// inert replaces the methods of a freed session object. It is shared by all
// sessions and never released.
var inert = js.FuncOf(func(js.Value, []js.Value) any { return nil })

// sessionObject exposes a session to script. free() closes the session,
// releases the exported callbacks and points every method at inert, so
// calls after free() are no-ops.
func sessionObject(s *ime.Session) js.Value {
	obj := js.Global().Get("Object").New()
	var names []string
	var funcs []js.Func
	export := func(name string, fn func(args []js.Value) any) {
		f := js.FuncOf(func(this js.Value, args []js.Value) any { return fn(args) })
		names = append(names, name)
		funcs = append(funcs, f)
		obj.Set(name, f)
	}

	export("injectKey", func(args []js.Value) any {
		if len(args) < 1 {
			return false
		}
		var mask keycode.Mask
		if len(args) > 1 && args[1].Type() == js.TypeNumber {
			mask = keycode.Mask(args[1].Int())
		}
		return s.InjectKey(args[0].String(), mask)
	})
	export("stopComposite", func([]js.Value) any {
		_ = s.StopComposite()
		return nil
	})
	export("setCategory", func(args []js.Value) any {
		if len(args) < 1 {
			return jsError("setCategory: expected a category")
		}
		c, ok := composer.ParseCategory(args[0].String())
		if !ok {
			return jsError("setCategory: unknown category " + args[0].String())
		}
		if err := s.SetCategory(c); err != nil {
			return jsError(err.Error())
		}
		return nil
	})
	export("category", func([]js.Value) any {
		c, err := s.Category()
		if err != nil {
			return nil
		}
		return c.String()
	})

	var free js.Func
	free = js.FuncOf(func(js.Value, []js.Value) any {
		if !s.Alive() {
			return nil
		}
		_ = s.Close()
		for _, name := range append(names, "free") {
			obj.Set(name, inert)
		}
		for _, f := range funcs {
			f.Release()
		}
		free.Release()
		return nil
	})
	obj.Set("free", free)
	return obj
}

func jsError(msg string) js.Value {
	return js.Global().Get("Error").New(msg)
}
