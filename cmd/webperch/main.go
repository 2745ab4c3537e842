package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/energye/systray"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"webperch/internal/alert"
	"webperch/internal/applog"
	"webperch/internal/config"
	"webperch/internal/faultlog"
	"webperch/internal/host"
)

func main() {
	configPath := ""
	urlOverride := ""
	showLog := false

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--url", "-u":
			if i+1 < len(args) {
				urlOverride = args[i+1]
				i++
			}
		case "--show-log":
			showLog = true
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "webperch: %v\n", err)
		os.Exit(1)
	}
	if urlOverride != "" {
		cfg.HomeURL = urlOverride
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "webperch: %v\n", err)
		os.Exit(1)
	}
	homeOrigin, err := cfg.HomeOrigin()
	if err != nil {
		fmt.Fprintf(os.Stderr, "webperch: %v\n", err)
		os.Exit(1)
	}

	log := applog.New(applog.Options{Level: cfg.Log.Level, File: cfg.Log.File})

	if showLog {
		if err := runShowLog(cfg.Storage); err != nil {
			fmt.Fprintf(os.Stderr, "webperch: %v\n", err)
			os.Exit(1)
		}
		return
	}

	faultlog.OpenDefault(cfg.Storage)
	defer faultlog.Close()

	alerts := alert.New(cfg.Alerts.MQTT, log)
	procs := host.New(alerts, log)
	app := NewApp(cfg, homeOrigin, procs, log)

	// Reload the config on edit. Home origin, intervals, the memory
	// high water and the alert destination reach the running process;
	// storage backend and log destination apply on the next launch.
	if cfgPath, err := config.FindPath(configPath); err == nil {
		w, werr := config.Watch(cfgPath, log, func(next config.Config) {
			app.applyConfig(next)
			alerts.Reconfigure(next.Alerts.MQTT)
		})
		if werr != nil {
			log.Warn("config watch unavailable", "err", werr)
		} else {
			procs.Subscribe("config-watch", func() { w.Close() })
		}
	}

	stopSignals := procs.WatchSignals()
	procs.Subscribe("os-signals", stopSignals)
	procs.AddCleanup(func(ctx context.Context) { systray.Quit() })

	menu := host.MenuModel(host.Actions{
		ShowHide:      app.ToggleWindow,
		Reload:        app.ReloadPage,
		OpenInBrowser: app.OpenInBrowser,
		Quit:          func() { procs.Shutdown(0) },
	})
	procs.Guard("tray", func() { runTray(menu, app.ShowWindow) })

	// A minimal handler bootstraps the WebView with an empty page;
	// startup then navigates straight to the home URL.
	loader := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html><html><body style="background:#1a1b26"></body></html>`))
	})

	err = wails.Run(&options.App{
		Title:     "webperch",
		Width:     1280,
		Height:    860,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Handler: loader,
		},
		BackgroundColour: &options.RGBA{R: 26, G: 27, B: 38, A: 255}, // #1a1b26
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		OnBeforeClose:    app.beforeClose,
		Bind:             []interface{}{app},
	})
	if err != nil {
		log.Error("window host failed", "err", err)
		procs.OnFatal(err)
	}
}
