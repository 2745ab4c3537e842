package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"webperch/internal/config"
	"webperch/internal/faultlog"
	"webperch/internal/host"
	"webperch/internal/page"
	"webperch/internal/toast"
	"webperch/internal/window"
)

// App wires the Wails lifecycle to the coordinators. One per process.
type App struct {
	log   *slog.Logger
	procs *host.Coordinator

	mu         sync.Mutex
	cfg        config.Config
	homeURL    string
	homeOrigin string
	ctx        context.Context
	visible    bool

	ready chan struct{} // closed when Wails startup completes

	bridge     *domBridge
	queue      *page.Queue
	coord      *window.Coordinator
	stopKeeper func()
}

func NewApp(cfg config.Config, homeOrigin string, procs *host.Coordinator, log *slog.Logger) *App {
	return &App{
		log:        log,
		procs:      procs,
		homeURL:    cfg.HomeURL,
		homeOrigin: homeOrigin,
		cfg:        cfg,
		ready:      make(chan struct{}),
	}
}

func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.visible = true
	cfg := a.cfg
	a.mu.Unlock()

	bridge, err := newDOMBridge(ctx, a.log, a.onPageLoaded)
	if err != nil {
		a.log.Error("startup failed", "err", err)
		a.procs.OnFatal(err)
		return
	}
	queue := page.NewQueue(bridge, a, a.log, page.Options{})
	coord := window.New(queue, &winBridge{ctx: ctx, log: a.log},
		a.home(), windowOptions(cfg), a.log)
	a.mu.Lock()
	a.bridge = bridge
	a.queue = queue
	a.coord = coord
	a.mu.Unlock()

	// Anchor clicks are forwarded rather than followed; same-origin ones
	// continue in place, allowed externals go to the OS, the rest drop.
	navH, err := bridge.Listen("navigate", func(ev page.Event) {
		a.navigate(ev.Target)
	})
	if err == nil {
		a.procs.Subscribe("navigate", navH.Release)
	}

	stopKeeper := bridge.StartKeeper(func() (string, string) {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.homeOrigin, a.homeURL
	})
	a.mu.Lock()
	a.stopKeeper = stopKeeper
	a.mu.Unlock()

	a.procs.AddCleanup(func(ctx context.Context) { coord.Shutdown(ctx) })
	a.procs.AddCleanup(func(context.Context) {
		stopKeeper()
		queue.Close()
		bridge.Close()
	})
	faultlog.Lifecycle(coord.SessionID(), "startup", "")

	// Leave the Wails asset page for the real home URL. The bootstrap
	// keeper picks the new document up and signals loaded.
	wailsRuntime.WindowExecJS(ctx, "window.location.href = "+jsString(cfg.HomeURL)+";")
	close(a.ready)
}

// home returns the current home origin.
func (a *App) home() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.homeOrigin
}

func windowOptions(cfg config.Config) window.Options {
	return window.Options{
		CacheClearInterval:  time.Duration(cfg.CacheClearMinutes) * time.Minute,
		MemoryProbeInterval: time.Duration(cfg.MemoryProbeSeconds) * time.Second,
		MemoryHighWater:     cfg.MemoryHighWater,
	}
}

// applyConfig applies a reloaded config to the running process: home
// origin and tuning reach the live coordinator, the keeper picks up the
// new home on its next tick. Storage backend and log destination stay
// as opened; they apply on the next launch.
func (a *App) applyConfig(next config.Config) {
	origin, err := next.HomeOrigin()
	if err != nil {
		a.log.Warn("config reload: bad home_url", "err", err)
		return
	}
	a.mu.Lock()
	a.cfg = next
	a.homeURL = next.HomeURL
	a.homeOrigin = origin
	coord := a.coord
	a.mu.Unlock()
	if coord != nil {
		coord.Reconfigure(origin, windowOptions(next))
	}
}

// onPageLoaded fires on every fresh document the bootstrap lands in.
func (a *App) onPageLoaded() {
	go a.coord.OnContentLoadFinished()
}

// navigate applies policy to a link the page tried to follow.
func (a *App) navigate(url string) {
	if a.coord.OnWillNavigate(url) {
		a.mu.Lock()
		ctx := a.ctx
		a.mu.Unlock()
		wailsRuntime.WindowExecJS(ctx, "window.location.href = "+jsString(url)+";")
		return
	}
	// Not same-origin: treat as a new-window request.
	a.coord.OnNewWindow(url)
}

func (a *App) shutdown(ctx context.Context) {
	if a.stopKeeper != nil {
		a.stopKeeper()
	}
	if a.coord != nil {
		shCtx, cancel := context.WithTimeout(context.Background(), host.DefaultCleanupTimeout)
		a.coord.Shutdown(shCtx)
		cancel()
	}
	if a.queue != nil {
		a.queue.Close()
	}
	if a.bridge != nil {
		a.bridge.Close()
	}
}

// beforeClose intercepts the window close. Shift+close or a tray quit
// exits fully; a normal close hides to the tray.
func (a *App) beforeClose(ctx context.Context) bool {
	if a.procs.WillQuit() || isShiftHeld() {
		a.procs.Shutdown(0)
		return false
	}
	go a.coord.OnCloseRequested()
	a.mu.Lock()
	a.visible = false
	a.mu.Unlock()
	return true // prevent close → hide to tray
}

// ToggleAlwaysOnTop satisfies the page controller's host boundary: the
// pin button lands here.
func (a *App) ToggleAlwaysOnTop() {
	a.coord.ToggleAlwaysOnTop()
}

// ShowWindow restores the window from the tray.
func (a *App) ShowWindow() {
	<-a.ready
	a.mu.Lock()
	ctx := a.ctx
	a.visible = true
	a.mu.Unlock()
	wailsRuntime.WindowShow(ctx)
}

// ToggleWindow flips between shown and hidden-to-tray.
func (a *App) ToggleWindow() {
	<-a.ready
	a.mu.Lock()
	ctx := a.ctx
	visible := a.visible
	a.visible = !visible
	a.mu.Unlock()
	if visible {
		go a.coord.OnCloseRequested()
	} else {
		wailsRuntime.WindowShow(ctx)
	}
}

// ReloadPage reloads the hosted page from the tray menu.
func (a *App) ReloadPage() {
	<-a.ready
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()
	wailsRuntime.WindowExecJS(ctx, "location.reload();")
}

// OpenInBrowser opens the home URL in the OS default browser.
func (a *App) OpenInBrowser() {
	<-a.ready
	a.mu.Lock()
	ctx := a.ctx
	url := a.homeURL
	a.mu.Unlock()
	wailsRuntime.BrowserOpenURL(ctx, url)
}

// winBridge adapts the Wails runtime to the window coordinator's host
// boundary.
type winBridge struct {
	ctx context.Context
	log *slog.Logger
}

func (w *winBridge) Hide() {
	wailsRuntime.WindowHide(w.ctx)
}

func (w *winBridge) Reload() {
	wailsRuntime.WindowExecJS(w.ctx, "location.reload();")
}

func (w *winBridge) SetAlwaysOnTop(onTop bool) {
	wailsRuntime.WindowSetAlwaysOnTop(w.ctx, onTop)
}

// ClearCache drops the page's cache storage. Session storage is left
// alone so the hosted app keeps its own state.
func (w *winBridge) ClearCache() {
	wailsRuntime.WindowExecJS(w.ctx,
		`(async function(){try{var ks=await caches.keys();for(var i=0;i<ks.length;i++)await caches.delete(ks[i]);}catch(e){}})();`)
}

func (w *winBridge) OpenExternal(url string) {
	wailsRuntime.BrowserOpenURL(w.ctx, url)
}

func (w *winBridge) Notify(title, message string) {
	if err := toast.Show(title, message); err != nil {
		w.log.Debug("toast failed", "err", err)
	}
}
