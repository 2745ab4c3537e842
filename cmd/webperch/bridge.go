package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"webperch/internal/page"
)

// heapTimeout bounds the heap-probe round trip through the page.
const heapTimeout = 2 * time.Second

// domBridge connects the page controller to the hosted document.
// Outbound calls are script evaluation through the WebView; inbound
// events arrive over a loopback HTTP sink the injected bootstrap beacons
// to (127.0.0.1 is exempt from mixed-content blocking, so this works
// from an https page). Requests must carry the per-session token baked
// into the bootstrap, so another local process cannot forge events.
type domBridge struct {
	ctx   context.Context
	log   *slog.Logger
	srv   *http.Server
	port  int
	token string

	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]func(page.Event)
	heapCh    chan float64
	onLoaded  func()
}

func newDOMBridge(ctx context.Context, log *slog.Logger, onLoaded func()) (*domBridge, error) {
	tok := make([]byte, 16)
	if _, err := rand.Read(tok); err != nil {
		return nil, fmt.Errorf("event sink token: %w", err)
	}
	b := &domBridge{
		ctx:       ctx,
		log:       log,
		token:     hex.EncodeToString(tok),
		listeners: make(map[string]map[int]func(page.Event)),
		heapCh:    make(chan float64, 1),
		onLoaded:  onLoaded,
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("event sink: %w", err)
	}
	b.port = ln.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/event", b.handleEvent)
	mux.HandleFunc("/heap", b.handleHeap)
	b.srv = &http.Server{Handler: mux}
	go func() {
		if err := b.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("event sink stopped", "err", err)
		}
	}()
	return b, nil
}

func (b *domBridge) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b.srv.Shutdown(ctx)
}

// StartKeeper re-injects the bootstrap after every navigation: a low
// frequency poll evaluates a guarded script that installs the event
// forwarding exactly once per document. The fresh document's "loaded"
// beacon is what drives the load-finished signal upstream. state
// supplies the current home origin and URL, so a strayed document — a
// page script rewrote location cross-origin, which never passes the
// anchor interception — is snapped back. Returns a stop function.
func (b *domBridge) StartKeeper(state func() (homeOrigin, homeURL string)) func() {
	stop := make(chan struct{})
	go func() {
		tick := time.NewTicker(500 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				origin, url := state()
				wailsRuntime.WindowExecJS(b.ctx, b.keeperScript(origin, url))
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

// keeperScript snaps a document that left the home origin back to the
// home URL, then installs the bootstrap exactly once per document.
func (b *domBridge) keeperScript(homeOrigin, homeURL string) string {
	return fmt.Sprintf(`(function(){
if (location.origin !== %s) { location.replace(%s); return; }
%s
})();`, jsString(homeOrigin), jsString(homeURL), b.bootstrapScript())
}

// bootstrapScript forwards wheel, scroll, mousemove, and click events to
// the loopback sink, and intercepts every anchor click so the Go side
// decides navigation. Guarded so repeated evaluation is a no-op.
func (b *domBridge) bootstrapScript() string {
	return fmt.Sprintf(`(function(){
if (window.__perchBoot) return;
window.__perchBoot = true;
var sink = 'http://127.0.0.1:%d';
var tok = '?t=%s';
var send = function(ev){ try { navigator.sendBeacon(sink+'/event'+tok, JSON.stringify(ev)); } catch(e){} };
window.addEventListener('wheel', function(e){ send({kind:'wheel', deltaY:e.deltaY}); }, {passive:true});
window.addEventListener('scroll', function(){ send({kind:'scroll', top:window.scrollY}); }, {passive:true});
var lastMove = 0;
window.addEventListener('mousemove', function(e){
  var now = Date.now();
  if (now - lastMove < 100) return;
  lastMove = now;
  send({kind:'mousemove', x:e.clientX, width:window.innerWidth});
}, {passive:true});
document.addEventListener('click', function(e){
  var a = e.target.closest ? e.target.closest('a[href]') : null;
  if (a) {
    e.preventDefault();
    send({kind:'navigate', target:a.href});
    return;
  }
  if (e.target.id) send({kind:'click', target:e.target.id});
}, true);
send({kind:'loaded'});
})();`, b.port, b.token)
}

// sinkEvent is the JSON shape the bootstrap beacons.
type sinkEvent struct {
	Kind   string  `json:"kind"`
	Target string  `json:"target"`
	DeltaY float64 `json:"deltaY"`
	Top    float64 `json:"top"`
	X      float64 `json:"x"`
	Width  float64 `json:"width"`
}

func (b *domBridge) authorized(r *http.Request) bool {
	return r.URL.Query().Get("t") == b.token
}

func (b *domBridge) handleEvent(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		return
	}
	var ev sinkEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		b.log.Debug("event sink: bad payload", "err", err)
		return
	}
	b.dispatch(ev)
}

func (b *domBridge) handleHeap(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 64))
	if err != nil {
		return
	}
	ratio, err := strconv.ParseFloat(string(body), 64)
	if err != nil {
		return
	}
	select {
	case b.heapCh <- ratio:
	default:
	}
}

func (b *domBridge) dispatch(ev sinkEvent) {
	if ev.Kind == "loaded" {
		if b.onLoaded != nil {
			b.onLoaded()
		}
		return
	}
	b.mu.Lock()
	fns := make([]func(page.Event), 0, len(b.listeners[ev.Kind]))
	for _, fn := range b.listeners[ev.Kind] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	e := page.Event{Kind: ev.Kind, Target: ev.Target, DeltaY: ev.DeltaY, Top: ev.Top, X: ev.X, Width: ev.Width}
	for _, fn := range fns {
		fn(e)
	}
}

// CreateElement appends an empty element with the given id to the
// document body. Ids ending in "-style" become style elements so their
// text content applies as CSS.
func (b *domBridge) CreateElement(id string) (page.Node, error) {
	tag := "div"
	if strings.HasSuffix(id, "-style") {
		tag = "style"
	}
	wailsRuntime.WindowExecJS(b.ctx, fmt.Sprintf(
		`(function(){var d=document.createElement(%s);d.id=%s;document.body.appendChild(d);})();`,
		jsString(tag), jsString(id)))
	return &bridgeNode{bridge: b, id: id}, nil
}

// Listen registers fn for one forwarded event kind. The handle removes
// exactly this registration.
func (b *domBridge) Listen(event string, fn func(page.Event)) (page.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.listeners[event] == nil {
		b.listeners[event] = make(map[int]func(page.Event))
	}
	b.listeners[event][id] = fn
	return page.HandleFunc(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[event], id)
	}), nil
}

func (b *domBridge) Reload() error {
	wailsRuntime.WindowExecJS(b.ctx, "location.reload();")
	return nil
}

// HeapPressure asks the page for used/limit and waits for the beaconed
// answer.
func (b *domBridge) HeapPressure() (float64, error) {
	// Drain a stale answer from a probe that timed out earlier.
	select {
	case <-b.heapCh:
	default:
	}
	wailsRuntime.WindowExecJS(b.ctx, fmt.Sprintf(
		`(function(){var m=performance.memory;var r=m?m.usedJSHeapSize/m.jsHeapSizeLimit:0;try{navigator.sendBeacon('http://127.0.0.1:%d/heap?t=%s',String(r));}catch(e){}})();`,
		b.port, b.token))
	select {
	case ratio := <-b.heapCh:
		return ratio, nil
	case <-time.After(heapTimeout):
		return 0, fmt.Errorf("heap probe: no answer within %s", heapTimeout)
	}
}

// bridgeNode manipulates one created element by id.
type bridgeNode struct {
	bridge *domBridge
	id     string
}

func (n *bridgeNode) SetText(s string) {
	n.exec(fmt.Sprintf(`e.textContent=%s;`, jsString(s)))
}

func (n *bridgeNode) SetStyle(property, value string) {
	n.exec(fmt.Sprintf(`e.style.setProperty(%s,%s);`, jsString(property), jsString(value)))
}

func (n *bridgeNode) Remove() {
	n.exec(`e.remove();`)
}

func (n *bridgeNode) exec(body string) {
	wailsRuntime.WindowExecJS(n.bridge.ctx, fmt.Sprintf(
		`(function(){var e=document.getElementById(%s);if(e){%s}})();`,
		jsString(n.id), body))
}

// jsString encodes s as a JS string literal. JSON string syntax is valid
// JS, and encoding keeps quotes and angle brackets inert.
func jsString(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}
