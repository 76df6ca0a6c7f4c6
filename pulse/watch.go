package pulse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/BAODAU/whop-wss-streaming/scrape"
	"github.com/BAODAU/whop-wss-streaming/snapshot"
)

// DefaultFeedURL is the marketplace page whose WebSocket traffic the watcher
// taps.
const DefaultFeedURL = "https://whop.com/pulse/"

const binaryMarker = "[WS-HOOK] BINARY payload:"

// wsHook replaces the page's WebSocket constructor before any script runs,
// forwarding binary frames base64-encoded through console messages.
const wsHook = `
    const NativeWebSocket = window.WebSocket;
    window.WebSocket = class extends NativeWebSocket {
        constructor(url, protocols) {
            super(url, protocols);

            this.addEventListener('open', () => {
                console.log('[WS-HOOK] Connection opened to:' + url);
            });

            this.addEventListener('message', (event) => {
                if (event.data instanceof ArrayBuffer) {
                    const bytes = new Uint8Array(event.data);
                    let binary = '';
                    for (let i = 0; i < bytes.byteLength; i++) {
                        binary += String.fromCharCode(bytes[i]);
                    }
                    const b64 = btoa(binary);
                    console.log('[WS-HOOK] BINARY payload:', b64);
                } else {
                    console.log('[WS-HOOK] TEXT payload:', event.data);
                }
            });
        }
    };
`

// WatcherOptions configures a live feed watcher.
type WatcherOptions struct {
	Headless bool
	// ShowRaw additionally writes every decoded frame, not just product
	// sightings.
	ShowRaw bool
	// Out receives the decoded feed as JSON lines. Default: stdout.
	Out io.Writer
	// Scrape configures the snapshot fetches triggered by priced sightings.
	Scrape scrape.Options
	Logger *slog.Logger
}

// Watcher taps the marketplace wire feed and fetches a listing snapshot the
// first time each priced product URL is seen.
type Watcher struct {
	opts WatcherOptions
	log  *slog.Logger

	mu       sync.Mutex
	fetched  map[string]bool
	fetching map[string]bool
	pending  sync.WaitGroup
}

// NewWatcher returns a watcher ready to run.
func NewWatcher(opts WatcherOptions) *Watcher {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		opts:     opts,
		log:      log,
		fetched:  map[string]bool{},
		fetching: map[string]bool{},
	}
}

// Run launches the hooked browser session on feedURL and processes frames
// until ctx is canceled.
func (w *Watcher) Run(ctx context.Context, feedURL string) error {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}

	allocatorOpts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	allocatorOpts = append(allocatorOpts,
		chromedp.Flag("headless", w.opts.Headless),
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
	)
	if w.opts.Scrape.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(w.opts.Scrape.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	chromedp.ListenTarget(taskCtx, func(ev any) {
		if event, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			w.handleConsole(ctx, consoleText(event))
		}
	})

	err := chromedp.Run(taskCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(wsHook).Do(ctx)
			return err
		}),
		chromedp.Navigate(feedURL),
	)
	if err != nil {
		return fmt.Errorf("starting feed session: %w", err)
	}
	w.log.Info("hook injected, watching feed", "url", feedURL)

	<-ctx.Done()
	w.pending.Wait()
	return ctx.Err()
}

// consoleText joins a console event's string arguments the way the page's
// console would.
func consoleText(event *runtime.EventConsoleAPICalled) string {
	parts := make([]string, 0, len(event.Args))
	for _, arg := range event.Args {
		if arg == nil || arg.Value == nil {
			continue
		}
		var s string
		if err := json.Unmarshal(arg.Value, &s); err == nil {
			parts = append(parts, s)
			continue
		}
		parts = append(parts, string(arg.Value))
	}
	return strings.Join(parts, " ")
}

// handleConsole filters hook output, decodes binary frames, and schedules
// snapshot fetches for new priced sightings.
func (w *Watcher) handleConsole(ctx context.Context, text string) {
	if !strings.Contains(text, "[WS-HOOK]") {
		return
	}
	idx := strings.Index(text, binaryMarker)
	if idx == -1 {
		return
	}
	b64 := strings.TrimSpace(text[idx+len(binaryMarker):])

	decoded, err := DecodeFrame(b64)
	if err != nil {
		w.log.Warn("frame decode failed", "err", err)
		return
	}
	if decoded == nil {
		return
	}
	if w.opts.ShowRaw {
		w.writeJSON(decoded)
	}

	if payload, ok := decoded.(map[string]any); ok {
		interesting := map[string]any{}
		if query, ok := payload["query"]; ok {
			interesting["query"] = query
		}
		if purchase, ok := payload["purchase"]; ok {
			interesting["purchase"] = purchase
		}
		if len(interesting) > 0 {
			w.writeJSON(interesting)
		}
	}

	for _, product := range CollectPricedProducts(decoded) {
		w.writeJSON(product)
		if product.Price == nil {
			continue
		}
		w.scheduleSnapshot(ctx, product.URL)
	}
}

// scheduleSnapshot fetches a listing snapshot for url at most once per
// watcher lifetime, in the background.
func (w *Watcher) scheduleSnapshot(ctx context.Context, url string) {
	if url == "" {
		return
	}
	w.mu.Lock()
	if w.fetched[url] || w.fetching[url] {
		w.mu.Unlock()
		return
	}
	w.fetching[url] = true
	w.mu.Unlock()

	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		defer func() {
			w.mu.Lock()
			delete(w.fetching, url)
			w.fetched[url] = true
			w.mu.Unlock()
		}()

		result, err := scrape.FetchListingSnapshot(ctx, url, w.opts.Scrape)
		if err != nil {
			w.log.Warn("listing snapshot failed", "url", url, "err", err)
			return
		}
		w.writeSnapshot(url, result)
	}()
}

// writeSnapshot prints the fetched snapshot: a flat snapshot's content map
// when present, otherwise the whole result.
func (w *Watcher) writeSnapshot(url string, result *snapshot.Result) {
	infoURL := url
	if result.Flat != nil && result.Flat.FinalURL != "" {
		infoURL = result.Flat.FinalURL
	} else if result.Profile != nil && result.Profile.ProfileURL != "" {
		infoURL = result.Profile.ProfileURL
	}
	w.log.Info("listing snapshot", "url", infoURL)

	if result.Flat != nil && len(result.Flat.Content) > 0 {
		w.writeJSON(result.Flat.Content)
		return
	}
	w.writeJSON(result)
}

func (w *Watcher) writeJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		w.log.Warn("encoding feed output", "err", err)
		return
	}
	fmt.Fprintln(w.opts.Out, string(data))
}
