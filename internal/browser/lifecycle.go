package browser

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
)

// navigationWatcher observes a tab while a navigation is in flight. It
// records which documents reached the wanted lifecycle event and the last
// document response seen per frame.
//
// Only loaders whose "init" event arrives after the watcher is attached
// count, so a late event from the previous document cannot end the wait.
type navigationWatcher struct {
	waitUntil string

	mu      sync.Mutex
	fresh   map[cdp.LoaderID]bool
	settled map[cdp.LoaderID]cdp.FrameID
	docs    map[cdp.FrameID]*network.Response
	notify  chan struct{}
}

func newNavigationWatcher(waitUntil string) *navigationWatcher {
	return &navigationWatcher{
		waitUntil: waitUntil,
		fresh:     make(map[cdp.LoaderID]bool),
		settled:   make(map[cdp.LoaderID]cdp.FrameID),
		docs:      make(map[cdp.FrameID]*network.Response),
		notify:    make(chan struct{}, 1),
	}
}

// listen is passed to chromedp.ListenTarget. It runs on chromedp's event
// goroutine and must not block.
func (w *navigationWatcher) listen(ev any) {
	switch e := ev.(type) {
	case *page.EventLifecycleEvent:
		w.mu.Lock()
		switch {
		case e.Name == "init":
			w.fresh[e.LoaderID] = true
		case e.Name == w.waitUntil && w.fresh[e.LoaderID]:
			w.settled[e.LoaderID] = e.FrameID
		}
		w.mu.Unlock()
		w.signal()

	case *network.EventResponseReceived:
		if e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		w.mu.Lock()
		w.docs[e.FrameID] = e.Response
		w.mu.Unlock()
	}
}

func (w *navigationWatcher) signal() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// wait blocks until a fresh document in frame has reached the lifecycle
// event, or ctx is done.
func (w *navigationWatcher) wait(ctx context.Context, frame cdp.FrameID) error {
	for {
		w.mu.Lock()
		for _, f := range w.settled {
			if f == frame {
				w.mu.Unlock()
				return nil
			}
		}
		w.mu.Unlock()

		select {
		case <-w.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// document returns the last document response observed for frame, which
// after redirects is the final hop.
func (w *navigationWatcher) document(frame cdp.FrameID) *network.Response {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.docs[frame]
}
