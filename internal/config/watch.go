package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"fundbot/internal/logger"
)

// SentimentWeightsFile is the live-tunable weights document.
type SentimentWeightsFile struct {
	InsiderWeight float64 `yaml:"insider_weight"`
	NewsWeight    float64 `yaml:"news_weight"`
}

// WeightsListener receives every successfully parsed weights update.
type WeightsListener func(SentimentWeightsFile)

// WeightsWatcher reloads the sentiment weights file on filesystem change.
// A malformed update is logged and ignored; the last good weights stay in
// effect.
type WeightsWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu        sync.RWMutex
	current   SentimentWeightsFile
	listeners []WeightsListener
}

// NewWeightsWatcher loads the file once and starts watching it.
func NewWeightsWatcher(path string) (*WeightsWatcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("weights watcher requires path")
	}
	initial, err := readWeightsFile(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	return &WeightsWatcher{path: path, watcher: fsw, current: initial}, nil
}

// Current returns the last good weights.
func (w *WeightsWatcher) Current() SentimentWeightsFile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe registers a listener and immediately delivers the current
// weights to it.
func (w *WeightsWatcher) Subscribe(fn WeightsListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	cur := w.current
	w.mu.Unlock()
	fn(cur)
}

// Run processes change events until ctx is done.
func (w *WeightsWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("weights watcher: %v", err)
		}
	}
}

func (w *WeightsWatcher) reload() {
	weights, err := readWeightsFile(w.path)
	if err != nil {
		logger.Errorf("weights reload failed (%s), keeping previous: %v", w.path, err)
		return
	}
	w.mu.Lock()
	w.current = weights
	listeners := append([]WeightsListener(nil), w.listeners...)
	w.mu.Unlock()

	logger.Infof("sentiment weights reloaded: insider=%.2f news=%.2f", weights.InsiderWeight, weights.NewsWeight)
	for _, fn := range listeners {
		fn(weights)
	}
}

func readWeightsFile(path string) (SentimentWeightsFile, error) {
	var out SentimentWeightsFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("parsing weights file failed: %w", err)
	}
	if out.InsiderWeight < 0 || out.NewsWeight < 0 {
		return out, fmt.Errorf("weights must be >= 0")
	}
	if out.InsiderWeight+out.NewsWeight == 0 {
		return out, fmt.Errorf("weights cannot both be zero")
	}
	return out, nil
}
