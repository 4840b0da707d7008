package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/user/life-rpg/internal/interfaces"
	"github.com/user/life-rpg/internal/types"
	"go.uber.org/zap"
)

// NeedsSyncKey marks the local cache when the last remote save failed.
const NeedsSyncKey = "needs_sync"

const (
	sourceRemote = "remote"
	sourceCache  = "cache"
	sourceFresh  = "fresh"
	sourceMemory = "memory"
)

// SnapshotKey is the local cache key holding a user's last committed snapshot.
func SnapshotKey(userID string) string {
	return "snapshot:" + userID
}

// loadSnapshot picks the newest available snapshot. A pending sync means the
// local copy is ahead of the remote one.
func (gm *GameManager) loadSnapshot(ctx context.Context) (types.Snapshot, string) {
	pending := gm.pendingSync(ctx)

	if gm.persistence != nil && !pending {
		snap, err := gm.persistence.Load(ctx, gm.userID)
		switch {
		case err == nil:
			return snap, sourceRemote
		case errors.Is(err, interfaces.ErrNotFound):
			gm.Logger.Debug("No remote snapshot", zap.String("user_id", gm.userID))
		default:
			gm.Logger.Warn("Failed to load remote snapshot, trying local cache",
				zap.String("user_id", gm.userID),
				zap.Error(err))
		}
	}

	if snap, ok := gm.cachedSnapshot(ctx); ok {
		return snap, sourceCache
	}
	return types.Snapshot{State: types.NewGameState()}, sourceFresh
}

func (gm *GameManager) cachedSnapshot(ctx context.Context) (types.Snapshot, bool) {
	if gm.cache == nil {
		return types.Snapshot{}, false
	}
	raw, ok, err := gm.cache.Get(ctx, SnapshotKey(gm.userID))
	if err != nil {
		gm.Logger.Warn("Failed to read cached snapshot", zap.Error(err))
		return types.Snapshot{}, false
	}
	if !ok {
		return types.Snapshot{}, false
	}
	var snap types.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		gm.Logger.Warn("Discarding unreadable cached snapshot", zap.Error(err))
		return types.Snapshot{}, false
	}
	return snap, true
}

func (gm *GameManager) pendingSync(ctx context.Context) bool {
	if gm.cache == nil {
		return false
	}
	_, ok, err := gm.cache.Get(ctx, NeedsSyncKey)
	if err != nil {
		gm.Logger.Warn("Failed to read sync flag", zap.Error(err))
		return false
	}
	return ok
}

// persistAsync writes snap to the local cache and the remote store in the
// background. Saves are serialized. A snapshot at or below the highest version
// already attempted is skipped, whether that attempt succeeded or not, so an
// older snapshot can never overwrite a newer one or clear its sync flag.
func (gm *GameManager) persistAsync(ctx context.Context, snap types.Snapshot, version uint64) {
	gm.goAsync(ctx, "save", func(ctx context.Context) {
		gm.saveLock.Lock()
		defer gm.saveLock.Unlock()

		if version <= gm.persistedVersion {
			gm.Logger.Debug("Skipping stale snapshot save",
				zap.Uint64("version", version),
				zap.Uint64("persisted_version", gm.persistedVersion))
			return
		}
		gm.persistedVersion = version
		gm.cacheSnapshot(ctx, snap)
		_ = gm.saveRemote(ctx, snap)
	})
}

func (gm *GameManager) cacheSnapshot(ctx context.Context, snap types.Snapshot) {
	if gm.cache == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		gm.Logger.Error("Failed to encode snapshot", zap.Error(err))
		return
	}
	if err := gm.cache.Set(ctx, SnapshotKey(gm.userID), string(data)); err != nil {
		gm.Logger.Warn("Failed to cache snapshot", zap.Error(err))
	}
}

// saveRemote performs one remote save and records the outcome in the sync
// flag. Caller holds saveLock.
func (gm *GameManager) saveRemote(ctx context.Context, snap types.Snapshot) error {
	if gm.persistence == nil {
		return nil
	}

	if err := gm.persistence.Save(ctx, gm.userID, snap); err != nil {
		gm.Logger.Warn("Failed to save snapshot, marking for sync",
			zap.String("user_id", gm.userID),
			zap.Error(err))
		if gm.cache != nil {
			if cerr := gm.cache.Set(ctx, NeedsSyncKey, "true"); cerr != nil {
				gm.Logger.Error("Failed to set sync flag", zap.Error(cerr))
			}
		}
		return err
	}

	if gm.cache != nil {
		if err := gm.cache.Remove(ctx, NeedsSyncKey); err != nil {
			gm.Logger.Warn("Failed to clear sync flag", zap.Error(err))
		}
	}
	return nil
}

// Reconnected retries a pending sync once with the current snapshot.
// Concurrent calls share a single attempt. The flag is only cleared after the
// remote store confirms the save.
func (gm *GameManager) Reconnected(ctx context.Context) error {
	_, err, _ := gm.syncGroup.Do(NeedsSyncKey, func() (interface{}, error) {
		gm.saveLock.Lock()
		defer gm.saveLock.Unlock()

		if gm.persistence == nil || !gm.pendingSync(ctx) {
			return nil, nil
		}

		gm.stateLock.RLock()
		snap := gm.snap.Clone()
		version := gm.version
		gm.stateLock.RUnlock()

		if version > gm.persistedVersion {
			gm.persistedVersion = version
			gm.cacheSnapshot(ctx, snap)
		}

		gm.Logger.Info("Retrying pending sync", zap.String("user_id", gm.userID))
		if err := gm.saveRemote(ctx, snap); err != nil {
			return nil, fmt.Errorf("failed to sync snapshot: %w", err)
		}
		gm.Logger.Info("Pending sync completed", zap.String("user_id", gm.userID))
		return nil, nil
	})
	return err
}

// Prober reports whether the network is reachable.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Reconnector is notified when connectivity comes back.
type Reconnector interface {
	Reconnected(ctx context.Context) error
}

// ConnectivityMonitor polls a Prober and notifies its target on every
// offline to online transition
type ConnectivityMonitor struct {
	prober   Prober
	target   Reconnector
	interval time.Duration
	online   bool
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
	Logger   *zap.Logger
}

// NewConnectivityMonitor creates a new connectivity monitor. The first
// successful probe counts as a transition.
func NewConnectivityMonitor(prober Prober, target Reconnector, interval time.Duration, logger *zap.Logger) *ConnectivityMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ConnectivityMonitor{
		prober:   prober,
		target:   target,
		interval: interval,
		stopChan: make(chan struct{}),
		Logger:   logger,
	}
}

// Start begins polling
func (cm *ConnectivityMonitor) Start(ctx context.Context) {
	cm.ticker = time.NewTicker(cm.interval)
	go func() {
		cm.check(ctx)
		for {
			select {
			case <-cm.ticker.C:
				cm.check(ctx)
			case <-ctx.Done():
				cm.ticker.Stop()
				return
			case <-cm.stopChan:
				cm.ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts polling
func (cm *ConnectivityMonitor) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopChan) })
}

// check probes once and reports whether a reconnect was triggered
func (cm *ConnectivityMonitor) check(ctx context.Context) bool {
	online := cm.prober.Probe(ctx)
	wasOnline := cm.online
	cm.online = online

	switch {
	case online && !wasOnline:
		cm.Logger.Info("Connectivity restored")
		if err := cm.target.Reconnected(ctx); err != nil {
			cm.Logger.Warn("Reconnect sync failed", zap.Error(err))
		}
		return true
	case !online && wasOnline:
		cm.Logger.Warn("Connectivity lost")
	}
	return false
}

// HTTPProber checks connectivity with a HEAD request
type HTTPProber struct {
	URL    string
	Client *http.Client
}

// NewHTTPProber creates a prober for url with the given request timeout
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

// Probe reports whether the URL answered without a server error
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
