package labeling

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"labelbridge/labelstudio"
)

type cachedExport struct {
	tasks             []labelstudio.ExportedTask
	expireAtTimestamp int64
}

// ExportCache keeps recent project exports in memory so repeated export reads
// do not hammer the annotation tool's bulk endpoint. Entries expire after ttl.
type ExportCache struct {
	stop chan struct{}

	ttl     time.Duration
	wg      sync.WaitGroup
	mu      sync.RWMutex
	exports map[string]cachedExport
}

// NewExportCache Create an export cache with the given entry ttl
func NewExportCache(ttl time.Duration, cleanupInterval time.Duration) *ExportCache {
	log.Info("Creating export cache with cleanup interval ", cleanupInterval)
	ec := &ExportCache{
		ttl:     ttl,
		exports: make(map[string]cachedExport),
		stop:    make(chan struct{}),
	}

	ec.wg.Add(1)
	go func(cleanupInterval time.Duration) {
		defer ec.wg.Done()
		ec.cleanupLoop(cleanupInterval)
	}(cleanupInterval)

	return ec
}

// cleanupLoop Delete expired exports
func (ec *ExportCache) cleanupLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ec.stop:
			return
		case <-t.C:
			ec.mu.Lock()
			for projectID, cu := range ec.exports {
				if cu.expireAtTimestamp <= time.Now().Unix() {
					log.Debug("Export expired: ", projectID)
					delete(ec.exports, projectID)
				}
			}
			ec.mu.Unlock()
		}
	}
}

// Stop Stop the cleanup loop
func (ec *ExportCache) Stop() {
	close(ec.stop)
	ec.wg.Wait()
}

// Update Add a project export to the cache
func (ec *ExportCache) Update(projectID string, tasks []labelstudio.ExportedTask) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	log.Debug(fmt.Sprintf("Caching export for project %s", projectID))

	ec.exports[projectID] = cachedExport{
		tasks:             tasks,
		expireAtTimestamp: time.Now().Add(ec.ttl).Unix(),
	}
}

// Read Read a project export from the cache
func (ec *ExportCache) Read(projectID string) ([]labelstudio.ExportedTask, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	cu, ok := ec.exports[projectID]
	if !ok || cu.expireAtTimestamp <= time.Now().Unix() {
		return nil, false
	}
	return cu.tasks, true
}
