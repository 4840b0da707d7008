package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/life-rpg/internal/types"
)

// DataLoader handles loading game data from files
type DataLoader struct {
	basePath string
}

// NewDataLoader creates a new data loader
func NewDataLoader(basePath string) *DataLoader {
	return &DataLoader{
		basePath: basePath,
	}
}

// LoadActivities reads activities.json from the data directory. A missing
// file yields the built-in catalog.
func (dl *DataLoader) LoadActivities() (*Catalog, error) {
	path := filepath.Join(dl.basePath, "activities.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read activities file: %w", err)
	}

	var activities []types.ActivityType
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("failed to parse activities data: %w", err)
	}

	catalog, err := NewCatalog(activities...)
	if err != nil {
		return nil, fmt.Errorf("invalid activities data: %w", err)
	}
	return catalog, nil
}

// DiceRoller is the random source for quest selection. It is safe for
// concurrent use.
type DiceRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDiceRoller creates a dice roller seeded from crypto/rand
func NewDiceRoller() *DiceRoller {
	return NewSeededDiceRoller(newSeed())
}

// NewSeededDiceRoller creates a dice roller with a fixed seed
func NewSeededDiceRoller(seed int64) *DiceRoller {
	return &DiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Roll rolls a dice with the specified number of sides
func (dr *DiceRoller) Roll(sides int) int {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.rng.Intn(sides) + 1
}

// Pick returns k distinct indexes in [0, n), chosen without replacement.
func (dr *DiceRoller) Pick(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.rng.Perm(n)[:k]
}

// Clock abstracts wall-clock reads
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
