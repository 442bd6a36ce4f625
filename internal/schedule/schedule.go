package schedule

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// #region block

// Block is one configured time window: a daily "HH:MM" range bound to a
// content category and a required engagement threshold. Read-only after
// load.
type Block struct {
	Name      string  `yaml:"name"`
	StartTime string  `yaml:"start"` // "HH:MM"
	EndTime   string  `yaml:"end"`   // "HH:MM"
	Category  string  `yaml:"category"`
	Threshold float64 `yaml:"threshold"` // required mean engagement in [0,1]

	startMin int // minutes since midnight, derived at load
	endMin   int
}

// Contains reports whether the daily time range covers t.
// Start is inclusive, end exclusive, so adjacent blocks never overlap.
func (b Block) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= b.startMin && m < b.endMin
}

// #endregion block

// #region file-format

type scheduleFile struct {
	Blocks []Block `yaml:"blocks"`
}

// #endregion file-format

// #region store

// Store holds the loaded schedule. Reload swaps the block list
// atomically; lookups may run concurrently with a reload.
type Store struct {
	mu     sync.RWMutex
	blocks []Block
}

// Load reads and validates a YAML schedule file. Any malformed block is
// a configuration error: the caller must refuse to start rather than
// run with ambiguous gating rules.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	blocks, err := parse(data)
	if err != nil {
		return nil, err
	}
	return &Store{blocks: blocks}, nil
}

// NewStore builds a store from already-parsed blocks. Used by tests and
// the replay tooling.
func NewStore(blocks []Block) (*Store, error) {
	validated, err := validate(blocks)
	if err != nil {
		return nil, err
	}
	return &Store{blocks: validated}, nil
}

// Reload re-reads the schedule file and swaps the block list in place.
// On error the previous schedule stays active.
func (s *Store) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schedule: %w", err)
	}
	blocks, err := parse(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.blocks = blocks
	s.mu.Unlock()
	return nil
}

// #endregion store

// #region lookup

// ActiveBlock returns the block whose range contains now, if any.
func (s *Store) ActiveBlock(now time.Time) (Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.blocks {
		if b.Contains(now) {
			return b, true
		}
	}
	return Block{}, false
}

// NextBlock returns the next block starting after now today, if any.
func (s *Store) NextBlock(now time.Time) (Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := now.Hour()*60 + now.Minute()
	best := Block{}
	found := false
	for _, b := range s.blocks {
		if b.startMin > m && (!found || b.startMin < best.startMin) {
			best = b
			found = true
		}
	}
	return best, found
}

// Categories returns the sorted set of categories across all blocks.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.blocks))
	var out []string
	for _, b := range s.blocks {
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		out = append(out, b.Category)
	}
	sort.Strings(out)
	return out
}

// Blocks returns a copy of the block list.
func (s *Store) Blocks() []Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// #endregion lookup

// #region validation

func parse(data []byte) ([]Block, error) {
	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return validate(file.Blocks)
}

// validate derives minute offsets and rejects ambiguous configuration.
func validate(blocks []Block) ([]Block, error) {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		if b.Name == "" {
			return nil, fmt.Errorf("block %d: name is required", i)
		}
		start, err := parseHHMM(b.StartTime)
		if err != nil {
			return nil, fmt.Errorf("block %q start: %w", b.Name, err)
		}
		end, err := parseHHMM(b.EndTime)
		if err != nil {
			return nil, fmt.Errorf("block %q end: %w", b.Name, err)
		}
		if end <= start {
			return nil, fmt.Errorf("block %q: end %s not after start %s", b.Name, b.EndTime, b.StartTime)
		}
		if b.Category == "" {
			return nil, fmt.Errorf("block %q: category is required", b.Name)
		}
		if b.Threshold < 0 || b.Threshold > 1 {
			return nil, fmt.Errorf("block %q: threshold %.2f outside [0,1]", b.Name, b.Threshold)
		}
		b.startMin = start
		b.endMin = end
		out[i] = b
	}

	// Overlapping ranges would make "which block is active" ambiguous.
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[i].startMin < out[j].endMin && out[j].startMin < out[i].endMin {
				return nil, fmt.Errorf("blocks %q and %q overlap", out[i].Name, out[j].Name)
			}
		}
	}
	return out, nil
}

// parseHHMM converts "HH:MM" to minutes since midnight.
func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// #endregion validation
