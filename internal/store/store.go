package store

import (
	"math/rand"
	"sort"
	"time"
)

// entry pairs a Value with its optional absolute expiration deadline.
type entry struct {
	value    Value
	deadline time.Time // zero means "never expires"
}

func (e entry) hasDeadline() bool {
	return !e.deadline.IsZero()
}

func (e entry) expired(now time.Time) bool {
	return e.hasDeadline() && now.After(e.deadline)
}

// Store is the keyed map from spec.md §3/§4.2. It is owned exclusively by
// the delegator's store worker (spec.md §5): none of its methods take a
// lock, because by construction only one goroutine ever calls them.
type Store struct {
	entries map[string]entry
	now     func() time.Time
}

func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Insert replaces any existing entry and clears its TTL.
func (s *Store) Insert(key string, value Value) {
	s.entries[key] = entry{value: value}
}

// Get resolves lazy expiration before returning the live value, if any.
func (s *Store) Get(key string) (Value, bool) {
	e, ok := s.lookup(key)
	if !ok {
		return Value{}, false
	}
	return e.value, true
}

// Remove deletes key unconditionally and returns the value it held.
func (s *Store) Remove(key string) (Value, bool) {
	e, ok := s.lookup(key)
	if !ok {
		return Value{}, false
	}
	delete(s.entries, key)
	return e.value, true
}

// Exists reports whether key is live (resolving lazy expiration).
func (s *Store) Exists(key string) bool {
	_, ok := s.lookup(key)
	return ok
}

// SetTTL sets an absolute deadline = now + seconds. Returns false if the
// key is missing.
func (s *Store) SetTTL(key string, seconds int64) bool {
	e, ok := s.lookup(key)
	if !ok {
		return false
	}
	e.deadline = s.now().Add(time.Duration(seconds) * time.Second)
	s.entries[key] = e
	return true
}

// TTL reports the seconds remaining until expiration: -1 if the key has
// no deadline, -2 if the key does not exist.
func (s *Store) TTL(key string) int64 {
	e, ok := s.lookup(key)
	if !ok {
		return -2
	}
	if !e.hasDeadline() {
		return -1
	}
	remaining := e.deadline.Sub(s.now())
	if remaining <= 0 {
		return -2
	}
	secs := int64(remaining.Seconds())
	if secs <= 0 {
		secs = 1
	}
	return secs
}

// Persist clears any deadline on key. Returns false if the key is missing.
func (s *Store) Persist(key string) bool {
	e, ok := s.lookup(key)
	if !ok {
		return false
	}
	if !e.hasDeadline() {
		return true
	}
	e.deadline = time.Time{}
	s.entries[key] = e
	return true
}

// Touch resolves expiration for key. It returns true if the touch
// observed and removed an expired entry (used by the CLEAN scanner).
func (s *Store) Touch(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return true
	}
	return false
}

// RandomKey returns a uniform sample over all entries, or false if the
// store has none. Expired-but-not-yet-touched keys are eligible for
// sampling.
func (s *Store) RandomKey() (string, bool) {
	n := len(s.entries)
	if n == 0 {
		return "", false
	}
	skip := rand.Intn(n)
	i := 0
	for k := range s.entries {
		if i == skip {
			return k, true
		}
		i++
	}
	return "", false
}

// Keys returns live keys matching a glob pattern (`*`, `?`, `[set]`),
// traversing a consistent snapshot: expired entries encountered during
// the scan are lazily removed but never reported.
func (s *Store) Keys(pattern string) []string {
	now := s.now()
	var out []string
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			continue
		}
		if MatchGlob(pattern, k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// TypeOf reports the live kind stored at key, or KindNone if absent.
func (s *Store) TypeOf(key string) Kind {
	e, ok := s.lookup(key)
	if !ok {
		return KindNone
	}
	return e.value.Kind
}

// Rename moves the value (and TTL) from src to dst, overwriting dst.
// Returns false if src does not exist.
func (s *Store) Rename(src, dst string) bool {
	e, ok := s.lookup(src)
	if !ok {
		return false
	}
	delete(s.entries, src)
	s.entries[dst] = e
	return true
}

// Copy duplicates src's value (and TTL) into dst. Returns
// (false, true) if dst exists and replace is false ("refuses to
// overwrite"); returns (false, false) if src does not exist.
func (s *Store) Copy(src, dst string, replace bool) (copied bool, dstExists bool) {
	e, ok := s.lookup(src)
	if !ok {
		return false, false
	}
	if _, exists := s.lookup(dst); exists && !replace {
		return false, true
	}
	s.entries[dst] = entry{value: e.value.Clone(), deadline: e.deadline}
	return true, false
}

// Len reports the number of entries, including expired entries that lazy
// expiration has not removed yet (used by CLEAN's empty-store check and
// by INFO).
func (s *Store) Len() int {
	return len(s.entries)
}

// Clean samples n distinct keys uniformly (every key when the store holds
// n or fewer), touching each; if expirations exceed 25% of n the scan
// repeats, otherwise it returns the cumulative count (spec.md §4.2).
func (s *Store) Clean(n int) int {
	total := 0
	for {
		keys := make([]string, 0, len(s.entries))
		for k := range s.entries {
			keys = append(keys, k)
		}
		rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		if len(keys) > n {
			keys = keys[:n]
		}
		expired := 0
		for _, key := range keys {
			if s.Touch(key) {
				expired++
			}
		}
		total += expired
		if expired*4 <= n {
			return total
		}
	}
}

// lookup resolves lazy expiration: an expired entry is removed and
// reported absent.
func (s *Store) lookup(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return entry{}, false
	}
	return e, true
}

// MatchGlob implements the `*`, `?`, `[set]` pattern language over a
// literal string, without touching the filesystem (path/filepath.Match
// treats '/' specially and errors on malformed patterns in ways unsuited
// to key matching, so this is a small standalone implementation). Exported
// for reuse by anything else matching names against the same pattern
// language, such as PUBSUB CHANNELS.
func MatchGlob(pattern, s string) bool {
	return matchGlobAt(pattern, s, 0, 0)
}

func matchGlobAt(pattern, s string, pi, si int) bool {
	for pi < len(pattern) {
		switch pattern[pi] {
		case '*':
			for pi < len(pattern) && pattern[pi] == '*' {
				pi++
			}
			if pi == len(pattern) {
				return true
			}
			for i := si; i <= len(s); i++ {
				if matchGlobAt(pattern, s, pi, i) {
					return true
				}
			}
			return false
		case '?':
			if si >= len(s) {
				return false
			}
			pi++
			si++
		case '[':
			if si >= len(s) {
				return false
			}
			end := pi + 1
			negate := end < len(pattern) && (pattern[end] == '^' || pattern[end] == '!')
			if negate {
				end++
			}
			start := end
			for end < len(pattern) && pattern[end] != ']' {
				end++
			}
			if end >= len(pattern) {
				// Unterminated class: treat '[' literally.
				if s[si] != '[' {
					return false
				}
				pi++
				si++
				continue
			}
			matched := classMatches(pattern[start:end], s[si])
			if negate {
				matched = !matched
			}
			if !matched {
				return false
			}
			pi = end + 1
			si++
		default:
			if si >= len(s) || s[si] != pattern[pi] {
				return false
			}
			pi++
			si++
		}
	}
	return si == len(s)
}

func classMatches(class string, c byte) bool {
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if class[i] <= c && c <= class[i+2] {
				return true
			}
			i += 2
			continue
		}
		if class[i] == c {
			return true
		}
	}
	return false
}
