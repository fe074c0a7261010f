package store

import "errors"

// ErrWrongType is returned by typed accessors when the live value is not
// the expected variant. Command handlers translate it to the WRONGTYPE
// wire error; the store itself never coerces (spec.md §3 invariants).
var ErrWrongType = errors.New("wrongtype")

// ErrNoList is returned by *X push variants (spec.md §4.2 LPUSHX/RPUSHX)
// and by SetIndex when the target key does not exist; a key holding
// another kind yields ErrWrongType instead.
var ErrNoList = errors.New("no list")

func (s *Store) typedEntry(key string, want Kind) (entry, bool, error) {
	e, ok := s.lookup(key)
	if !ok {
		return entry{}, false, nil
	}
	if e.value.Kind != want {
		return entry{}, true, ErrWrongType
	}
	return e, true, nil
}

// --- list operations -------------------------------------------------

// Push appends (right=true) or prepends (right=false) values to the list
// at key, creating it if absent and requireExisting is false. Returns the
// new length.
func (s *Store) Push(key string, right bool, requireExisting bool, values ...string) (int, error) {
	e, exists, err := s.typedEntry(key, KindList)
	if err != nil {
		return 0, err
	}
	if !exists {
		if requireExisting {
			return 0, ErrNoList
		}
		e = entry{value: Value{Kind: KindList}}
	}
	if right {
		e.value.List = append(e.value.List, values...)
	} else {
		e.value.List = append(prepend(values), e.value.List...)
	}
	s.entries[key] = e
	return len(e.value.List), nil
}

func prepend(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

// Pop removes exactly count elements from the left or right of the list
// at key, returning ErrOutOfRange if count exceeds the list length.
// Returns (nil, false, nil) if the key is absent (null bulk case).
func (s *Store) Pop(key string, right bool, count int) ([]string, bool, error) {
	e, exists, err := s.typedEntry(key, KindList)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	if count > len(e.value.List) {
		return nil, true, ErrOutOfRange
	}
	var popped []string
	if right {
		n := len(e.value.List)
		popped = reverseCopy(e.value.List[n-count:])
		e.value.List = e.value.List[:n-count]
	} else {
		popped = append([]string(nil), e.value.List[:count]...)
		e.value.List = e.value.List[count:]
	}
	if len(e.value.List) == 0 {
		delete(s.entries, key)
	} else {
		s.entries[key] = e
	}
	return popped, true, nil
}

func reverseCopy(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// ErrOutOfRange is returned by Pop when count exceeds the list length.
var ErrOutOfRange = errors.New("out of range")

// ListLen returns the list length at key, or 0 if absent.
func (s *Store) ListLen(key string) (int, error) {
	e, exists, err := s.typedEntry(key, KindList)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return len(e.value.List), nil
}

// Range returns the inclusive, zero-based, negative-indices-from-end
// slice [start,stop] of the list at key (spec.md §4.2).
func (s *Store) Range(key string, start, stop int) ([]string, error) {
	e, exists, err := s.typedEntry(key, KindList)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []string{}, nil
	}
	n := len(e.value.List)
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if stop >= n {
		stop = n - 1
	}
	if start < 0 {
		start = 0
	}
	if start > stop || start >= n {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, e.value.List[start:stop+1])
	return out, nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i = n + i
	}
	return i
}

// SetIndex overwrites the element at index (negative allowed) of the
// list at key.
func (s *Store) SetIndex(key string, index int, value string) error {
	e, exists, err := s.typedEntry(key, KindList)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoList
	}
	n := len(e.value.List)
	index = normalizeIndex(index, n)
	if index < 0 || index >= n {
		return ErrOutOfRange
	}
	e.value.List[index] = value
	return nil
}

// Index returns the element at index (negative allowed) of the list at
// key, or (_, false, nil) if out of range/absent.
func (s *Store) Index(key string, index int) (string, bool, error) {
	e, exists, err := s.typedEntry(key, KindList)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return "", false, nil
	}
	n := len(e.value.List)
	index = normalizeIndex(index, n)
	if index < 0 || index >= n {
		return "", false, nil
	}
	return e.value.List[index], true, nil
}

// Rem removes occurrences of value from the list at key. count > 0 scans
// head-to-tail removing up to count occurrences; count < 0 scans
// tail-to-head; count == 0 removes all occurrences. Returns the number
// removed.
func (s *Store) Rem(key string, count int, value string) (int, error) {
	e, exists, err := s.typedEntry(key, KindList)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	list := e.value.List
	removed := 0
	out := make([]string, 0, len(list))
	switch {
	case count >= 0:
		limit := count
		if count == 0 {
			limit = len(list)
		}
		for _, v := range list {
			if v == value && removed < limit {
				removed++
				continue
			}
			out = append(out, v)
		}
	default:
		limit := -count
		for i := len(list) - 1; i >= 0; i-- {
			if list[i] == value && removed < limit {
				removed++
				continue
			}
			out = append([]string{list[i]}, out...)
		}
	}
	if len(out) == 0 {
		delete(s.entries, key)
	} else {
		e.value.List = out
		s.entries[key] = e
	}
	return removed, nil
}

// SortedCopy returns a lexically or numerically sorted copy of the list
// at key (SORT command). numeric selects numeric comparison; on parse
// failure of any element it returns ErrNotInteger-equivalent via the
// caller's own error translation (signalled here as a bool).
func (s *Store) SortedCopy(key string, numeric, descending bool) ([]string, bool, error) {
	e, exists, err := s.typedEntry(key, KindList)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return []string{}, true, nil
	}
	out := append([]string(nil), e.value.List...)
	ok := sortStrings(out, numeric, descending)
	return out, ok, nil
}

// --- set operations ----------------------------------------------------

// SAdd adds members to the set at key, creating it if absent. Returns the
// count of members that were not already present.
func (s *Store) SAdd(key string, members ...string) (int, error) {
	e, exists, err := s.typedEntry(key, KindSet)
	if err != nil {
		return 0, err
	}
	if !exists {
		e = entry{value: Value{Kind: KindSet, Set: make(map[string]struct{})}}
	}
	added := 0
	for _, m := range members {
		if _, present := e.value.Set[m]; !present {
			e.value.Set[m] = struct{}{}
			added++
		}
	}
	s.entries[key] = e
	return added, nil
}

// SRem removes members from the set at key. Returns the count actually
// removed.
func (s *Store) SRem(key string, members ...string) (int, error) {
	e, exists, err := s.typedEntry(key, KindSet)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	removed := 0
	for _, m := range members {
		if _, present := e.value.Set[m]; present {
			delete(e.value.Set, m)
			removed++
		}
	}
	if len(e.value.Set) == 0 {
		delete(s.entries, key)
	} else {
		s.entries[key] = e
	}
	return removed, nil
}

// SMembers returns a snapshot of the set at key.
func (s *Store) SMembers(key string) ([]string, error) {
	e, exists, err := s.typedEntry(key, KindSet)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []string{}, nil
	}
	out := make([]string, 0, len(e.value.Set))
	for m := range e.value.Set {
		out = append(out, m)
	}
	return out, nil
}

// SCard returns the cardinality of the set at key.
func (s *Store) SCard(key string) (int, error) {
	e, exists, err := s.typedEntry(key, KindSet)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return len(e.value.Set), nil
}

// SIsMember reports whether member is in the set at key.
func (s *Store) SIsMember(key, member string) (bool, error) {
	e, exists, err := s.typedEntry(key, KindSet)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	_, present := e.value.Set[member]
	return present, nil
}
