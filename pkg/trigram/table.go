package trigram

// windowSize is the number of tokens in one observation: a pair and its successor.
const windowSize = 3

// Pair is an ordered pair of adjacent token ids packed into one comparable key.
type Pair uint64

// MakePair packs first and second into a Pair.
func MakePair(first, second TokenID) Pair {
	return Pair(uint64(first)<<32 | uint64(second))
}

// First returns the id of the earlier token.
func (p Pair) First() TokenID {
	return TokenID(p >> 32)
}

// Second returns the id of the later token.
func (p Pair) Second() TokenID {
	return TokenID(p)
}

// Next returns the pair formed by the second token of p and next.
func (p Pair) Next(next TokenID) Pair {
	return MakePair(p.Second(), next)
}

// Table accumulates, for every pair of adjacent token ids, the ids observed
// right after it. Observations keep their order and duplicates; pairs are
// remembered in first-seen order.
type Table struct {
	entries map[Pair][]TokenID
	order   []Pair
	total   int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[Pair][]TokenID)}
}

// Add records one window per position of ids. Sequences shorter than three
// ids record nothing.
func (t *Table) Add(ids []TokenID) {
	for i := 0; i+windowSize <= len(ids); i++ {
		t.Observe(MakePair(ids[i], ids[i+1]), ids[i+2])
	}
}

// Observe appends next to the entry of pair, creating the entry if needed.
func (t *Table) Observe(pair Pair, next TokenID) {
	list, ok := t.entries[pair]
	if !ok {
		t.order = append(t.order, pair)
	}
	t.entries[pair] = append(list, next)
	t.total++
}

// Successors returns the observations recorded for pair. The returned slice
// must not be modified.
func (t *Table) Successors(pair Pair) []TokenID {
	return t.entries[pair]
}

// Pairs returns the distinct pairs in first-seen order. The returned slice
// must not be modified.
func (t *Table) Pairs() []Pair {
	return t.order
}

// Len returns the number of distinct pairs.
func (t *Table) Len() int {
	return len(t.order)
}

// Observations returns the total number of recorded windows.
func (t *Table) Observations() int {
	return t.total
}

// Freeze returns an immutable copy of t. Each entry is copied into a slice
// with no spare capacity, so appends to a frozen entry can never write into
// shared memory.
func (t *Table) Freeze() *FrozenTable {
	entries := make(map[Pair][]TokenID, len(t.entries))
	for pair, list := range t.entries {
		frozen := make([]TokenID, len(list))
		copy(frozen, list)
		entries[pair] = frozen
	}
	order := make([]Pair, len(t.order))
	copy(order, t.order)
	return &FrozenTable{entries: entries, order: order, total: t.total}
}

// FrozenTable is the read-only form of a Table produced by Freeze. It is
// safe for concurrent use.
type FrozenTable struct {
	entries map[Pair][]TokenID
	order   []Pair
	total   int
}

// Successors returns the observations recorded for pair. The returned slice
// must not be modified.
func (f *FrozenTable) Successors(pair Pair) []TokenID {
	return f.entries[pair]
}

// Pairs returns the distinct pairs in first-seen order.
func (f *FrozenTable) Pairs() []Pair {
	return f.order
}

// Len returns the number of distinct pairs.
func (f *FrozenTable) Len() int {
	return len(f.order)
}

// Observations returns the total number of recorded windows.
func (f *FrozenTable) Observations() int {
	return f.total
}
