package domain

import (
	"errors"
	"slices"
	"strings"
)

var ErrInvalidQuantity = errors.New("quantity must be between 1 and 10000")

// MaxQuantity caps a single entry so quantities and subtotals cannot overflow.
const MaxQuantity = 10000

// Entry is one product line in a cart. Quantity is always > 0 while the entry exists.
type Entry struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note"`
}

// Cart is the session-scoped basket. Entries is keyed by product id; Sequence keeps
// insertion order for display and for the order snapshot.
type Cart struct {
	Entries  map[int64]Entry `json:"entries"`
	Sequence []int64         `json:"sequence"`
	Note     string          `json:"note"`
}

func New() *Cart {
	return &Cart{Entries: map[int64]Entry{}}
}

func (c *Cart) ensure() {
	if c.Entries == nil {
		c.Entries = map[int64]Entry{}
	}
}

// Add inserts productID with quantity or increments an existing entry.
func (c *Cart) Add(productID int64, quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	c.ensure()
	e, ok := c.Entries[productID]
	if e.Quantity+quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if !ok {
		e = Entry{ProductID: productID}
		c.Sequence = append(c.Sequence, productID)
	}
	e.Quantity += quantity
	c.Entries[productID] = e
	return nil
}

// SetQuantity overwrites the quantity of an existing entry. Zero or less removes it,
// anything above MaxQuantity is clamped. Absent entries stay absent.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	e, ok := c.Entries[productID]
	if !ok {
		return
	}
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	e.Quantity = min(quantity, MaxQuantity)
	c.Entries[productID] = e
}

func (c *Cart) Remove(productID int64) {
	if _, ok := c.Entries[productID]; !ok {
		return
	}
	delete(c.Entries, productID)
	kept := c.Sequence[:0]
	for _, id := range c.Sequence {
		if id != productID {
			kept = append(kept, id)
		}
	}
	c.Sequence = kept
}

// Annotate sets the note of an existing entry and reports whether one was found.
func (c *Cart) Annotate(productID int64, note string) bool {
	e, ok := c.Entries[productID]
	if !ok {
		return false
	}
	e.Note = strings.TrimSpace(note)
	c.Entries[productID] = e
	return true
}

func (c *Cart) SetNote(note string) {
	c.Note = strings.TrimSpace(note)
}

func (c *Cart) Get(productID int64) (Entry, bool) {
	e, ok := c.Entries[productID]
	return e, ok
}

// Lines returns every entry exactly once, in the order first added. Entries missing
// from Sequence (a hand-built or truncated payload) follow in product id order.
func (c *Cart) Lines() []Entry {
	lines := make([]Entry, 0, len(c.Entries))
	seen := make(map[int64]bool, len(c.Entries))
	for _, id := range c.Sequence {
		if e, ok := c.Entries[id]; ok && !seen[id] {
			seen[id] = true
			lines = append(lines, withID(id, e))
		}
	}
	if len(lines) == len(c.Entries) {
		return lines
	}
	rest := make([]int64, 0, len(c.Entries)-len(lines))
	for id := range c.Entries {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	for _, id := range rest {
		lines = append(lines, withID(id, c.Entries[id]))
	}
	return lines
}

// Normalize repairs a decoded cart: entries with an out-of-range quantity are
// dropped and Sequence is rebuilt from Entries without duplicates or stale ids.
func (c *Cart) Normalize() {
	c.ensure()
	for id, e := range c.Entries {
		if e.Quantity <= 0 || e.Quantity > MaxQuantity {
			delete(c.Entries, id)
		}
	}
	lines := c.Lines()
	c.Sequence = make([]int64, 0, len(lines))
	for _, e := range lines {
		c.Sequence = append(c.Sequence, e.ProductID)
	}
}

// withID trusts the map key over the stored ProductID.
func withID(id int64, e Entry) Entry {
	e.ProductID = id
	return e
}

func (c *Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

// ItemCount is the number of units across all entries.
func (c *Cart) ItemCount() int {
	n := 0
	for _, e := range c.Entries {
		n += e.Quantity
	}
	return n
}

// PriceLookup returns the current unit price of a product, or false if it no longer exists.
type PriceLookup func(productID int64) (int64, bool)

// TotalPrice sums live prices. Products that have disappeared contribute nothing.
func (c *Cart) TotalPrice(lookup PriceLookup) int64 {
	var total int64
	for _, e := range c.Entries {
		if price, ok := lookup(e.ProductID); ok {
			total += price * int64(e.Quantity)
		}
	}
	return total
}

// Clear empties the cart and drops the overall note.
func (c *Cart) Clear() {
	c.Entries = map[int64]Entry{}
	c.Sequence = nil
	c.Note = ""
}
