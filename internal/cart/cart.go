package cart

// Item is a product selected for purchase. Prices are in major currency
// units (euros); the conversion to payment-provider minor units happens
// at checkout, not here.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Reference string  `json:"reference,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Cart holds the items of one shopping session in insertion order.
// Totals are always derived from the current entries, never cached.
type Cart struct {
	entries []Item
}

// Add inserts the item with quantity 1, or increments the quantity if an
// entry with the same ID already exists. The Quantity field of the argument
// is ignored.
func (c *Cart) Add(item Item) {
	for i := range c.entries {
		if c.entries[i].ID == item.ID {
			c.entries[i].Quantity++
			return
		}
	}
	item.Quantity = 1
	c.entries = append(c.entries, item)
}

// Remove deletes the entry with the given ID. Removing an absent ID is a
// no-op, not an error.
func (c *Cart) Remove(id string) {
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the quantity of the entry with the given ID.
// A quantity of zero or less removes the entry entirely.
func (c *Cart) SetQuantity(id string, quantity int) {
	if quantity <= 0 {
		c.Remove(id)
		return
	}
	for i := range c.entries {
		if c.entries[i].ID == id {
			c.entries[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the cart. Called after the confirmation page loads.
func (c *Cart) Clear() {
	c.entries = nil
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []Item {
	items := make([]Item, len(c.entries))
	copy(items, c.entries)
	return items
}

// Total returns the sum of unit price times quantity over all entries.
func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.entries {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Count returns the sum of quantities over all entries.
func (c *Cart) Count() int {
	var count int
	for _, it := range c.entries {
		count += it.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}
