package ledger

// Entries returns a copy of the recorded mtimes.
func (c *Cache) Entries() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]float64, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
