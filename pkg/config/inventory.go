package config

import (
	"fmt"
	"strings"
)

// InventoryConfig selects the stock decrement strategy for purchases.
// When Atomic is false the service performs the legacy two-step
// read-then-write decrement; when true it uses a single conditional
// UPDATE against the store.
type InventoryConfig struct {
	Atomic bool `koanf:"atomic"`
}

// String returns a string representation of the inventory configuration.
func (c *InventoryConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Inventory ---\n")
	b.WriteString(fmt.Sprintf("  atomic: %t\n", c.Atomic))
	return b.String()
}

func (c *InventoryConfig) Validate() error {
	return nil
}
