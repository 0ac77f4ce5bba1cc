package pricing

import (
	"fmt"
	"sort"
)

// Tariff — параметры тарифа: посадка плюс километраж.
type Tariff struct {
	BaseFare  float64
	PerKmRate float64
}

// Catalog is the fixed taxi-type to tariff mapping. It is built once at
// startup and read-only afterwards, so it is safe to share between
// conversations without locking.
type Catalog struct {
	tariffs map[string]Tariff
	names   []string
}

func NewCatalog(tariffs map[string]Tariff) *Catalog {
	names := make([]string, 0, len(tariffs))
	for name := range tariffs {
		names = append(names, name)
	}
	sort.Strings(names) // стабильный порядок кнопок
	return &Catalog{tariffs: tariffs, names: names}
}

// DefaultCatalog returns the production tariff table.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[string]Tariff{
		"Стандарт": {BaseFare: 300, PerKmRate: 55},
		"Эрмитаж":  {BaseFare: 400, PerKmRate: 65},
	})
}

// Lookup returns the tariff for a taxi type. An unknown name is a
// validation error for the caller, not a crash.
func (c *Catalog) Lookup(name string) (Tariff, error) {
	t, ok := c.tariffs[name]
	if !ok {
		return Tariff{}, fmt.Errorf("unknown taxi type %q", name)
	}
	return t, nil
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.tariffs[name]
	return ok
}

// Names returns the taxi-type names for building the selection keyboard.
func (c *Catalog) Names() []string {
	return c.names
}

// Cost computes the raw fare. Rounding is a presentation concern and
// happens where the amount is formatted.
func Cost(t Tariff, distanceKm float64) float64 {
	return t.BaseFare + distanceKm*t.PerKmRate
}
