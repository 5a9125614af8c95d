// Package carrito holds the customer's pre-checkout selections. A cart is
// plain session state: it is loaded from a Store, mutated and saved back, and
// passed explicitly into checkout as a Snapshot.
package carrito

import (
	"sort"
	"strconv"
	"strings"

	"heladeria/internal/model"

	"github.com/shopspring/decimal"
)

// Linea is one product selection. Prices and names are snapshots taken when
// the line was added.
type Linea struct {
	Key            string   `json:"key"`
	ProductoID     uint     `json:"producto_id"`
	ProductoNombre string   `json:"producto_nombre"`
	Precio         string   `json:"precio"`
	SaboresIDs     []uint   `json:"sabores_ids"`
	SaboresNombres []string `json:"sabores_nombres"`
	SaboresMaximos int      `json:"sabores_maximos"`
}

// Carrito maps a composite selection key to its line. Orden keeps first
// insertion order of the keys.
type Carrito struct {
	Orden  []string         `json:"orden"`
	Lineas map[string]Linea `json:"lineas"`
}

func New() *Carrito {
	return &Carrito{Lineas: map[string]Linea{}}
}

// Key builds "{producto_id}_{sorted flavor ids joined by _}". A product
// without flavors yields "{producto_id}_".
func Key(productoID uint, saboresIDs []uint) string {
	ids := normalizar(saboresIDs)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strconv.FormatUint(uint64(productoID), 10) + "_" + strings.Join(parts, "_")
}

// AddSelection inserts or overwrites the line for the exact selection key.
// Selecting the same product with the same flavors twice replaces the line
// in place; it never accumulates a quantity. Flavors are ignored for
// products that take none.
func (c *Carrito) AddSelection(p model.Producto, sabores []model.Sabor) Linea {
	if c.Lineas == nil {
		c.Lineas = map[string]Linea{}
	}
	if p.SaboresMaximos == 0 {
		sabores = nil
	}
	sabores = append([]model.Sabor(nil), sabores...)

	sort.Slice(sabores, func(i, j int) bool { return sabores[i].ID < sabores[j].ID })
	ids := make([]uint, 0, len(sabores))
	nombres := make([]string, 0, len(sabores))
	for i, s := range sabores {
		if i > 0 && s.ID == sabores[i-1].ID {
			continue
		}
		ids = append(ids, s.ID)
		nombres = append(nombres, s.Nombre)
	}

	key := Key(p.ID, ids)
	linea := Linea{
		Key:            key,
		ProductoID:     p.ID,
		ProductoNombre: p.Nombre,
		Precio:         p.Precio.StringFixed(2),
		SaboresIDs:     ids,
		SaboresNombres: nombres,
		SaboresMaximos: p.SaboresMaximos,
	}
	if _, ok := c.Lineas[key]; !ok {
		c.Orden = append(c.Orden, key)
	}
	c.Lineas[key] = linea
	return linea
}

// Remove drops a line; unknown keys are a no-op. Reports whether a line was removed.
func (c *Carrito) Remove(key string) bool {
	if _, ok := c.Lineas[key]; !ok {
		return false
	}
	delete(c.Lineas, key)
	for i, k := range c.Orden {
		if k == key {
			c.Orden = append(c.Orden[:i], c.Orden[i+1:]...)
			break
		}
	}
	return true
}

// Snapshot lists the lines in insertion order without clearing the cart.
func (c *Carrito) Snapshot() []Linea {
	out := make([]Linea, 0, len(c.Orden))
	for _, k := range c.Orden {
		if l, ok := c.Lineas[k]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (c *Carrito) Clear() {
	c.Orden = nil
	c.Lineas = map[string]Linea{}
}

func (c *Carrito) Len() int { return len(c.Lineas) }

// Total sums the line price snapshots. Unparseable prices count as zero.
func (c *Carrito) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lineas {
		if p, err := decimal.NewFromString(l.Precio); err == nil {
			total = total.Add(p)
		}
	}
	return total
}

func normalizar(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
