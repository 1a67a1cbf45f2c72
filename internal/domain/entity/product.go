package entity

// Product porción del catálogo que necesita el motor de stock (solo lectura).
type Product struct {
	ID   string
	SKU  string
	Name string
}
