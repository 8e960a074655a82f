package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "ADMIN"
	RoleVendedor = "VENDEDOR"
	RoleCliente  = "CLIENTE"
)

// JSON tags keep the Spanish field names the existing web client was built
// against; Go identifiers and column names are English.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"nombre"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"rol"`
	AddressRegion *string   `json:"direccionRegion,omitempty"`
	AddressComuna *string   `json:"direccionComuna,omitempty"`
	AddressCalle  *string   `json:"direccionCalle,omitempty"`
	AddressDepto  *string   `json:"direccionDepto,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion,omitempty"`
	Price       decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	OnSale      bool            `json:"onSale"`
	// Discount is a fraction in [0, 1], applied client-side when OnSale is set.
	Discount   float64   `json:"discountPercentage"`
	CategoryID *int64    `json:"categoriaId,omitempty"`
	Category   *Category `json:"categoria,omitempty"`
	ImageURL   string    `json:"urlImagen,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Receipt is an order header (boleta). Created exactly once per successful
// checkout and never mutated afterwards. UserEmail is a denormalized copy,
// not a foreign key, so the receipt survives account deletion; Address is the
// shipping address snapshot captured at purchase time.
type Receipt struct {
	ID        int64           `json:"id"`
	Number    string          `json:"numero"`
	UserEmail string          `json:"usuarioEmail"`
	Total     decimal.Decimal `json:"total"`
	Address   string          `json:"direccion"`
	Date      time.Time       `json:"fecha"`
	Lines     []ReceiptLine   `json:"detalles,omitempty"`
}

// ReceiptLine snapshots quantity and unit price at purchase time, independent
// of later catalog price changes.
type ReceiptLine struct {
	ID        int64           `json:"id"`
	ReceiptID int64           `json:"-"`
	ProductID int64           `json:"productoId"`
	Product   *Product        `json:"producto,omitempty"`
	Quantity  int             `json:"cantidad"`
	UnitPrice decimal.Decimal `json:"precioUnitario"`
	CreatedAt time.Time       `json:"created_at"`
}
