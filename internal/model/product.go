package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable article. Stock lives in its own row (one per product)
// and only ever changes through recorded movements.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string          `gorm:"type:varchar(50);uniqueIndex" json:"sku"`
	Name        string          `gorm:"type:varchar(200);not null;index" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	PhotoURL    string          `gorm:"type:varchar(500)" json:"photo_url,omitempty"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Stock       *Stock          `gorm:"foreignKey:ProductID" json:"stock,omitempty"`

	AuditFields
	SoftDelete
}

// CurrentStock returns the on-hand quantity, zero when no stock row exists yet.
func (p *Product) CurrentStock() int {
	if p.Stock == nil {
		return 0
	}
	return p.Stock.Quantity
}

// PriceHistory is an insert-only record of a product price change. Rows are
// never updated or deleted.
type PriceHistory struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	OldPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"old_price"`
	NewPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"new_price"`
	Reason    string          `gorm:"type:varchar(255)" json:"reason,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	CreatedBy uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
}
