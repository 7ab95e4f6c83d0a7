// internal/models/product.go
package models

import (
	"time"
)

// Product is keyed by its business reference.
type Product struct {
	Referencia string    `json:"referencia" gorm:"primaryKey;size:50"`
	Nome       string    `json:"nome" gorm:"size:200;not null;index"`
	Descricao  string    `json:"descricao" gorm:"type:text"`
	Preco      float64   `json:"preco" gorm:"not null;index"`
	Categoria  string    `json:"categoria" gorm:"size:100;index"`
	Imagem     string    `json:"imagem,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProductView is a product composed with its stock snapshot.
type ProductView struct {
	Product
	Stock StockSnapshot `json:"stock"`
}

func ComposeProduct(p Product, stock *Stock) ProductView {
	if stock == nil {
		return ProductView{Product: p, Stock: MissingStockSnapshot(p.Referencia)}
	}
	return ProductView{Product: p, Stock: stock.Snapshot()}
}
