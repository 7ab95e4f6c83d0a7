// internal/models/stock.go
package models

import (
	"time"
)

// StockNoAssociation annotates products that have no stock row yet.
const StockNoAssociation = "Não foi possível encontrar nenhuma associação do produto a pelo menos um stock!"

type Stock struct {
	RefProduto string    `json:"refProduto" gorm:"primaryKey;size:50"`
	Quantidade int       `json:"quantidade" gorm:"not null"`
	Data       time.Time `json:"data"`
	Anotacoes  string    `json:"anotacoes" gorm:"type:text"`
	UpdatedAt  time.Time `json:"-"`
}

type StockSnapshot struct {
	RefProduto string     `json:"refProduto"`
	Quantidade int        `json:"quantidade"`
	Data       *time.Time `json:"data,omitempty"`
	Anotacoes  string     `json:"anotacoes"`
	Associado  bool       `json:"associado"`
}

func (s *Stock) Snapshot() StockSnapshot {
	data := s.Data
	return StockSnapshot{
		RefProduto: s.RefProduto,
		Quantidade: s.Quantidade,
		Data:       &data,
		Anotacoes:  s.Anotacoes,
		Associado:  true,
	}
}

func MissingStockSnapshot(ref string) StockSnapshot {
	return StockSnapshot{
		RefProduto: ref,
		Quantidade: 0,
		Anotacoes:  StockNoAssociation,
		Associado:  false,
	}
}

// StockMovement is the append-only record of accepted movements.
type StockMovement struct {
	BaseModel
	RefProduto         string       `json:"refProduto" gorm:"size:50;index;not null"`
	Movimento          MovementType `json:"movimento" gorm:"size:10;not null"`
	Quantidade         int          `json:"quantidade" gorm:"not null"`
	QuantidadeAnterior int          `json:"quantidadeAnterior"`
	QuantidadeNova     int          `json:"quantidadeNova"`
	Origem             string       `json:"origem" gorm:"size:50"`
	Utilizador         string       `json:"utilizador" gorm:"size:50"`
}
