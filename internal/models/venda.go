// internal/models/venda.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendaItem is a point-in-time snapshot of a product inside a venda.
type VendaItem struct {
	RefProduto string  `json:"refProduto"`
	Nome       string  `json:"nome"`
	Quantidade int     `json:"quantidade"`
	Preco      float64 `json:"preco"`
	Imagem     string  `json:"imagem,omitempty"`
}

type VendaItems []VendaItem

func (items VendaItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (items *VendaItems) Scan(value interface{}) error {
	return scanJSON(value, items)
}

type Cliente struct {
	UsernameUtilizador string `json:"usernameUtilizador" gorm:"column:cliente_username;size:50;index"`
}

type Pagamento struct {
	Referencia string `json:"referencia,omitempty" gorm:"size:100"`
	Estado     string `json:"estado,omitempty" gorm:"size:30"`
}

type Venda struct {
	NrVenda         int         `json:"nrVenda" gorm:"primaryKey;autoIncrement:false"`
	UserID          uuid.UUID   `json:"-" gorm:"type:varchar(36);index;not null"`
	Cliente         Cliente     `json:"cliente" gorm:"embedded"`
	Produtos        VendaItems  `json:"produtos" gorm:"type:text"`
	Total           float64     `json:"total"`
	Estado          VendaEstado `json:"estado" gorm:"size:20;index;not null"`
	Data            time.Time   `json:"data" gorm:"index"`
	DataFinalizacao *time.Time  `json:"dataFinalizacao,omitempty"`
	Pagamento       Pagamento   `json:"pagamento" gorm:"embedded;embeddedPrefix:pagamento_"`
	UpdatedAt       time.Time   `json:"-"`
}

func (v *Venda) IsCart() bool {
	return strings.EqualFold(string(v.Estado), string(VendaEstadoCarrinho))
}

func (v *Venda) IsFinalized() bool {
	return strings.EqualFold(string(v.Estado), string(VendaEstadoFinalizada))
}

func (v *Venda) ItemIndex(ref string) int {
	for i, item := range v.Produtos {
		if item.RefProduto == ref {
			return i
		}
	}
	return -1
}

func (v *Venda) RemoveItem(ref string) bool {
	idx := v.ItemIndex(ref)
	if idx < 0 {
		return false
	}
	v.Produtos = append(v.Produtos[:idx], v.Produtos[idx+1:]...)
	return true
}

// RecalculateTotal sets Total to the sum of price times quantity, rounded to cents.
func (v *Venda) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range v.Produtos {
		line := decimal.NewFromFloat(item.Preco).Mul(decimal.NewFromInt(int64(item.Quantidade)))
		total = total.Add(line)
	}
	v.Total = total.Round(2).InexactFloat64()
}
