// internal/services/stock_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/bricolage-backend/internal/database"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/metrics"
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

const originManual = "manual"

type StockService struct {
	db      *gorm.DB
	locker  Locker
	metrics *metrics.Metrics
	now     func() time.Time
}

type MovementRequest struct {
	RefProduto string              `json:"refProduto" validate:"required"`
	Quantidade int                 `json:"quantidade" validate:"required,gt=0"`
	Movimento  models.MovementType `json:"movimento" validate:"required,oneof=ENTRADA SAIDA"`
}

// SetQuantityRequest sets an absolute quantity. quantity is accepted in place of quantidade.
type SetQuantityRequest struct {
	Quantidade *int   `json:"quantidade" validate:"required,gte=0"`
	Quantity   *int   `json:"quantity,omitempty" validate:"-"`
	Anotacoes  string `json:"anotacoes" validate:"max=1000"`
}

func NewStockService(db *gorm.DB, locker Locker, m *metrics.Metrics) *StockService {
	return &StockService{
		db:      db,
		locker:  locker,
		metrics: m,
		now:     time.Now,
	}
}

// GetByReference never fails for a known product: a missing stock row yields the no-association snapshot.
func (s *StockService) GetByReference(ctx context.Context, ref string) (*models.StockSnapshot, error) {
	db := s.db.WithContext(ctx)
	if err := requireProduct(db, ref); err != nil {
		return nil, err
	}

	var stock models.Stock
	err := db.First(&stock, "ref_produto = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		snapshot := models.MissingStockSnapshot(ref)
		return &snapshot, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	snapshot := stock.Snapshot()
	return &snapshot, nil
}

func (s *StockService) List(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := s.db.WithContext(ctx).Order("ref_produto asc").Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return stocks, nil
}

func (s *StockService) Movements(ctx context.Context, ref string) ([]models.StockMovement, error) {
	if err := requireProduct(s.db.WithContext(ctx), ref); err != nil {
		return nil, err
	}

	var movements []models.StockMovement
	if err := s.db.WithContext(ctx).
		Where("ref_produto = ?", ref).
		Order("created_at desc").
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}

// ApplyMovement adds or removes quantity. A SAIDA larger than the current quantity is rejected and nothing changes.
func (s *StockService) ApplyMovement(ctx context.Context, actor *Actor, req *MovementRequest) (*models.Stock, error) {
	req.Movimento = models.MovementType(strings.ToUpper(strings.TrimSpace(string(req.Movimento))))
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.ValidationFailed(err)
	}

	release, err := s.locker.Lock(ctx, stockLockKey(req.RefProduto))
	if err != nil {
		return nil, err
	}
	defer release()

	var stock *models.Stock
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		stock, err = applyMovement(tx, req.RefProduto, req.Movimento, req.Quantidade, originManual, actor.name(), "", s.now())
		return err
	})
	if err != nil {
		if utils.IsKind(err, utils.KindInsufficientStock) {
			s.metrics.StockRejected()
		}
		return nil, err
	}

	s.metrics.StockMovement(string(req.Movimento))
	return stock, nil
}

// SetQuantity replaces the quantity and is recorded as an AJUSTE movement.
func (s *StockService) SetQuantity(ctx context.Context, actor *Actor, ref string, req *SetQuantityRequest) (*models.Stock, error) {
	if req.Quantidade == nil {
		req.Quantidade = req.Quantity
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.ValidationFailed(err)
	}

	release, err := s.locker.Lock(ctx, stockLockKey(ref))
	if err != nil {
		return nil, err
	}
	defer release()

	var stock *models.Stock
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		stock, err = applyMovement(tx, ref, models.MovementAjuste, *req.Quantidade, originManual, actor.name(), req.Anotacoes, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StockMovement(string(models.MovementAjuste))
	return stock, nil
}

// applyMovement must run inside a transaction while the caller holds the stock lock for ref.
func applyMovement(tx *gorm.DB, ref string, mv models.MovementType, qty int, origem, username, anotacoes string, at time.Time) (*models.Stock, error) {
	if err := requireProduct(tx, ref); err != nil {
		return nil, err
	}

	query := tx
	if database.SupportsRowLocking(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var stock models.Stock
	exists := true
	err := query.First(&stock, "ref_produto = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		exists = false
		stock = models.Stock{RefProduto: ref}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}

	previous := stock.Quantidade
	switch mv {
	case models.MovementEntrada:
		stock.Quantidade += qty
	case models.MovementSaida:
		if qty > stock.Quantidade {
			return nil, utils.ErrInsufficientStock(ref, stock.Quantidade, qty)
		}
		stock.Quantidade -= qty
	case models.MovementAjuste:
		stock.Quantidade = qty
	default:
		return nil, utils.ErrValidation(i18n.KeyStockInvalidMovement)
	}

	stock.Data = at.UTC()
	if anotacoes != "" {
		stock.Anotacoes = anotacoes
	}

	if exists {
		err = tx.Save(&stock).Error
	} else {
		err = tx.Create(&stock).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save stock: %w", err)
	}

	movement := &models.StockMovement{
		RefProduto:         ref,
		Movimento:          mv,
		Quantidade:         qty,
		QuantidadeAnterior: previous,
		QuantidadeNova:     stock.Quantidade,
		Origem:             origem,
		Utilizador:         username,
	}
	if err := tx.Create(movement).Error; err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}

	return &stock, nil
}

// removeStock deletes the stock row and its movement log for ref.
func removeStock(tx *gorm.DB, ref string) error {
	if err := tx.Where("ref_produto = ?", ref).Delete(&models.StockMovement{}).Error; err != nil {
		return fmt.Errorf("failed to delete stock movements: %w", err)
	}
	if err := tx.Where("ref_produto = ?", ref).Delete(&models.Stock{}).Error; err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	return nil
}

func requireProduct(db *gorm.DB, ref string) error {
	var count int64
	if err := db.Model(&models.Product{}).Where("referencia = ?", ref).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return utils.ErrNotFound(i18n.KeyProductNotFound)
	}
	return nil
}
