// internal/services/venda_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/database"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/metrics"
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

// Values accepted by the admin venda filter.
const (
	PeriodoUltimaSemana  = "ultima-semana"
	PeriodoUltimoMes     = "ultimo-mes"
	PeriodoUltimos3Meses = "ultimos-3-meses"
	PeriodoUltimoAno     = "ultimo-ano"
	PeriodoMaisAntigo    = "mais-antigo"
	EstadoTodos          = "todos"
	OrdemPrecoAsc        = "preco-asc"
	OrdemPrecoDesc       = "preco-desc"
	vendaDateLayout      = "2006-01-02"
	vendaOriginPrefix    = "venda:"
	paymentCancelTimeout = 10 * time.Second
)

type VendaService struct {
	db       *gorm.DB
	locker   Locker
	payments PaymentGateway
	currency string
	metrics  *metrics.Metrics
	now      func() time.Time
}

// CartItemRequest is one cart line. refProduto is accepted in place of referencia.
type CartItemRequest struct {
	Referencia string `json:"referencia" validate:"required"`
	RefProduto string `json:"refProduto,omitempty" validate:"-"`
	Quantity   int    `json:"quantity" validate:"gte=1"`
}

func normalizeItems(items []CartItemRequest) []CartItemRequest {
	out := make([]CartItemRequest, len(items))
	for i, item := range items {
		if item.Referencia == "" {
			item.Referencia = item.RefProduto
		}
		out[i] = item
	}
	return out
}

type cartItems struct {
	Items []CartItemRequest `validate:"required,min=1,dive"`
}

type VendaFilter struct {
	NrVenda  string `form:"nrVenda"`
	Produto  string `form:"produto"`
	Username string `form:"username"`
	Data     string `form:"data"`
	Periodo  string `form:"periodo"`
	Estado   string `form:"estado"`
	Ordem    string `form:"ordem"`
}

// NewVendaService accepts a nil PaymentGateway, checkout then skips the charge.
func NewVendaService(db *gorm.DB, locker Locker, payments PaymentGateway, currency string, m *metrics.Metrics) *VendaService {
	return &VendaService{
		db:       db,
		locker:   locker,
		payments: payments,
		currency: currency,
		metrics:  m,
		now:      time.Now,
	}
}

// AddItems merges quantities into the open cart, creating it when the user has none.
func (s *VendaService) AddItems(ctx context.Context, actor *Actor, items []CartItemRequest) (*models.Venda, error) {
	return s.addItems(ctx, actor, items, true)
}

// MergeItems adds quantities to the lines of the existing open cart.
// Unknown references are appended; without an open cart it fails with NotFound.
func (s *VendaService) MergeItems(ctx context.Context, actor *Actor, items []CartItemRequest) (*models.Venda, error) {
	return s.addItems(ctx, actor, items, false)
}

func (s *VendaService) addItems(ctx context.Context, actor *Actor, items []CartItemRequest, create bool) (*models.Venda, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	items = normalizeItems(items)
	if err := utils.ValidateStruct(&cartItems{Items: items}); err != nil {
		return nil, utils.ValidationFailed(err)
	}

	release, err := s.locker.Lock(ctx, cartLockKey(actor.UserID))
	if err != nil {
		return nil, err
	}
	defer release()

	cart, err := s.findOpenCart(s.db.WithContext(ctx), actor)
	if err != nil && (!create || !utils.IsKind(err, utils.KindNotFound)) {
		return nil, err
	}

	if cart == nil {
		releaseSeq, err := s.locker.Lock(ctx, vendaSeqLockKey)
		if err != nil {
			return nil, err
		}
		defer releaseSeq()
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		user, err := loadUser(tx, actor)
		if err != nil {
			return err
		}

		creating := cart == nil
		if creating {
			nr, err := nextNrVenda(tx)
			if err != nil {
				return err
			}
			cart = &models.Venda{
				NrVenda:  nr,
				UserID:   user.ID,
				Produtos: models.VendaItems{},
				Estado:   models.VendaEstadoCarrinho,
				Data:     s.now().UTC(),
			}
		}
		cart.Cliente.UsernameUtilizador = user.Username

		for _, item := range items {
			if idx := cart.ItemIndex(item.Referencia); idx >= 0 {
				if err := requireProduct(tx, item.Referencia); err != nil {
					return err
				}
				cart.Produtos[idx].Quantidade += item.Quantity
				continue
			}

			product, err := findProduct(tx, item.Referencia)
			if err != nil {
				return err
			}
			cart.Produtos = append(cart.Produtos, lineFromProduct(product, item.Quantity))
		}

		cart.RecalculateTotal()
		if creating {
			return tx.Create(cart).Error
		}
		return tx.Save(cart).Error
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// SetItemQuantity changes one existing line. Zero removes it, a negative quantity is rejected.
func (s *VendaService) SetItemQuantity(ctx context.Context, actor *Actor, ref string, quantity int) (*models.Venda, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, utils.ErrValidation(i18n.KeyCartInvalidQuantity)
	}

	return s.mutateCart(ctx, actor, func(tx *gorm.DB, cart *models.Venda) error {
		idx := cart.ItemIndex(ref)
		if idx < 0 {
			return utils.ErrNotFound(i18n.KeyCartItemNotFound, ref)
		}
		if quantity == 0 {
			cart.RemoveItem(ref)
			return nil
		}
		cart.Produtos[idx].Quantidade = quantity
		return nil
	})
}

func (s *VendaService) mutateCart(ctx context.Context, actor *Actor, mutate func(tx *gorm.DB, cart *models.Venda) error) (*models.Venda, error) {
	release, err := s.locker.Lock(ctx, cartLockKey(actor.UserID))
	if err != nil {
		return nil, err
	}
	defer release()

	var cart *models.Venda
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		cart, err = s.findOpenCart(tx, actor)
		if err != nil {
			return err
		}
		if err := mutate(tx, cart); err != nil {
			return err
		}
		cart.RecalculateTotal()
		return tx.Save(cart).Error
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *VendaService) GetCart(ctx context.Context, actor *Actor) (*models.Venda, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.findOpenCart(s.db.WithContext(ctx), actor)
}

func (s *VendaService) ClearCart(ctx context.Context, actor *Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	release, err := s.locker.Lock(ctx, cartLockKey(actor.UserID))
	if err != nil {
		return err
	}
	defer release()

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND estado = ?", actor.UserID, models.VendaEstadoCarrinho).
		Delete(&models.Venda{})
	if result.Error != nil {
		return fmt.Errorf("failed to clear cart: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrNotFound(i18n.KeyCartNotFound)
	}
	return nil
}

// Finalize checks the cart out: every line leaves stock and the venda is frozen, or nothing changes.
func (s *VendaService) Finalize(ctx context.Context, actor *Actor) (*models.Venda, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, cartLockKey(actor.UserID))
	if err != nil {
		return nil, err
	}
	defer release()

	cart, err := s.findOpenCart(s.db.WithContext(ctx), actor)
	if err != nil {
		return nil, err
	}
	if len(cart.Produtos) == 0 {
		return nil, utils.ErrValidation(i18n.KeyCartEmpty)
	}

	keys := make([]string, len(cart.Produtos))
	for i, item := range cart.Produtos {
		keys[i] = stockLockKey(item.RefProduto)
	}
	releaseStock, err := lockAll(ctx, s.locker, keys)
	if err != nil {
		return nil, err
	}
	defer releaseStock()

	var intent *PaymentIntent
	if s.payments != nil {
		intent, err = s.payments.CreateIntent(ctx, cart.Total, s.currency, map[string]string{
			"nrVenda":  strconv.Itoa(cart.NrVenda),
			"username": cart.Cliente.UsernameUtilizador,
		})
		if err != nil {
			return nil, utils.ErrPayment(err)
		}
	}

	now := s.now().UTC()
	origem := vendaOriginPrefix + strconv.Itoa(cart.NrVenda)
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, item := range cart.Produtos {
			if _, err := applyMovement(tx, item.RefProduto, models.MovementSaida, item.Quantidade, origem, actor.name(), "", now); err != nil {
				return err
			}
		}

		cart.Estado = models.VendaEstadoFinalizada
		cart.DataFinalizacao = &now
		if intent != nil {
			cart.Pagamento = models.Pagamento{Referencia: intent.ID, Estado: intent.Status}
		}
		return tx.Save(cart).Error
	})
	if err != nil {
		if intent != nil {
			s.cancelIntent(intent.ID)
		}
		if utils.IsKind(err, utils.KindInsufficientStock) {
			s.metrics.StockRejected()
		}
		return nil, err
	}

	for range cart.Produtos {
		s.metrics.StockMovement(string(models.MovementSaida))
	}
	s.metrics.VendaFinalized(cart.Total)

	return cart, nil
}

func (s *VendaService) cancelIntent(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), paymentCancelTimeout)
	defer cancel()
	if err := s.payments.Cancel(ctx, id); err != nil {
		logrus.WithError(err).WithField("payment_intent", id).Error("Failed to cancel payment intent")
	}
}

func (s *VendaService) ListForUser(ctx context.Context, actor *Actor, finalizedOnly bool) ([]models.Venda, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", actor.UserID)
	if finalizedOnly {
		query = query.Where("estado = ?", models.VendaEstadoFinalizada)
	}

	var vendas []models.Venda
	if err := query.Order("nr_venda asc").Find(&vendas).Error; err != nil {
		return nil, fmt.Errorf("failed to list vendas: %w", err)
	}
	return vendas, nil
}

// Get returns a venda to its owner or to staff.
func (s *VendaService) Get(ctx context.Context, actor *Actor, nrVenda int) (*models.Venda, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	venda, err := findVenda(s.db.WithContext(ctx), nrVenda)
	if err != nil {
		return nil, err
	}
	if venda.UserID != actor.UserID && !actor.IsStaff() {
		return nil, utils.ErrForbidden(i18n.KeyAuthForbidden)
	}
	return venda, nil
}

// AdminList filters in memory so the same rules apply on every driver.
func (s *VendaService) AdminList(ctx context.Context, filter VendaFilter) ([]models.Venda, error) {
	match, err := filter.matcher(s.now().UTC())
	if err != nil {
		return nil, err
	}

	var vendas []models.Venda
	if err := s.db.WithContext(ctx).Order("nr_venda asc").Find(&vendas).Error; err != nil {
		return nil, fmt.Errorf("failed to list vendas: %w", err)
	}

	result := make([]models.Venda, 0, len(vendas))
	for _, v := range vendas {
		if match(&v) {
			result = append(result, v)
		}
	}

	switch filter.Ordem {
	case OrdemPrecoAsc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Total < result[j].Total })
	case OrdemPrecoDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Total > result[j].Total })
	}
	return result, nil
}

func (f VendaFilter) matcher(now time.Time) (func(*models.Venda) bool, error) {
	var checks []func(*models.Venda) bool

	if f.NrVenda != "" {
		checks = append(checks, func(v *models.Venda) bool {
			return strings.Contains(strconv.Itoa(v.NrVenda), f.NrVenda)
		})
	}

	if f.Produto != "" {
		needle := strings.ToLower(f.Produto)
		checks = append(checks, func(v *models.Venda) bool {
			for _, item := range v.Produtos {
				if strings.Contains(strings.ToLower(item.Nome), needle) {
					return true
				}
			}
			return false
		})
	}

	if f.Username != "" {
		needle := strings.ToLower(f.Username)
		checks = append(checks, func(v *models.Venda) bool {
			return strings.Contains(strings.ToLower(v.Cliente.UsernameUtilizador), needle)
		})
	}

	if f.Data != "" {
		day, err := time.Parse(vendaDateLayout, f.Data)
		if err != nil {
			return nil, utils.ErrValidation(i18n.KeyVendaInvalidFilter, "data")
		}
		want := day.Format(vendaDateLayout)
		checks = append(checks, func(v *models.Venda) bool {
			return v.Data.UTC().Format(vendaDateLayout) == want
		})
	}

	if f.Periodo != "" {
		var since time.Time
		olderThan := false
		switch f.Periodo {
		case PeriodoUltimaSemana:
			since = now.AddDate(0, 0, -7)
		case PeriodoUltimoMes:
			since = now.AddDate(0, -1, 0)
		case PeriodoUltimos3Meses:
			since = now.AddDate(0, -3, 0)
		case PeriodoUltimoAno:
			since = now.AddDate(-1, 0, 0)
		case PeriodoMaisAntigo:
			since = now.AddDate(-1, 0, 0)
			olderThan = true
		default:
			return nil, utils.ErrValidation(i18n.KeyVendaInvalidFilter, "periodo")
		}
		checks = append(checks, func(v *models.Venda) bool {
			if olderThan {
				return v.Data.Before(since)
			}
			return !v.Data.Before(since)
		})
	}

	switch strings.ToLower(f.Estado) {
	case "", EstadoTodos:
	case strings.ToLower(string(models.VendaEstadoCarrinho)):
		checks = append(checks, func(v *models.Venda) bool { return v.IsCart() })
	case strings.ToLower(string(models.VendaEstadoFinalizada)):
		checks = append(checks, func(v *models.Venda) bool { return v.IsFinalized() })
	default:
		return nil, utils.ErrValidation(i18n.KeyVendaInvalidFilter, "estado")
	}

	switch f.Ordem {
	case "", OrdemPrecoAsc, OrdemPrecoDesc:
	default:
		return nil, utils.ErrValidation(i18n.KeyVendaInvalidFilter, "ordem")
	}

	return func(v *models.Venda) bool {
		for _, check := range checks {
			if !check(v) {
				return false
			}
		}
		return true
	}, nil
}

// Delete is a hard delete. Administrators may delete any venda, owners only their open cart.
func (s *VendaService) Delete(ctx context.Context, actor *Actor, nrVenda int) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	venda, err := findVenda(s.db.WithContext(ctx), nrVenda)
	if err != nil {
		return err
	}

	ownCart := venda.UserID == actor.UserID && venda.IsCart()
	if !actor.IsAdmin() && !ownCart {
		return utils.ErrForbidden(i18n.KeyAuthForbidden)
	}

	if venda.IsCart() {
		release, err := s.locker.Lock(ctx, cartLockKey(venda.UserID))
		if err != nil {
			return err
		}
		defer release()
	}

	result := s.db.WithContext(ctx).Where("nr_venda = ?", nrVenda).Delete(&models.Venda{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete venda: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrNotFound(i18n.KeyVendaNotFound)
	}
	return nil
}

func (s *VendaService) findOpenCart(db *gorm.DB, actor *Actor) (*models.Venda, error) {
	var cart models.Venda
	err := db.Where("user_id = ? AND estado = ?", actor.UserID, models.VendaEstadoCarrinho).
		Order("nr_venda desc").
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound(i18n.KeyCartNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &cart, nil
}

func findVenda(db *gorm.DB, nrVenda int) (*models.Venda, error) {
	var venda models.Venda
	if err := db.First(&venda, "nr_venda = ?", nrVenda).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound(i18n.KeyVendaNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &venda, nil
}

func nextNrVenda(tx *gorm.DB) (int, error) {
	var max int
	if err := tx.Model(&models.Venda{}).Select("COALESCE(MAX(nr_venda), 0)").Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("failed to compute venda number: %w", err)
	}
	return max + 1, nil
}

func loadUser(db *gorm.DB, actor *Actor) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", actor.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound(i18n.KeyUserNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func lineFromProduct(p *models.Product, quantity int) models.VendaItem {
	return models.VendaItem{
		RefProduto: p.Referencia,
		Nome:       p.Nome,
		Quantidade: quantity,
		Preco:      p.Preco,
		Imagem:     p.Imagem,
	}
}
