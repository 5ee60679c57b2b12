package service

import (
	"time"

	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"

	"github.com/shopspring/decimal"
)

// CartLineDetail is one cart line with its price resolved at read time.
// Prices are never stored on cart rows; sale windows opening or closing
// between visits show up here immediately.
type CartLineDetail struct {
	VariationID uint                       `json:"variation_id"`
	ProductID   uint                       `json:"product_id"`
	ProductName string                     `json:"product_name"`
	ProductSlug string                     `json:"product_slug"`
	SKU         string                     `json:"sku"`
	Attributes  models.VariationAttributes `json:"attributes"`
	Quantity    int                        `json:"quantity"`
	UnitPrice   models.Money               `json:"unit_price"`
	LineTotal   models.Money               `json:"line_total"`
	InStock     int                        `json:"in_stock"`
}

// CartDetail is the cart as returned to the storefront.
type CartDetail struct {
	SessionID  string           `json:"session_id"`
	Items      []CartLineDetail `json:"items"`
	TotalItems int              `json:"total_items"`
	Subtotal   models.Money     `json:"subtotal"`
}

// CartService manages session carts.
type CartService struct {
	cartRepo      repository.CartRepository
	variationRepo repository.VariationRepository
}

// NewCartService creates the cart service.
func NewCartService(cartRepo repository.CartRepository, variationRepo repository.VariationRepository) *CartService {
	return &CartService{
		cartRepo:      cartRepo,
		variationRepo: variationRepo,
	}
}

// GetCart returns the session's cart, creating an empty one on first use.
// Lines whose variation or product has been deactivated since they were
// added are dropped from the cart on read.
func (s *CartService) GetCart(sessionID string) (*CartDetail, error) {
	if sessionID == "" {
		return nil, ErrCartItemNotFound
	}
	cart, err := s.cartRepo.GetOrCreateBySession(sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	detail := &CartDetail{
		SessionID: sessionID,
		Items:     make([]CartLineDetail, 0, len(cart.Items)),
		Subtotal:  models.NewMoneyFromDecimal(decimal.Zero),
	}
	for _, item := range cart.Items {
		variation := item.Variation
		if variation == nil || variation.ID == 0 {
			v, err := s.variationRepo.GetByID(item.VariationID)
			if err != nil {
				return nil, err
			}
			variation = v
		}
		if variation == nil || !variation.IsActive || variation.Product == nil || !variation.Product.IsActive {
			_ = s.cartRepo.DeleteItem(cart.ID, item.VariationID)
			continue
		}

		unitPrice := variation.Price(now)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		detail.Items = append(detail.Items, CartLineDetail{
			VariationID: variation.ID,
			ProductID:   variation.ProductID,
			ProductName: variation.Product.Name,
			ProductSlug: variation.Product.Slug,
			SKU:         variation.SKU,
			Attributes:  variation.Attributes,
			Quantity:    item.Quantity,
			UnitPrice:   models.NewMoneyFromDecimal(unitPrice),
			LineTotal:   models.NewMoneyFromDecimal(lineTotal),
			InStock:     variation.StockQuantity,
		})
		detail.TotalItems += item.Quantity
		detail.Subtotal = models.NewMoneyFromDecimal(detail.Subtotal.Decimal.Add(lineTotal))
	}
	return detail, nil
}

// AddItem puts a variation in the cart. Adding a variation already present
// collapses into the existing line by incrementing its quantity.
func (s *CartService) AddItem(sessionID string, variationID uint, quantity int) (*CartDetail, error) {
	if sessionID == "" || variationID == 0 {
		return nil, ErrCartItemNotFound
	}
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	variation, err := s.variationRepo.GetByID(variationID)
	if err != nil {
		return nil, err
	}
	if variation == nil || !variation.IsActive {
		return nil, ErrVariationNotFound
	}
	if variation.Product == nil || !variation.Product.IsActive {
		return nil, ErrProductNotAvailable
	}

	cart, err := s.cartRepo.GetOrCreateBySession(sessionID)
	if err != nil {
		return nil, err
	}

	newQuantity := quantity
	existing, err := s.cartRepo.GetItem(cart.ID, variationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		newQuantity += existing.Quantity
	}
	if newQuantity > variation.StockQuantity {
		return nil, ErrInsufficientStock
	}

	item := &models.CartItem{
		CartID:      cart.ID,
		VariationID: variationID,
		Quantity:    newQuantity,
	}
	if err := s.cartRepo.Upsert(item); err != nil {
		return nil, err
	}
	return s.GetCart(sessionID)
}

// UpdateItem sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateItem(sessionID string, variationID uint, quantity int) (*CartDetail, error) {
	if sessionID == "" || variationID == 0 {
		return nil, ErrCartItemNotFound
	}
	if quantity < 0 {
		return nil, ErrQuantityInvalid
	}

	cart, err := s.cartRepo.GetBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartItemNotFound
	}
	existing, err := s.cartRepo.GetItem(cart.ID, variationID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCartItemNotFound
	}

	if quantity == 0 {
		if err := s.cartRepo.DeleteItem(cart.ID, variationID); err != nil {
			return nil, err
		}
		return s.GetCart(sessionID)
	}

	variation, err := s.variationRepo.GetByID(variationID)
	if err != nil {
		return nil, err
	}
	if variation == nil || !variation.IsActive {
		return nil, ErrVariationNotFound
	}
	if quantity > variation.StockQuantity {
		return nil, ErrInsufficientStock
	}

	item := &models.CartItem{
		CartID:      cart.ID,
		VariationID: variationID,
		Quantity:    quantity,
	}
	if err := s.cartRepo.Upsert(item); err != nil {
		return nil, err
	}
	return s.GetCart(sessionID)
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(sessionID string, variationID uint) (*CartDetail, error) {
	if sessionID == "" || variationID == 0 {
		return nil, ErrCartItemNotFound
	}
	cart, err := s.cartRepo.GetBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartItemNotFound
	}
	if err := s.cartRepo.DeleteItem(cart.ID, variationID); err != nil {
		return nil, err
	}
	return s.GetCart(sessionID)
}

// ClearCart empties the session's cart.
func (s *CartService) ClearCart(sessionID string) error {
	if sessionID == "" {
		return ErrCartItemNotFound
	}
	cart, err := s.cartRepo.GetBySession(sessionID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.cartRepo.ClearItems(cart.ID)
}
