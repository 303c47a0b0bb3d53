// Package memory guarda productos, cuentas y pedidos en mapas protegidos por
// un mutex. Cumple los mismos contratos que los repositorios de Mongo y se
// usa en tests del motor y de los handlers.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

type Store struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
	accounts map[primitive.ObjectID]models.Account
	orders   map[primitive.ObjectID]models.Order

	categories map[primitive.ObjectID]models.Category
	comments   map[primitive.ObjectID]models.Comment
}

func New() *Store {
	return &Store{
		products: make(map[primitive.ObjectID]models.Product),
		accounts: make(map[primitive.ObjectID]models.Account),
		orders:   make(map[primitive.ObjectID]models.Order),

		categories: make(map[primitive.ObjectID]models.Category),
		comments:   make(map[primitive.ObjectID]models.Comment),
	}
}

func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }
func (s *Store) Orders() *OrderRepository     { return &OrderRepository{s: s} }

func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }
func (s *Store) Comments() *CommentRepository     { return &CommentRepository{s: s} }

// AddProduct asigna id si falta y devuelve el producto guardado
func (s *Store) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.products[p.ID] = p
	return p
}

func (s *Store) AddAccount(a models.Account) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Role == "" {
		a.Role = models.RoleUser
	}
	s.accounts[a.ID] = a
	return a
}

// Stock lee el stock actual; -1 si el producto no existe
func (s *Store) Stock(id primitive.ObjectID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return -1
	}
	return p.Stock
}

func (s *Store) SetCart(accountID primitive.ObjectID, cart []models.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[accountID]
	a.Cart = append([]models.CartItem(nil), cart...)
	s.accounts[accountID] = a
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func parseID(id, resource string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid " + resource + " id")
	}
	return oid, nil
}

type ProductRepository struct{ s *Store }

func (r *ProductRepository) ReserveStock(_ context.Context, productID string, qty int64) (*models.Product, error) {
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	oid, err := parseID(productID, "product")
	if err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[oid]
	if !ok || p.IsDeleted || !p.IsPublished {
		return nil, apperr.NotFound("product").WithDetails("product_id", productID)
	}
	if p.Stock < qty {
		return nil, apperr.InsufficientStock(productID, p.Name, qty, p.Stock)
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now()
	r.s.products[oid] = p
	return &p, nil
}

// ReleaseStock repone aunque el producto esté despublicado o borrado
func (r *ProductRepository) ReleaseStock(_ context.Context, productID string, qty int64) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be positive")
	}
	oid, err := parseID(productID, "product")
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[oid]
	if !ok {
		return apperr.NotFound("product")
	}
	p.Stock += qty
	r.s.products[oid] = p
	return nil
}

// FindByID: sin includeHidden los despublicados no existen
func (r *ProductRepository) FindByID(_ context.Context, id string, includeHidden bool) (*models.Product, error) {
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[oid]
	if !ok || p.IsDeleted || (!includeHidden && !p.IsPublished) {
		return nil, apperr.NotFound("product")
	}
	return &p, nil
}

func (r *ProductRepository) CountByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.products {
		if p.CategoryID == categoryID && !p.IsDeleted {
			n++
		}
	}
	return n, nil
}

type AccountRepository struct{ s *Store }

func (r *AccountRepository) FindByID(_ context.Context, id string) (*models.Account, error) {
	oid, err := parseID(id, "account")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[oid]
	if !ok {
		return nil, apperr.NotFound("account")
	}
	a.Cart = append([]models.CartItem(nil), a.Cart...)
	return &a, nil
}

// Create rechaza emails repetidos igual que el índice único de Mongo
func (r *AccountRepository) Create(_ context.Context, account *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(account.Email))
	for _, a := range r.s.accounts {
		if a.Email == email {
			return apperr.Conflict("email already registered")
		}
	}

	now := time.Now().UTC()
	account.ID = primitive.NewObjectID()
	account.Email = email
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.Role == "" {
		account.Role = models.RoleUser
	}
	r.s.accounts[account.ID] = *account
	return nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == email {
			a.Cart = append([]models.CartItem(nil), a.Cart...)
			return &a, nil
		}
	}
	return nil, apperr.NotFound("account")
}

// RemoveCartLines descuenta lo pedido de las líneas del mismo producto
func (r *AccountRepository) RemoveCartLines(_ context.Context, id string, lines []models.CartItem) error {
	oid, err := parseID(id, "account")
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[oid]
	if !ok {
		return apperr.NotFound("account")
	}

	cart := append([]models.CartItem(nil), a.Cart...)
	for _, ordered := range lines {
		left := ordered.Quantity
		for i := range cart {
			if left == 0 {
				break
			}
			if cart[i].ProductID != ordered.ProductID {
				continue
			}
			take := min(left, cart[i].Quantity)
			cart[i].Quantity -= take
			left -= take
		}
	}
	kept := cart[:0]
	for _, item := range cart {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	a.Cart = kept
	r.s.accounts[oid] = a
	return nil
}

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	r.s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[oid]
	if !ok {
		return nil, apperr.NotFound("order")
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]*models.Order, error) {
	oid, err := parseID(userID, "account")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Order, 0)
	for _, o := range r.s.orders {
		if o.UserID == oid {
			c := cloneOrder(o)
			out = append(out, &c)
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *OrderRepository) List(_ context.Context, filter models.OrderFilter) ([]*models.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*models.Order, 0)
	for _, o := range r.s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && o.UserID.Hex() != filter.UserID {
			continue
		}
		c := cloneOrder(o)
		out = append(out, &c)
	}
	newestFirst(out)

	total := int64(len(out))
	if filter.Page > 0 && filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start >= len(out) {
			return []*models.Order{}, total, nil
		}
		end := start + filter.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (r *OrderRepository) TransitionStatus(_ context.Context, id string, from []models.OrderStatus, change models.StatusChange) (*models.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[oid]
	if !ok || !containsStatus(from, o.Status) {
		return nil, apperr.ErrPreconditionFailed
	}
	o = cloneOrder(o)
	o.Status = change.Status
	o.History = append(o.History, change)
	o.UpdatedAt = change.At
	r.s.orders[oid] = o

	out := cloneOrder(o)
	return &out, nil
}

func (r *OrderRepository) UpdatePaymentStatus(_ context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus) (*models.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[oid]
	if !ok {
		return nil, apperr.ErrPreconditionFailed
	}
	allowed := false
	for _, st := range from {
		if st == o.PaymentStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperr.ErrPreconditionFailed
	}
	o = cloneOrder(o)
	o.PaymentStatus = to
	o.UpdatedAt = time.Now().UTC()
	r.s.orders[oid] = o

	out := cloneOrder(o)
	return &out, nil
}

func containsStatus(list []models.OrderStatus, s models.OrderStatus) bool {
	for _, st := range list {
		if st == s {
			return true
		}
	}
	return false
}

func newestFirst(orders []*models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// cloneOrder evita que los llamadores compartan slices con el store
func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	o.History = append([]models.StatusChange(nil), o.History...)
	return o
}

type CategoryRepository struct{ s *Store }

// Create rechaza nombres repetidos como el índice único
func (r *CategoryRepository) Create(_ context.Context, category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	name := strings.TrimSpace(category.Name)
	for _, c := range r.s.categories {
		if c.Name == name {
			return apperr.Conflict("category name already exists")
		}
	}

	now := time.Now().UTC()
	category.ID = primitive.NewObjectID()
	category.Name = name
	category.CreatedAt = now
	category.UpdatedAt = now
	r.s.categories[category.ID] = *category
	return nil
}

func (r *CategoryRepository) FindAll(_ context.Context) ([]*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepository) FindByID(_ context.Context, id string) (*models.Category, error) {
	oid, err := parseID(id, "category")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[oid]
	if !ok {
		return nil, apperr.NotFound("category")
	}
	return &c, nil
}

func (r *CategoryRepository) Update(_ context.Context, id string, in models.Category) (*models.Category, error) {
	oid, err := parseID(id, "category")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[oid]
	if !ok {
		return nil, apperr.NotFound("category")
	}
	name := strings.TrimSpace(in.Name)
	for otherID, other := range r.s.categories {
		if otherID != oid && other.Name == name {
			return nil, apperr.Conflict("category name already exists")
		}
	}
	c.Name = name
	c.Description = in.Description
	c.UpdatedAt = time.Now().UTC()
	r.s.categories[oid] = c
	return &c, nil
}

func (r *CategoryRepository) Delete(_ context.Context, id string) error {
	oid, err := parseID(id, "category")
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[oid]; !ok {
		return apperr.NotFound("category")
	}
	delete(r.s.categories, oid)
	return nil
}

type CommentRepository struct{ s *Store }

func (r *CommentRepository) Create(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	r.s.comments[comment.ID] = *comment
	return nil
}

// ListByProduct ordena de más nuevo a más viejo, igual que en Mongo
func (r *CommentRepository) ListByProduct(_ context.Context, productID string, page, pageSize int) ([]*models.Comment, int64, error) {
	oid, err := parseID(productID, "product")
	if err != nil {
		return nil, 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := make([]*models.Comment, 0)
	for _, c := range r.s.comments {
		if c.ProductID == oid {
				all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start < 0 || start >= len(all) {
		return []*models.Comment{}, total, nil
	}
	end := min(start+pageSize, len(all))
	return all[start:end], total, nil
}

func (r *CommentRepository) FindByID(_ context.Context, id string) (*models.Comment, error) {
	oid, err := parseID(id, "comment")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[oid]
	if !ok {
		return nil, apperr.NotFound("comment")
	}
	return &c, nil
}

func (r *CommentRepository) Update(_ context.Context, id string, in models.CommentInput) (*models.Comment, error) {
	oid, err := parseID(id, "comment")
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[oid]
	if !ok {
		return nil, apperr.NotFound("comment")
	}
	c.Body = in.Body
	c.Rating = in.Rating
	c.UpdatedAt = time.Now().UTC()
	r.s.comments[oid] = c
	return &c, nil
}

func (r *CommentRepository) Delete(_ context.Context, id string) error {
	oid, err := parseID(id, "comment")
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[oid]; !ok {
		return apperr.NotFound("comment")
	}
	delete(r.s.comments, oid)
	return nil
}
