package repository_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/apperr"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repository"
)

// getTestDB crea una base descartable; sin Mongo el test se salta
func getTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	client, err := database.Connect(context.Background(), uri)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	db := client.Database("storefront_test_" + uuid.NewString()[:8])
	require.NoError(t, database.EnsureIndexes(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func seedProduct(t *testing.T, repo *repository.ProductRepository, stock int64) *models.Product {
	t.Helper()
	p := &models.Product{
		SKU:         "SKU-" + uuid.NewString(),
		Name:        "Desk lamp",
		PriceCents:  2500,
		Currency:    "USD",
		Stock:       stock,
		IsPublished: true,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestProductRepository_ReserveAndRelease(t *testing.T) {
	db := getTestDB(t)
	repo := repository.NewProductRepository(db.Collection(repository.ProductsCollection))
	ctx := context.Background()
	p := seedProduct(t, repo, 2)

	got, err := repo.ReserveStock(ctx, p.ID.Hex(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock, "returns the document after the decrement")
	assert.Equal(t, int64(2500), got.PriceCents)

	_, err = repo.ReserveStock(ctx, p.ID.Hex(), 1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	_, err = repo.ReserveStock(ctx, primitive.NewObjectID().Hex(), 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, repo.ReleaseStock(ctx, p.ID.Hex(), 2))
	current, err := repo.FindByID(ctx, p.ID.Hex(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current.Stock)
}

func TestProductRepository_ConcurrentReserveNeverOversells(t *testing.T) {
	db := getTestDB(t)
	repo := repository.NewProductRepository(db.Collection(repository.ProductsCollection))
	p := seedProduct(t, repo, 25)

	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ReserveStock(context.Background(), p.ID.Hex(), 1)
			switch {
			case err == nil:
				ok.Add(1)
			case apperr.Is(err, apperr.KindInsufficientStock):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(25), ok.Load())
	assert.Equal(t, int32(35), rejected.Load())

	current, err := repo.FindByID(context.Background(), p.ID.Hex(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current.Stock)
}

func TestProductRepository_FiltersAndSoftDelete(t *testing.T) {
	db := getTestDB(t)
	repo := repository.NewProductRepository(db.Collection(repository.ProductsCollection))
	ctx := context.Background()

	visible := seedProduct(t, repo, 1)
	hidden := &models.Product{SKU: "HIDDEN-1", Name: "Draft", PriceCents: 100}
	require.NoError(t, repo.Create(ctx, hidden))

	list, total, err := repo.FindAll(ctx, models.ProductFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, visible.ID, list[0].ID)

	_, total, err = repo.FindAll(ctx, models.ProductFilter{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.FindAll(ctx, models.ProductFilter{Query: "lamp", MinPriceCents: 2000})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	dup := &models.Product{SKU: visible.SKU, Name: "dup"}
	assert.True(t, apperr.Is(repo.Create(ctx, dup), apperr.KindConflict))

	require.NoError(t, repo.SoftDelete(ctx, visible.ID.Hex()))
	_, err = repo.FindByID(ctx, visible.ID.Hex(), true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(repo.SoftDelete(ctx, visible.ID.Hex()), apperr.KindNotFound))
}

func TestOrderRepository_ConditionalTransition(t *testing.T) {
	db := getTestDB(t)
	repo := repository.NewOrderRepository(db.Collection(repository.OrdersCollection))
	ctx := context.Background()

	order := &models.Order{
		ID:            primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		History:       []models.StatusChange{{Status: models.OrderStatusPending}},
	}
	require.NoError(t, repo.Create(ctx, order))

	change := models.StatusChange{Status: models.OrderStatusCancelled}
	from := []models.OrderStatus{models.OrderStatusPending, models.OrderStatusProcessing}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.TransitionStatus(ctx, order.ID.Hex(), from, change); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	got, err := repo.FindByID(ctx, order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Len(t, got.History, 2)

	_, err = repo.TransitionStatus(ctx, order.ID.Hex(), from, change)
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)

	paid, err := repo.UpdatePaymentStatus(ctx, order.ID.Hex(),
		[]models.PaymentStatus{models.PaymentStatusUnpaid}, models.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)

	list, total, err := repo.List(ctx, models.OrderFilter{Status: models.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}

func TestAccountRepository_CartAndWishlist(t *testing.T) {
	db := getTestDB(t)
	repo := repository.NewAccountRepository(db.Collection(repository.AccountsCollection))
	ctx := context.Background()

	acc := &models.Account{Name: "Ana", Email: " Ana@Example.com ", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, acc))
	assert.Equal(t, "ana@example.com", acc.Email)

	dup := &models.Account{Name: "Other", Email: "ANA@example.com"}
	assert.True(t, apperr.Is(repo.Create(ctx, dup), apperr.KindConflict))

	productID := primitive.NewObjectID()
	_, err := repo.AddCartItem(ctx, acc.ID.Hex(), productID, 1)
	require.NoError(t, err)
	updated, err := repo.AddCartItem(ctx, acc.ID.Hex(), productID, 2)
	require.NoError(t, err)
	require.Len(t, updated.Cart, 1)
	assert.Equal(t, int64(3), updated.Cart[0].Quantity)

	updated, err = repo.SetCartItem(ctx, acc.ID.Hex(), productID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated.Cart[0].Quantity)

	// lo pedido se descuenta; lo demás queda
	otherID := primitive.NewObjectID()
	_, err = repo.AddCartItem(ctx, acc.ID.Hex(), otherID, 1)
	require.NoError(t, err)
	require.NoError(t, repo.RemoveCartLines(ctx, acc.ID.Hex(), []models.CartItem{{ProductID: productID, Quantity: 2}}))
	found, err := repo.FindByID(ctx, acc.ID.Hex())
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.CartItem{
		{ProductID: productID, Quantity: 3},
		{ProductID: otherID, Quantity: 1},
	}, found.Cart)

	require.NoError(t, repo.RemoveCartLines(ctx, acc.ID.Hex(), []models.CartItem{{ProductID: productID, Quantity: 3}}))
	found, err = repo.FindByID(ctx, acc.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: otherID, Quantity: 1}}, found.Cart)

	require.NoError(t, repo.ClearCart(ctx, acc.ID.Hex()))
	found, err = repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Empty(t, found.Cart)

	_, err = repo.AddToWishlist(ctx, acc.ID.Hex(), productID)
	require.NoError(t, err)
	updated, err = repo.AddToWishlist(ctx, acc.ID.Hex(), productID)
	require.NoError(t, err)
	assert.Len(t, updated.Wishlist, 1, "wishlist is a set")

	withAddr, err := repo.AddAddress(ctx, acc.ID.Hex(), models.Address{FullName: "Ana", Line1: "L", City: "C", PostalCode: "P", Country: "PE"})
	require.NoError(t, err)
	require.Len(t, withAddr.Addresses, 1)
	assert.True(t, withAddr.Addresses[0].IsDefault)

	_, err = repo.RemoveAddress(ctx, acc.ID.Hex(), primitive.NewObjectID().Hex())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
