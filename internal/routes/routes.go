// Package routes declara cada ruta con su política de acceso y arma el router.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/apperr"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/respond"
)

// Route es una fila de la tabla de rutas
type Route struct {
	Method      string
	Path        string
	Policy      middleware.Policy
	Handler     gin.HandlerFunc
	RateLimited bool
}

type Handlers struct {
	Auth       *handlers.AuthHandler
	Accounts   *handlers.AccountHandler
	Cart       *handlers.CartHandler
	Products   *handlers.ProductHandler
	Categories *handlers.CategoryHandler
	Blogs      *handlers.BlogHandler
	Comments   *handlers.CommentHandler
	Orders     *handlers.OrderHandler
	Uploads    *handlers.UploadHandler
	Payments   *handlers.PaymentHandler
	Health     *handlers.HealthHandler
}

type Options struct {
	Log          *logrus.Logger
	Metrics      *metrics.Metrics
	Origins      []string
	LoginLimiter *middleware.RateLimiter
	UploadDir    string
}

// Table es la lista completa de rutas de la API
func Table(h Handlers) []Route {
	return []Route{
		// Públicas
		{Method: http.MethodPost, Path: "/api/auth/register", Policy: middleware.Public, Handler: h.Auth.Register, RateLimited: true},
		{Method: http.MethodPost, Path: "/api/auth/login", Policy: middleware.Public, Handler: h.Auth.Login, RateLimited: true},
		{Method: http.MethodGet, Path: "/api/products", Policy: middleware.Public, Handler: h.Products.ListProducts},
		{Method: http.MethodGet, Path: "/api/products/:id", Policy: middleware.Public, Handler: h.Products.GetProduct},
		{Method: http.MethodGet, Path: "/api/products/:id/comments", Policy: middleware.Public, Handler: h.Comments.ListComments},
		{Method: http.MethodGet, Path: "/api/categories", Policy: middleware.Public, Handler: h.Categories.ListCategories},
		{Method: http.MethodGet, Path: "/api/categories/:id", Policy: middleware.Public, Handler: h.Categories.GetCategory},
		{Method: http.MethodGet, Path: "/api/blogs", Policy: middleware.Public, Handler: h.Blogs.ListBlogs},
		{Method: http.MethodGet, Path: "/api/blogs/:id", Policy: middleware.Public, Handler: h.Blogs.GetBlog},
		{Method: http.MethodPost, Path: "/api/payments/stripe/webhook", Policy: middleware.Public, Handler: h.Payments.StripeWebhook},

		// Usuario autenticado
		{Method: http.MethodPost, Path: "/api/user/logout", Policy: middleware.Authenticated, Handler: h.Auth.Logout},
		{Method: http.MethodGet, Path: "/api/user/profile", Policy: middleware.Authenticated, Handler: h.Accounts.GetProfile},
		{Method: http.MethodPut, Path: "/api/user/profile", Policy: middleware.Authenticated, Handler: h.Accounts.UpdateProfile},
		{Method: http.MethodPut, Path: "/api/user/profile/password", Policy: middleware.Authenticated, Handler: h.Accounts.ChangePassword},
		{Method: http.MethodPost, Path: "/api/user/addresses", Policy: middleware.Authenticated, Handler: h.Accounts.AddAddress},
		{Method: http.MethodDelete, Path: "/api/user/addresses/:addressId", Policy: middleware.Authenticated, Handler: h.Accounts.RemoveAddress},
		{Method: http.MethodGet, Path: "/api/user/cart", Policy: middleware.Authenticated, Handler: h.Cart.GetCart},
		{Method: http.MethodPost, Path: "/api/user/cart/items", Policy: middleware.Authenticated, Handler: h.Cart.AddItem},
		{Method: http.MethodPut, Path: "/api/user/cart/items/:productId", Policy: middleware.Authenticated, Handler: h.Cart.SetItem},
		{Method: http.MethodDelete, Path: "/api/user/cart/items/:productId", Policy: middleware.Authenticated, Handler: h.Cart.RemoveItem},
		{Method: http.MethodDelete, Path: "/api/user/cart", Policy: middleware.Authenticated, Handler: h.Cart.Clear},
		{Method: http.MethodGet, Path: "/api/user/wishlist", Policy: middleware.Authenticated, Handler: h.Cart.GetWishlist},
		{Method: http.MethodPost, Path: "/api/user/wishlist/:productId", Policy: middleware.Authenticated, Handler: h.Cart.AddToWishlist},
		{Method: http.MethodDelete, Path: "/api/user/wishlist/:productId", Policy: middleware.Authenticated, Handler: h.Cart.RemoveFromWishlist},
		{Method: http.MethodPost, Path: "/api/user/products/:id/comments", Policy: middleware.Authenticated, Handler: h.Comments.CreateComment},
		{Method: http.MethodPut, Path: "/api/user/comments/:id", Policy: middleware.Authenticated, Handler: h.Comments.UpdateComment},
		{Method: http.MethodDelete, Path: "/api/user/comments/:id", Policy: middleware.Authenticated, Handler: h.Comments.DeleteComment},
		{Method: http.MethodPost, Path: "/api/user/orders/checkout", Policy: middleware.Authenticated, Handler: h.Orders.Checkout},
		{Method: http.MethodGet, Path: "/api/user/orders", Policy: middleware.Authenticated, Handler: h.Orders.MyOrders},
		{Method: http.MethodGet, Path: "/api/user/orders/:id", Policy: middleware.Authenticated, Handler: h.Orders.GetOrder},
		{Method: http.MethodPost, Path: "/api/user/orders/:id/cancel", Policy: middleware.Authenticated, Handler: h.Orders.CancelOrder},

		// Administración
		{Method: http.MethodGet, Path: "/api/admin/products", Policy: middleware.Admin, Handler: h.Products.AdminListProducts},
		{Method: http.MethodGet, Path: "/api/admin/products/:id", Policy: middleware.Admin, Handler: h.Products.AdminGetProduct},
		{Method: http.MethodPost, Path: "/api/admin/products", Policy: middleware.Admin, Handler: h.Products.CreateProduct},
		{Method: http.MethodPatch, Path: "/api/admin/products/:id", Policy: middleware.Admin, Handler: h.Products.UpdateProduct},
		{Method: http.MethodDelete, Path: "/api/admin/products/:id", Policy: middleware.Admin, Handler: h.Products.DeleteProduct},
		{Method: http.MethodPost, Path: "/api/admin/categories", Policy: middleware.Admin, Handler: h.Categories.CreateCategory},
		{Method: http.MethodPut, Path: "/api/admin/categories/:id", Policy: middleware.Admin, Handler: h.Categories.UpdateCategory},
		{Method: http.MethodDelete, Path: "/api/admin/categories/:id", Policy: middleware.Admin, Handler: h.Categories.DeleteCategory},
		{Method: http.MethodPost, Path: "/api/admin/blogs", Policy: middleware.Admin, Handler: h.Blogs.CreateBlog},
		{Method: http.MethodPut, Path: "/api/admin/blogs/:id", Policy: middleware.Admin, Handler: h.Blogs.UpdateBlog},
		{Method: http.MethodDelete, Path: "/api/admin/blogs/:id", Policy: middleware.Admin, Handler: h.Blogs.DeleteBlog},
		{Method: http.MethodPost, Path: "/api/admin/uploads", Policy: middleware.Admin, Handler: h.Uploads.UploadImages},
		{Method: http.MethodGet, Path: "/api/admin/users", Policy: middleware.Admin, Handler: h.Accounts.ListUsers},
		{Method: http.MethodPatch, Path: "/api/admin/users/:id/role", Policy: middleware.Admin, Handler: h.Accounts.SetRole},
		{Method: http.MethodPatch, Path: "/api/admin/users/:id/block", Policy: middleware.Admin, Handler: h.Accounts.SetBlocked},
		{Method: http.MethodGet, Path: "/api/admin/orders", Policy: middleware.Admin, Handler: h.Orders.ListOrders},
		{Method: http.MethodGet, Path: "/api/admin/orders/:id", Policy: middleware.Admin, Handler: h.Orders.GetOrder},
		{Method: http.MethodPatch, Path: "/api/admin/orders/:id/status", Policy: middleware.Admin, Handler: h.Orders.UpdateStatus},
		{Method: http.MethodPatch, Path: "/api/admin/orders/:id/payment", Policy: middleware.Admin, Handler: h.Orders.UpdatePayment},
	}
}

// NewRouter aplica a cada ruta la cadena de su política
func NewRouter(a *middleware.Auth, h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(opts.Log, opts.Metrics),
		middleware.CORS(opts.Origins),
	)

	for _, r := range Table(h) {
		chain := a.Chain(r.Policy, r.Handler)
		if r.RateLimited && opts.LoginLimiter != nil {
			chain = append([]gin.HandlerFunc{opts.LoginLimiter.Handler()}, chain...)
		}
		router.Handle(r.Method, r.Path, chain...)
	}

	router.GET("/healthz", h.Health.Health)
	router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	if opts.UploadDir != "" {
		router.Static(handlers.UploadsRoute, opts.UploadDir)
	}

	router.NoRoute(func(c *gin.Context) {
		respond.Error(c, apperr.NotFound("route"))
	})
	return router
}
