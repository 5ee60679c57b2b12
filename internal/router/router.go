package router

import (
	"errors"
	"net/http"

	"github.com/sofahub/sofahub-api/internal/config"
	adminhandlers "github.com/sofahub/sofahub-api/internal/http/handlers/admin"
	publichandlers "github.com/sofahub/sofahub-api/internal/http/handlers/public"
	"github.com/sofahub/sofahub-api/internal/http/response"
	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/provider"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the HTTP engine with all routes and middleware.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// Storefront.
		apiV1.GET("/products", publicHandler.ListProducts)
		apiV1.GET("/products/:slug", publicHandler.GetProduct)
		apiV1.GET("/room-categories", publicHandler.ListRoomCategories)
		apiV1.GET("/product-types", publicHandler.ListProductTypes)
		apiV1.GET("/tags", publicHandler.ListTags)
		apiV1.GET("/redirects/resolve", publicHandler.ResolveRedirect)

		// Session cart.
		apiV1.GET("/cart", publicHandler.GetCart)
		apiV1.POST("/cart/items", publicHandler.AddCartItem)
		apiV1.PUT("/cart/items/:variation_id", publicHandler.UpdateCartItem)
		apiV1.DELETE("/cart/items/:variation_id", publicHandler.RemoveCartItem)
		apiV1.DELETE("/cart", publicHandler.ClearCart)

		// Checkout and session orders.
		apiV1.POST("/checkout",
			RateLimitMiddleware("checkout", cfg.Security.CheckoutRateLimit, KeyByIP),
			publicHandler.Checkout)
		apiV1.GET("/orders", publicHandler.ListOrders)
		apiV1.GET("/orders/:id", publicHandler.GetOrder)

		// Gateway callback. Unauthenticated by protocol; reconciliation is
		// guarded by the checkout-request id.
		apiV1.POST("/payments/mpesa/callback", publicHandler.MpesaCallback)

		// Back office.
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login",
				RateLimitMiddleware("admin_login", cfg.Security.LoginRateLimit, KeyByIPAndJSONField("username")),
				adminHandler.Login)

			authorized := admin.Use(StaffAuthMiddleware(c.AuthService))
			{
				authorized.GET("/me", adminHandler.Me)
				authorized.PUT("/password", adminHandler.ChangePassword)

				authorized.GET("/products", adminHandler.AdminListProducts)
				authorized.GET("/products/:id", adminHandler.AdminGetProduct)
				authorized.POST("/products", adminHandler.AdminCreateProduct)
				authorized.PUT("/products/:id", adminHandler.AdminUpdateProduct)
				authorized.DELETE("/products/:id", adminHandler.AdminDeleteProduct)
				authorized.POST("/products/:id/variations", adminHandler.AdminCreateVariation)
				authorized.PUT("/variations/:variation_id", adminHandler.AdminUpdateVariation)
				authorized.DELETE("/variations/:variation_id", adminHandler.AdminDeleteVariation)

				authorized.GET("/room-categories", adminHandler.AdminListRoomCategories)
				authorized.POST("/room-categories", adminHandler.AdminCreateRoomCategory)
				authorized.PUT("/room-categories/:id", adminHandler.AdminUpdateRoomCategory)
				authorized.DELETE("/room-categories/:id", adminHandler.AdminDeleteRoomCategory)
				authorized.GET("/product-types", adminHandler.AdminListProductTypes)
				authorized.POST("/product-types", adminHandler.AdminCreateProductType)
				authorized.PUT("/product-types/:id", adminHandler.AdminUpdateProductType)
				authorized.DELETE("/product-types/:id", adminHandler.AdminDeleteProductType)
				authorized.GET("/tags", adminHandler.AdminListTags)
				authorized.POST("/tags", adminHandler.AdminCreateTag)
				authorized.DELETE("/tags/:id", adminHandler.AdminDeleteTag)

				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.POST("/orders/:id/complete", adminHandler.AdminCompleteOrder)
				authorized.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)
				authorized.GET("/orders/:id/payment-status", adminHandler.AdminQueryPaymentStatus)

				authorized.GET("/redirects", adminHandler.AdminListRedirects)
				authorized.POST("/redirects", adminHandler.AdminUpsertRedirect)
				authorized.DELETE("/redirects/:id", adminHandler.AdminDeleteRedirect)
			}
		}
	}

	// Retired storefront paths 301/302 to their successors.
	r.NoRoute(redirectFallback(c))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

// redirectFallback serves the redirect table for paths no route claims, so
// old product, room and type URLs keep working after renames.
func redirectFallback(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodGet || ctx.Request.Method == http.MethodHead {
			redirect, err := c.RedirectService.Resolve(ctx.Request.URL.Path)
			if err == nil && redirect != nil {
				status := http.StatusFound
				if redirect.IsPermanent {
					status = http.StatusMovedPermanently
				}
				ctx.Redirect(status, redirect.NewPath)
				return
			}
			if err != nil && !errors.Is(err, service.ErrRedirectNotFound) {
				logger.Warnw("redirect_lookup_failed", "path", ctx.Request.URL.Path, "error", err)
			}
		}
		response.NotFound(ctx, "not found")
	}
}
