package provider

import (
	"time"

	"github.com/sofahub/sofahub-api/internal/cache"
	"github.com/sofahub/sofahub-api/internal/config"
	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/payment/mpesa"
	"github.com/sofahub/sofahub-api/internal/queue"
	"github.com/sofahub/sofahub-api/internal/repository"
	"github.com/sofahub/sofahub-api/internal/service"
)

// Container wires repositories and services for handlers and workers.
type Container struct {
	Config       *config.Config
	QueueClient  *queue.Client
	MpesaGateway service.PaymentGateway

	// Repositories
	ProductRepo   repository.ProductRepository
	VariationRepo repository.VariationRepository
	CategoryRepo  repository.CategoryRepository
	CartRepo      repository.CartRepository
	OrderRepo     repository.OrderRepository
	RedirectRepo  repository.RedirectRepository
	StaffRepo     repository.StaffRepository

	// Services
	AuthService         *service.AuthService
	ProductService      *service.ProductService
	CategoryService     *service.CategoryService
	CartService         *service.CartService
	CheckoutService     *service.CheckoutService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	NotificationService *service.NotificationService
	RedirectService     *service.RedirectService
}

// NewContainer initializes the container.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initGateway()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariationRepo = repository.NewVariationRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.RedirectRepo = repository.NewRedirectRepository(db)
	c.StaffRepo = repository.NewStaffRepository(db)
}

func (c *Container) initGateway() {
	mpesaCfg := c.Config.Mpesa
	gateway, err := mpesa.NewClient(mpesa.Config{
		Environment:    mpesaCfg.Environment,
		ConsumerKey:    mpesaCfg.ConsumerKey,
		ConsumerSecret: mpesaCfg.ConsumerSecret,
		Shortcode:      mpesaCfg.Shortcode,
		Passkey:        mpesaCfg.Passkey,
		CallbackURL:    mpesaCfg.CallbackURL,
		Timeout:        time.Duration(mpesaCfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		// Startup proceeds so catalog and cart work; checkout fails loudly
		// until credentials are configured.
		logger.Warnw("provider_init_mpesa_gateway_failed", "error", err)
		return
	}
	c.MpesaGateway = gateway
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.StaffRepo, &c.Config.JWT)
	c.ProductService = service.NewProductService(c.ProductRepo, c.VariationRepo, c.CategoryRepo, c.RedirectRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo, c.RedirectRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.VariationRepo)
	c.CheckoutService = service.NewCheckoutService(
		c.CartRepo,
		c.VariationRepo,
		c.OrderRepo,
		c.MpesaGateway,
		c.QueueClient,
		c.Config.Order.DownpaymentEnabled,
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.VariationRepo, c.CartRepo, c.QueueClient)
	c.PaymentService = service.NewPaymentService(c.OrderRepo, c.VariationRepo, c.CartRepo, c.MpesaGateway, c.QueueClient)
	c.NotificationService = service.NewNotificationService(&c.Config.Notify)
	c.RedirectService = service.NewRedirectService(c.RedirectRepo)
}
