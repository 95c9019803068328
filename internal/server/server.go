package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	adjustmentdomain "github.com/ksheermitra/backend/internal/adjustment/domain"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	"github.com/ksheermitra/backend/internal/config"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	invoicedomain "github.com/ksheermitra/backend/internal/invoice/domain"
	"github.com/ksheermitra/backend/internal/observability"
	obslogger "github.com/ksheermitra/backend/internal/observability/logger"
	obstracing "github.com/ksheermitra/backend/internal/observability/tracing"
	orderdomain "github.com/ksheermitra/backend/internal/order/domain"
	productdomain "github.com/ksheermitra/backend/internal/product/domain"
	"github.com/ksheermitra/backend/internal/scheduler"
	subscriptiondomain "github.com/ksheermitra/backend/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

// MonthlyInvoiceTrigger starts a monthly invoice run on demand.
type MonthlyInvoiceTrigger interface {
	TriggerMonthlyInvoices(ctx context.Context, month string) (invoicedomain.BatchResult, error)
}

func NewEngine(debug bool, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           debug,
		Logger:          log,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, log *zap.Logger) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg.Debug(), log.Named("http"))
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	customerSvc     customerdomain.Service
	productSvc      productdomain.Service
	subscriptionSvc subscriptiondomain.Service
	adjustmentSvc   adjustmentdomain.Service
	orderSvc        orderdomain.Service
	billingSvc      billingdomain.Service
	invoiceSvc      invoicedomain.Service
	trigger         MonthlyInvoiceTrigger
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	CustomerSvc     customerdomain.Service
	ProductSvc      productdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	AdjustmentSvc   adjustmentdomain.Service
	OrderSvc        orderdomain.Service
	BillingSvc      billingdomain.Service
	InvoiceSvc      invoicedomain.Service
	Scheduler       *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		customerSvc:     p.CustomerSvc,
		productSvc:      p.ProductSvc,
		subscriptionSvc: p.SubscriptionSvc,
		adjustmentSvc:   p.AdjustmentSvc,
		orderSvc:        p.OrderSvc,
		billingSvc:      p.BillingSvc,
		invoiceSvc:      p.InvoiceSvc,
	}
	if p.Scheduler != nil {
		svc.trigger = p.Scheduler
	}

	svc.registerAPIRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Customers --------
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers", s.ListCustomers)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.GET("/customers/:id/billing", s.GetCustomerBilling)
	api.GET("/customers/:id/subscriptions", s.ListCustomerSubscriptions)
	api.GET("/customers/:id/orders", s.ListCustomerOrders)

	// -------- Products --------
	api.POST("/products", s.CreateProduct)
	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)

	// -------- Subscriptions --------
	api.POST("/subscriptions", s.CreateSubscription)
	api.GET("/subscriptions/:id", s.GetSubscriptionByID)
	api.PATCH("/subscriptions/:id", s.UpdateSubscription)
	api.DELETE("/subscriptions/:id", s.DeleteSubscription)
	api.PUT("/subscriptions/:id/adjustments", s.UpsertAdjustment)
	api.GET("/subscriptions/:id/adjustments", s.ListAdjustments)

	// -------- Adjustments --------
	api.DELETE("/adjustments/:id", s.DeleteAdjustment)

	// -------- Orders --------
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrderByID)
	api.PATCH("/orders/:id/status", s.UpdateOrderStatus)

	// -------- Invoices --------
	api.POST("/invoices/monthly", s.GenerateMonthlyInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/pdf", s.DownloadInvoice)

	// -------- Scheduler --------
	api.POST("/scheduler/monthly-invoices", s.TriggerMonthlyInvoices)
}
