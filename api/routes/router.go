// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/payments"
	"busline/internal/reconciliation"
	"busline/internal/schedules"
	"busline/internal/seats"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/internal/shared/middleware"
	"busline/internal/shared/txn"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "busline/docs"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB

	scheduleService       schedules.Service
	inventory             seats.Inventory
	bookingService        bookings.Service
	paymentService        payments.Service
	reconciliationService reconciliation.Service
	jobs                  *reconciliation.JobProcessor
}

// NewRouter wires every service against the shared database. Events of all
// services go to publisher once their transaction commits.
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher) *Router {
	r := &Router{
		config: cfg,
		db:     db,
	}
	r.wireServices(publisher)
	return r
}

func (r *Router) wireServices(publisher notifications.Publisher) {
	if publisher == nil {
		publisher = notifications.NopPublisher
	}
	tx := txn.NewTransactor(r.db.SQL)

	// Seat inventory and the schedule calendar depend on each other
	r.inventory = seats.NewInventory(seats.NewRepository(r.db.SQL), tx, nil)
	r.scheduleService = schedules.NewService(schedules.NewRepository(r.db.SQL), tx, r.inventory)
	r.inventory.SetCalendar(r.scheduleService)

	if r.db.Redis != nil {
		cacheService := cache.NewService(r.db.Redis)
		r.inventory.SetCacheService(cacheService)
		r.scheduleService.SetCacheService(cacheService)
	} else {
		logger.GetDefault().Info("Redis disabled: seat maps and schedules are served uncached")
	}

	r.bookingService = bookings.NewService(bookings.NewRepository(r.db.SQL), tx, r.inventory, r.scheduleService, r.config.Booking)
	r.paymentService = payments.NewService(payments.NewRepository(r.db.SQL), tx, r.bookingService, r.config.Booking)
	r.reconciliationService = reconciliation.NewService(reconciliation.NewRepository(r.db.SQL), tx, r.inventory, r.config.Reconciliation)

	r.bookingService.SetIssueRecorder(r.reconciliationService)
	r.paymentService.SetIssueRecorder(r.reconciliationService)

	r.bookingService.SetPublisher(publisher)
	r.paymentService.SetPublisher(publisher)
	r.reconciliationService.SetPublisher(publisher)

	r.jobs = reconciliation.NewJobProcessor(r.reconciliationService, r.bookingService, r.config.Reconciliation)
}

// JobProcessor returns the background sweep and completion jobs
func (r *Router) JobProcessor() *reconciliation.JobProcessor {
	return r.jobs
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API documentation
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.JWTAuth(r.config)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		schedules.SetupScheduleRoutes(api, schedules.NewController(r.scheduleService), auth)
		seats.SetupSeatRoutes(api, seats.NewController(r.inventory))
		bookings.SetupBookingRoutes(api, bookings.NewController(r.bookingService), auth)
		payments.SetupPaymentRoutes(api, payments.NewController(r.paymentService, r.bookingService), auth)
		reconciliation.SetupReconciliationRoutes(api, reconciliation.NewController(r.reconciliationService), auth)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "busline-api",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "busline-api",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "operational",
			"api_version":    r.config.APIVersion,
			"database":       r.db.Driver,
			"redis_cache":    r.db.Redis != nil,
			"reconciliation": r.jobs.GetJobStatus(),
			"timestamp":      time.Now(),
		})
	})
}
