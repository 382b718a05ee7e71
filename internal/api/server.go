package api

import (
	"context"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/vietanh2810/raffle-api/docs"
	v1 "github.com/vietanh2810/raffle-api/internal/api/handler/v1"
	"github.com/vietanh2810/raffle-api/internal/api/middleware"
	"github.com/vietanh2810/raffle-api/internal/config"
	"github.com/vietanh2810/raffle-api/internal/pkg/draw"
	"github.com/vietanh2810/raffle-api/internal/repository"
	"github.com/vietanh2810/raffle-api/internal/repository/dao"
	"github.com/vietanh2810/raffle-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

// Services are the application services the HTTP layer is built on.
type Services struct {
	Lifecycle *service.LifecycleService
	Ledger    *service.LedgerService
	Raffles   *service.RaffleService
	Reports   *service.ReportService
}

// NewServer wires the gorm-backed services. The round feed runs until ctx is done.
func NewServer(ctx context.Context, conf *config.AppConfig, db *gorm.DB) *Server {
	feedHandler := v1.NewFeedHandler(nil, conf.API.AllowedCORSDomains)
	svcs := initServices(conf, db, feedHandler)

	return newServer(ctx, conf, svcs, feedHandler)
}

func initServices(conf *config.AppConfig, db *gorm.DB, events service.RoundPublisher) Services {
	raffleRepo := repository.NewRaffleRepository(dao.NewRaffleDAO(db))
	roundRepo := repository.NewRoundRepository(dao.NewRoundDAO(db))
	purchaseRepo := repository.NewPurchaseRepository(dao.NewPurchaseDAO(db))

	return NewServices(conf, raffleRepo, roundRepo, purchaseRepo, draw.New(), events, nil)
}

// NewServices builds the service graph over any repository implementation.
func NewServices(
	conf *config.AppConfig,
	raffles service.RaffleRepository,
	rounds service.RoundRepository,
	purchases service.PurchaseRepository,
	drawer service.Drawer,
	events service.RoundPublisher,
	clock service.Clock,
) Services {
	lifecycle := service.NewLifecycleService(raffles, rounds, drawer, events, clock)
	if conf.Lottery.TickParallelism > 0 {
		lifecycle.SetTickParallelism(conf.Lottery.TickParallelism)
	}

	raffleSvc := service.NewRaffleService(raffles, rounds, purchases, lifecycle, clock)
	raffleSvc.SetRoundHistory(conf.Lottery.RoundHistory)

	return Services{
		Lifecycle: lifecycle,
		Ledger:    service.NewLedgerService(raffles, purchases, lifecycle, clock),
		Raffles:   raffleSvc,
		Reports:   service.NewReportService(purchases),
	}
}

func newServer(ctx context.Context, conf *config.AppConfig, svcs Services, feedHandler *v1.FeedHandler) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	feedHandler.SetService(svcs.Raffles)
	go feedHandler.Run(ctx)

	raffleHandler := v1.NewRaffleHandler(svcs.Raffles, svcs.Ledger)
	tickHandler := v1.NewTickHandler(svcs.Lifecycle)
	adminHandler := v1.NewAdminHandler(svcs.Raffles, svcs.Reports)
	s.MountHandlers(raffleHandler, tickHandler, adminHandler, feedHandler)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	s.Router.Use(middleware.Username())
}

func (s *Server) MountHandlers(raffleHandler *v1.RaffleHandler, tickHandler *v1.TickHandler, adminHandler *v1.AdminHandler, feedHandler *v1.FeedHandler) {
	const basePath = "/api/v1"

	openWhenUnset := !s.Config.IsProduction()
	secrets := s.Config.Secrets()

	raffles := s.Router.Group(basePath)
	{
		raffles.GET("/raffles", raffleHandler.HandleListRaffles)
		raffles.GET("/raffles/:raffleID", raffleHandler.HandleGetRaffle)
		raffles.POST("/raffles/:raffleID/tickets", raffleHandler.HandleBuyTickets)
		raffles.GET("/raffles/:raffleID/rounds", raffleHandler.HandleListRounds)
		raffles.GET("/raffles/:raffleID/feed", feedHandler.HandleFeed)
		raffles.GET("/rounds/:roundID", raffleHandler.HandleGetRound)
	}

	tick := s.Router.Group(basePath, middleware.RequireTickSecret(secrets.TickSecret, openWhenUnset))
	{
		tick.GET("/tick", tickHandler.HandleTick)
		tick.POST("/tick", tickHandler.HandleTick)
	}

	admin := s.Router.Group(basePath+"/admin", middleware.RequireAdminPin(secrets.AdminPin, openWhenUnset))
	{
		admin.GET("/creator-stats", adminHandler.HandleCreatorStats)
		admin.POST("/raffles", adminHandler.HandleCreateRaffle)
		admin.PUT("/raffles/:raffleID", adminHandler.HandleUpdateRaffle)
		admin.DELETE("/raffles/:raffleID", adminHandler.HandleDeleteRaffle)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Raffle API"
	docs.SwaggerInfo.Description = "Timed raffle rounds with automatic draws."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
