package http

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	appsvc "gophercalc/internal/app"
	"gophercalc/internal/bootstrap"
	"gophercalc/internal/cache"
	"gophercalc/internal/config"
	"gophercalc/internal/observability"
	"gophercalc/internal/platform/rabbitmq"
	"gophercalc/internal/repository"
	"gophercalc/internal/transport/http/handler"
	"gophercalc/internal/transport/http/middleware"
)

var jsonFieldNamesOnce sync.Once

// useJSONFieldNames switches validator field reporting to json tag
// names so validation errors name the keys the client actually sent.
func useJSONFieldNames() {
	jsonFieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

type routerDeps struct {
	cfg     *config.Config
	logger  *logrus.Logger
	metrics *observability.Metrics
	auth    *appsvc.AuthService
	users   *appsvc.UserService
	calcs   *appsvc.CalculationService
	health  *handler.HealthHandler
}

// NewRouter wires repositories, services and handlers over the
// bootstrapped platform connections.
func NewRouter(app *bootstrap.App) *gin.Engine {
	userRepo := repository.NewUserRepository(app.MySQL)
	calcRepo := repository.NewCalculationRepository(app.MySQL)
	publisher := rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.AuthEventQueue)
	historyCache := cache.NewCalculationCache(app.Redis, time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second)

	authService := appsvc.NewAuthService(userRepo, publisher, app.Logger, app.Metrics, app.Config.Auth)
	userService := appsvc.NewUserService(userRepo, app.Logger)
	calcService := appsvc.NewCalculationService(calcRepo, historyCache, app.Logger, app.Metrics)

	return newRouter(routerDeps{
		cfg:     app.Config,
		logger:  app.Logger,
		metrics: app.Metrics,
		auth:    authService,
		users:   userService,
		calcs:   calcService,
		health:  handler.NewHealthHandler(app),
	})
}

func newRouter(deps routerDeps) *gin.Engine {
	gin.SetMode(deps.cfg.App.GinMode)
	useJSONFieldNames()

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(deps.logger),
		gin.Recovery(),
		middleware.Metrics(deps.metrics),
	)

	router.GET("/healthz", deps.health.Check)
	router.GET("/metrics", gin.WrapH(deps.metrics.Handler()))

	authHandler := handler.NewAuthHandler(deps.auth)
	userHandler := handler.NewUserHandler(deps.users)
	calcHandler := handler.NewCalculationHandler(deps.calcs)

	guard := middleware.AuthJWT(deps.auth, deps.metrics)

	users := router.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.GET("/me", guard, authHandler.Me)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", guard, userHandler.Update)
	users.DELETE("/:id", guard, userHandler.Delete)

	calcs := router.Group("/calculations")
	calcs.Use(guard)
	calcs.POST("", calcHandler.Create)
	calcs.GET("", calcHandler.List)
	calcs.GET("/:id", calcHandler.Get)
	calcs.PUT("/:id", calcHandler.Update)
	calcs.PATCH("/:id", calcHandler.Update)
	calcs.DELETE("/:id", calcHandler.Delete)

	return router
}
