package router

import (
	"time"

	"heladeria/internal/carrito"
	"heladeria/internal/config"
	"heladeria/internal/geo"
	"heladeria/internal/handler"
	"heladeria/internal/middleware"
	"heladeria/internal/model"
	"heladeria/internal/realtime"
	"heladeria/internal/repository"
	"heladeria/internal/service"
	"heladeria/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide pieces built in main and shared with workers.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Gate      geo.Gate
	Hub       *realtime.Hub
	Publisher realtime.Publisher
	Cola      worker.Encolador
	Geocoder  handler.Geocoder
	Registry  *prometheus.Registry

	LoginLimiter    *middleware.Limiter
	CheckoutLimiter *middleware.Limiter
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())

	// ── Repositories ─────────────────────────────────────────────────────────
	tx := repository.NewTransactor(d.DB)
	usuarioRepo := repository.NewUsuarioRepository(d.DB)
	catalogoRepo := repository.NewCatalogoRepository(d.DB)
	pedidoRepo := repository.NewPedidoRepository(d.DB)
	cajaRepo := repository.NewCajaRepository(d.DB)
	ventaRepo := repository.NewVentaPOSRepository(d.DB)
	tiendaRepo := repository.NewTiendaRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	ledgerSvc := service.NewLedgerService(cajaRepo, tx)
	cajaSvc := service.NewCajaService(cajaRepo, ventaRepo, tx)
	pedidoSvc := service.NewPedidoService(pedidoRepo, catalogoRepo, tx, d.Gate, d.Publisher, d.Cola)
	ventaSvc := service.NewVentaService(ventaRepo, cajaRepo, catalogoRepo, pedidoRepo, ledgerSvc, tx, d.Publisher)
	store := carrito.NewRedisStore(d.Redis, time.Duration(cfg.CarritoTTLHours)*time.Hour)
	carritoSvc := service.NewCarritoService(store, catalogoRepo, pedidoSvc)
	tiendaSvc := service.NewTiendaService(tiendaRepo, d.Redis, cfg.TiendaAbiertaDefault, d.Publisher)
	menuSvc := service.NewMenuService(catalogoRepo, tiendaSvc, d.Redis)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	cajaH := handler.NewCajaHandler(cajaSvc, ledgerSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	pedidosH := handler.NewPedidosHandler(pedidoSvc)
	carritoH := handler.NewCarritoHandler(carritoSvc)
	geoH := handler.NewGeoHandler(d.Gate, d.Geocoder)
	tiendaH := handler.NewTiendaHandler(tiendaSvc, menuSvc)
	adminH := handler.NewAdminHandler(ledgerSvc, menuSvc, d.Redis)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.Hub))
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", d.LoginLimiter.Middleware(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.GET("/me", middleware.JWTAuth(cfg.JWTSecret), authH.Me)
	}

	pub := r.Group("/v1")
	{
		pub.GET("/menu", tiendaH.Menu)
		pub.GET("/geo/verificar", geoH.Verificar)

		cart := pub.Group("/carrito")
		{
			cart.GET("", carritoH.Ver)
			cart.POST("/items", carritoH.Agregar)
			cart.DELETE("/items/:key", carritoH.Quitar)
			cart.DELETE("", carritoH.Vaciar)
			cart.POST("/checkout", d.CheckoutLimiter.Middleware(), carritoH.Checkout)
		}
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	staff := middleware.RequireRole(model.RolStaff, model.RolAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		pedidos := v1.Group("/pedidos", staff)
		{
			pedidos.GET("", pedidosH.Listar)
			pedidos.GET("/:id", pedidosH.Obtener)
			pedidos.PATCH("/:id/estado", pedidosH.ActualizarEstado)
		}
		// Delivery staff confirm orders from their own app
		v1.POST("/pedidos/:id/confirmar",
			middleware.RequireRole(model.RolStaff, model.RolAdmin, model.RolCadete), pedidosH.Confirmar)

		caja := v1.Group("/caja", staff)
		{
			caja.POST("/abrir", cajaH.Abrir)
			caja.POST("/:id/cerrar", cajaH.Cerrar)
			caja.GET("/activa", cajaH.GetActiva)
			caja.GET("/:id/reporte", cajaH.Reporte)
			caja.GET("/historial", cajaH.Historial)
			caja.POST("/movimiento", cajaH.RegistrarMovimiento)
		}

		pos := v1.Group("/pos", staff)
		{
			pos.POST("/ventas", ventasH.RegistrarVenta)
			pos.POST("/ventas/:id/asentar", ventasH.Asentar)
		}

		tienda := v1.Group("/tienda", staff)
		{
			tienda.GET("/estado", tiendaH.GetEstado)
			tienda.PUT("/estado", tiendaH.SetEstado)
		}

		admin := v1.Group("/admin", middleware.RequireRole(model.RolAdmin))
		{
			admin.POST("/ledger/dedupe", adminH.DedupeLedger)
			admin.DELETE("/productos/:id", adminH.EliminarProducto)
			admin.GET("/dlq", adminH.ListarDLQ)
			admin.POST("/dlq/reintentar", adminH.ReintentarDLQ)
		}
	}

	// WebSockets: browsers cannot set headers, JWTAuth also reads ?access_token=
	ws := r.Group("/ws", jwtMW)
	{
		ws.GET("/pedidos/notifications/", staff, handler.Notificaciones(d.Hub, realtime.GrupoPedidos))
		ws.GET("/cadete/notifications/",
			middleware.RequireRole(model.RolCadete, model.RolStaff, model.RolAdmin),
			handler.Notificaciones(d.Hub, realtime.GrupoCadetes))
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
