package router

import (
	"net/http"
	"strings"
	"time"

	"ledger/api"
	"ledger/archive"
	"ledger/cache"
	"ledger/config"
	_ "ledger/docs"
	"ledger/events"
	"ledger/middleware"
	"ledger/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps are the collaborators shared by the handlers. Cache and Archive may be nil.
type Deps struct {
	Verifier  *middleware.Verifier
	Mailer    service.Mailer
	Cache     *cache.Cache
	Publisher events.Publisher
	Archive   *archive.Archive
}

// SetupRouter registers every route
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	authHandler := api.NewAuthHandler(cfg, deps.Verifier, deps.Mailer, deps.Publisher)
	categoryHandler := api.NewCategoryHandler(deps.Verifier, deps.Cache, deps.Publisher, deps.Archive)
	transactionHandler := api.NewTransactionHandler(deps.Verifier, deps.Publisher, deps.Archive)
	userHandler := api.NewUserHandler(deps.Verifier)
	groupHandler := api.NewGroupHandler(deps.Verifier)
	exportHandler := api.NewExportHandler(deps.Verifier)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a := r.Group("/api")
	{
		a.POST("/register", authHandler.Register)
		a.POST("/admin", authHandler.RegisterAdmin)
		a.POST("/login", middleware.LoginRateLimit(10, time.Minute), authHandler.Login)
		a.GET("/logout", authHandler.Logout)

		a.GET("/categories", categoryHandler.ListCategories)
		a.POST("/categories", categoryHandler.CreateCategory)
		a.PATCH("/categories/:type", categoryHandler.UpdateCategory)
		a.DELETE("/categories", categoryHandler.DeleteCategories)

		a.GET("/users", userHandler.ListUsers)
		a.GET("/users/:username", userHandler.GetUser)
		a.POST("/users/:username/transactions", transactionHandler.CreateTransaction)
		a.GET("/users/:username/transactions", transactionHandler.ListUserTransactions)
		a.GET("/users/:username/transactions/category/:category", transactionHandler.ListUserCategoryTransactions)
		a.DELETE("/users/:username/transactions", transactionHandler.DeleteTransaction)

		a.GET("/transactions", transactionHandler.ListTransactions)
		a.DELETE("/transactions", transactionHandler.DeleteTransactions)
		a.GET("/transactions/export", exportHandler.ExportTransactions)
		a.GET("/transactions/archive", transactionHandler.ListDeletedTransactions)
		a.GET("/transactions/users/:username", transactionHandler.AdminListUserTransactions)
		a.GET("/transactions/users/:username/category/:category", transactionHandler.AdminListUserCategoryTransactions)
		a.GET("/transactions/groups/:name", transactionHandler.AdminListGroupTransactions)
		a.GET("/transactions/groups/:name/category/:category", transactionHandler.AdminListGroupCategoryTransactions)

		a.POST("/groups", groupHandler.CreateGroup)
		a.GET("/groups", groupHandler.ListGroups)
		a.GET("/groups/:name", groupHandler.GetGroup)
		a.PATCH("/groups/:name/add", groupHandler.AddMembers)
		a.PATCH("/groups/:name/insert", groupHandler.InsertMembers)
		a.GET("/groups/:name/transactions", transactionHandler.ListGroupTransactions)
		a.GET("/groups/:name/transactions/category/:category", transactionHandler.ListGroupCategoryTransactions)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware lets the listed origins make credentialed requests. Other
// origins get no CORS headers and their preflights are refused.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Writer.Header().Add("Vary", "Origin")
		}
		if origin == "" || !allowed[origin] {
			if origin != "" && c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
