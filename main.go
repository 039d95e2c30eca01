package main

import (
	"log"

	"reportdeck/cache"
	"reportdeck/config"
	"reportdeck/db"
	"reportdeck/handlers"
	"reportdeck/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	cfg := config.GetConfig()

	// Initialize catalog store
	store, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Load query/menu/widget definitions from seed directory
	loaded, err := store.LoadCatalogFromDir(cfg.QueryDefsDir)
	if err != nil {
		log.Printf("Warning: failed to load catalog definitions: %v", err)
	} else if loaded > 0 {
		log.Printf("Loaded %d catalog records from %s", loaded, cfg.QueryDefsDir)
	}

	// Initialize cache
	appCache := cache.New()

	// Initialize SQL Server service (optional)
	var sqlService *service.SQLServerService
	if cfg.SQLServer.Server != "" && cfg.SQLServer.Database != "" {
		sqlService, err = service.NewSQLServerService(cfg.SQLServer, cfg.QueryTimeout)
		if err != nil {
			log.Printf("Warning: Failed to initialize SQL Server service: %v", err)
			log.Println("Query execution features will be unavailable")
		} else {
			defer sqlService.Close()
			log.Println("SQL Server service initialized successfully")
		}
	} else {
		log.Println("SQL Server not configured; query execution features will be unavailable")
	}

	dataService := service.NewDataService(sqlService, cfg.CountTimeout, cfg.DefaultPageLimit, cfg.MaxPageLimit)
	comparator := service.NewComparator(cfg.MaxSheetDiffs, cfg.MaxCompareCells, cfg.ClampedRowExtent)

	results, err := service.NewResultsStorage(cfg.ResultsDir)
	if err != nil {
		log.Fatalf("Failed to initialize results storage: %v", err)
	}

	// Initialize handlers
	h := handlers.New(store, dataService, comparator, results, appCache, sqlService, cfg)

	// Setup Gin router
	r := gin.Default()

	// CORS - allow all origins, headers and methods
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-User-Role"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS", "HEAD"}
	r.Use(cors.New(corsCfg))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Routes
	r.GET("/health", h.HealthHandler)

	// Query execution
	r.POST("/api/query/execute", h.ExecuteQueryHandler)
	r.POST("/api/query/filtered", h.FilteredQueryHandler)
	r.GET("/api/query/:id", h.GetQueryHandler)
	r.GET("/api/reports/menu/:id", h.ListReportsByMenuHandler)

	// Dashboard
	r.GET("/api/menu", h.MenuHandler)
	r.GET("/api/dashboard/widgets", h.DashboardWidgetsHandler)
	r.GET("/api/dashboard/kpis", h.KPIHandler)

	// Export and result files
	r.POST("/api/export", h.ExportHandler)
	r.GET("/api/results/files", h.ListResultFilesHandler)
	r.GET("/api/results/file/:filename", h.GetResultFileHandler)

	// Spreadsheet comparison
	r.POST("/api/excel-compare", h.CompareExcelHandler)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
