package main

import (
	"log"
	"net/http"
	_ "net/http/pprof" // Для профилирования памяти
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tailortally/server/internal/api"
	"tailortally/server/internal/config"
	"tailortally/server/internal/database"
	"tailortally/server/internal/models"
	"tailortally/server/internal/services"
	"tailortally/server/internal/utils"
)

func main() {
	// Загружаем переменные окружения из .env файла (если существует)
	// Игнорируем ошибку, если файл не найден (для production окружений)
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ .env файл не найден, используем переменные окружения системы")
	} else {
		log.Printf("✅ Переменные окружения загружены из .env файла")
	}

	// Загрузка конфигурации
	cfg := config.Load()

	// Логируем наличие DATABASE_URL (без пароля)
	if cfg.DatabaseURL != "" {
		safeURL := cfg.DatabaseURL
		if idx := strings.Index(safeURL, "@"); idx > 0 {
			if schemeIdx := strings.Index(safeURL, "://"); schemeIdx > 0 {
				safeURL = safeURL[:schemeIdx+3] + "***@" + safeURL[idx+1:]
			}
		}
		log.Printf("📋 DATABASE_URL установлен: %s", safeURL)
	} else {
		log.Printf("⚠️ DATABASE_URL не установлен, используется значение по умолчанию")
	}

	if cfg.KafkaBrokers != "" {
		log.Printf("📡 KAFKA_BROKERS установлен: %s", cfg.KafkaBrokers)
	} else {
		log.Printf("⚠️ KAFKA_BROKERS не установлен, события заказов отправляться не будут")
	}

	// Подключение к PostgreSQL
	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Printf("❌ PostgreSQL connection failed: %v", err)
		log.Printf("⚠️ Продолжаем без БД (ограниченная функциональность)")
		db = nil
	} else {
		defer database.ClosePostgres(db)

		// Выполняем миграции и инициализируем пароль администратора
		if err := models.AutoMigrate(db); err != nil {
			log.Printf("❌ Migration failed: %v", err)
			log.Printf("⚠️ Continuing with limited functionality")
		} else {
			log.Println("✅ Database migrations completed")
		}
		if err := models.EnsureAdminPassword(db, cfg.AdminDefaultPassword); err != nil {
			log.Printf("⚠️ Ошибка инициализации пароля администратора: %v", err)
		}
	}

	// Подключение к Redis (с поддержкой Sentinel)
	redisClient, err := database.ConnectRedis(
		cfg.RedisURL,
		cfg.RedisSentinelAddrs,
		cfg.RedisMasterName,
	)
	var redisUtil *utils.RedisClient
	if err != nil {
		log.Printf("⚠️ Redis connection failed: %v (continuing without Redis)", err)
		redisClient = nil
		redisUtil = nil
	} else {
		redisUtil = utils.NewRedisClient(redisClient)
	}
	defer database.CloseRedis(redisClient)

	// Сервис уведомлений (симуляция email)
	notifyService := services.NewNotifyService(cfg.NotifyEmail)

	// Инициализация сервиса каталога и загрузка снимка из БД
	var catalogService *services.CatalogService
	if db != nil {
		catalogService = services.NewCatalogService(db, redisUtil)
		if err := catalogService.LoadCatalog(); err != nil {
			log.Printf("⚠️ Failed to load catalog from DB: %v", err)
		} else {
			log.Println("✅ Catalog loaded from database")
			// Автообновление снимка (Redis Pub/Sub + fallback таймер)
			catalogService.StartAutoReload()
		}
	} else {
		log.Println("⚠️ Catalog service not started: PostgreSQL not available")
	}

	// Справочники портных и школ
	var tailorService *services.TailorService
	var schoolService *services.SchoolService
	if db != nil {
		tailorService = services.NewTailorService(db)
		schoolService = services.NewSchoolService(db)
		log.Println("✅ Tailor and School services initialized")
	} else {
		log.Println("⚠️ Tailor/School services not started: PostgreSQL not available")
	}

	// Сервис заказов (с Kafka producer для событий)
	var orderService *services.OrderService
	if db != nil && catalogService != nil {
		orderService = services.NewOrderService(db, catalogService, schoolService, redisUtil, notifyService, cfg.KafkaBrokers)
		defer orderService.Close()
		log.Println("✅ Order service initialized")
	} else {
		log.Println("⚠️ Order service not started: PostgreSQL not available")
	}

	// Сервис настроек (пароль администратора)
	var settingsService *services.SettingsService
	if db != nil {
		settingsService = services.NewSettingsService(db)
		log.Println("✅ Settings service initialized")
	}

	// Сервис дашборда (кэш статистики в Redis)
	var dashboardService *services.DashboardService
	if db != nil {
		dashboardService = services.NewDashboardService(db, redisUtil, cfg.StatsCacheTTL)
		log.Println("✅ Dashboard service initialized")
	}

	// Сервис импорта прайс-листов
	var importService *services.ImportService
	if db != nil && catalogService != nil {
		importService = services.NewImportService(db, catalogService)
		log.Println("✅ Import service initialized")
	}

	// Отключаем gin-логи, у нас свое логирование запросов
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Health check endpoint (должен быть до CORS для Railway)
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "Tailor Tally Server",
			"version": "1.0.0",
		})
	})

	// Логирование всех запросов
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Printf("🌐 %s %s - Status: %d - Latency: %v", method, path, status, latency)
	})

	// CORS для фронтенда
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Password")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// API routes
	apiGroup := r.Group("/api/v1")

	// Каталог изделий
	if catalogService != nil {
		catalogController := api.NewCatalogController(catalogService)
		catalogGroup := apiGroup.Group("/catalog")
		{
			catalogGroup.GET("", catalogController.GetCatalog)            // Снимок каталога
			catalogGroup.POST("/reload", catalogController.ReloadCatalog) // Принудительная перезагрузка

			catalogGroup.POST("/products", catalogController.CreateProduct)       // Создать изделие
			catalogGroup.PUT("/products/:id", catalogController.UpdateProduct)    // Обновить изделие
			catalogGroup.DELETE("/products/:id", catalogController.DeleteProduct) // Удалить изделие

			catalogGroup.POST("/sizes", catalogController.CreateSize)       // Создать размер
			catalogGroup.PUT("/sizes/:id", catalogController.UpdateSize)    // Обновить размер
			catalogGroup.DELETE("/sizes/:id", catalogController.DeleteSize) // Удалить размер

			catalogGroup.POST("/rules", catalogController.CreateMaterialRule)       // Создать правило расхода
			catalogGroup.PUT("/rules/:id", catalogController.UpdateMaterialRule)    // Обновить правило расхода
			catalogGroup.DELETE("/rules/:id", catalogController.DeleteMaterialRule) // Удалить правило расхода

			// Импорт прайс-листов
			if importService != nil {
				importController := api.NewImportController(importService)
				catalogGroup.POST("/import", importController.ImportRules) // Импорт CSV/XLSX
				log.Println("📥 Import endpoint enabled: /api/v1/catalog/import")
			}
		}
		log.Println("📋 Catalog endpoints enabled: /api/v1/catalog")
	} else {
		log.Println("⚠️ Catalog endpoints not enabled: PostgreSQL not available")
	}

	// Портные
	if tailorService != nil {
		tailorController := api.NewTailorController(tailorService)
		tailorGroup := apiGroup.Group("/tailors")
		{
			tailorGroup.GET("", tailorController.GetTailors)          // Список портных
			tailorGroup.POST("", tailorController.CreateTailor)       // Создать портного
			tailorGroup.GET("/:id", tailorController.GetTailor)       // Получить портного
			tailorGroup.PUT("/:id", tailorController.UpdateTailor)    // Обновить портного
			tailorGroup.DELETE("/:id", tailorController.DeleteTailor) // Удалить портного
		}
		log.Println("🧵 Tailor endpoints enabled: /api/v1/tailors")
	}

	// Школы
	if schoolService != nil {
		schoolController := api.NewSchoolController(schoolService)
		schoolGroup := apiGroup.Group("/schools")
		{
			schoolGroup.GET("", schoolController.GetSchools)          // Список школ
			schoolGroup.POST("", schoolController.CreateSchool)       // Создать школу
			schoolGroup.PUT("/:id", schoolController.UpdateSchool)    // Обновить школу
			schoolGroup.DELETE("/:id", schoolController.DeleteSchool) // Удалить школу
		}
		log.Println("🏫 School endpoints enabled: /api/v1/schools")
	}

	// Заказы
	if orderService != nil && settingsService != nil {
		orderController := api.NewOrderController(orderService, settingsService)
		orderGroup := apiGroup.Group("/orders")
		{
			orderGroup.POST("", orderController.CreateOrder) // Создать заказ
			orderGroup.GET("", orderController.GetOrders)    // Список заказов (поиск по портному)
			orderGroup.GET("/:id", orderController.GetOrder) // Заказ с группировкой строк

			// Удаление заказов и правки строк требуют заголовок X-Admin-Password
			orderGroup.DELETE("/:id", orderController.DeleteOrder) // Удалить заказ
			orderGroup.PUT("/lines/:line_id", orderController.UpdateLine)    // Править строку
			orderGroup.DELETE("/lines/:line_id", orderController.DeleteLine) // Удалить строку

			orderGroup.POST("/lines/:line_id/deliveries", orderController.RecordDelivery) // Зафиксировать сдачу
		}
		log.Println("📦 Order endpoints enabled: /api/v1/orders")
	} else {
		log.Println("⚠️ Order endpoints not enabled: PostgreSQL not available")
	}

	// Дашборд
	if dashboardService != nil {
		dashboardController := api.NewDashboardController(dashboardService)
		apiGroup.GET("/dashboard/stats", dashboardController.GetStats) // Сводка мастерской
		log.Println("📊 Dashboard endpoints enabled: /api/v1/dashboard/stats")
	}

	// Администрирование (пароль для правок заказов)
	if settingsService != nil {
		adminController := api.NewAdminController(settingsService)
		adminGroup := apiGroup.Group("/admin")
		{
			adminGroup.POST("/verify-password", adminController.VerifyPassword) // Проверить пароль
			adminGroup.POST("/change-password", adminController.ChangePassword) // Сменить пароль
		}
		log.Println("🔐 Admin endpoints enabled: /api/v1/admin")
	}

	// Запускаем WebSocket Hub для экранов дашборда
	go api.DashboardHub.Run()
	log.Println("🖥 WebSocket Hub запущен для дашборда")

	// WebSocket для дашборда
	apiGroup.GET("/ws", api.ServeWS)

	// Kafka Consumer: события заказов -> счетчики Redis + WebSocket дашборда
	if cfg.KafkaBrokers != "" {
		kafkaConsumer := api.NewKafkaWSConsumer(cfg.KafkaBrokers, services.OrderEventsTopic, redisUtil, cfg.KafkaUsername, cfg.KafkaPassword, cfg.KafkaCACert)
		kafkaConsumer.Start()
		defer kafkaConsumer.Stop()
	} else {
		log.Println("⚠️ Kafka WS Consumer НЕ запущен: KAFKA_BROKERS не установлен")
	}

	// Запуск HTTP сервера для pprof (профилирование памяти)
	// Доступен на http://localhost:6060/debug/pprof/
	go func() {
		pprofPort := "6060"
		log.Printf("🔍 pprof доступен на http://localhost:%s/debug/pprof/", pprofPort)
		if err := http.ListenAndServe("localhost:"+pprofPort, nil); err != nil {
			log.Printf("⚠️ pprof server failed to start: %v", err)
		}
	}()

	// Периодическое логирование статистики памяти
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			logMemoryStats()
		}
	}()

	port := cfg.ServerPort
	log.Printf("🚀 Server starting on port %s", port)
	log.Printf("📡 API доступен на http://0.0.0.0:%s/api/v1", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// logMemoryStats логирует текущую статистику использования памяти
func logMemoryStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	heapAllocMB := float64(m.HeapAlloc) / 1024 / 1024
	heapSysMB := float64(m.HeapSys) / 1024 / 1024
	sysMB := float64(m.Sys) / 1024 / 1024
	numGoroutines := runtime.NumGoroutine()

	log.Printf("💾 Memory Stats: HeapAlloc=%.2f MB, HeapSys=%.2f MB, Sys=%.2f MB, GC=%d, Goroutines=%d",
		heapAllocMB, heapSysMB, sysMB, m.NumGC, numGoroutines)

	if numGoroutines > 100 {
		log.Printf("⚠️ WARNING: High number of goroutines detected: %d (possible goroutine leak)", numGoroutines)
	}
}
