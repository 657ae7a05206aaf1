package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"paper-board/auth"
	"paper-board/config"
	"paper-board/models"
	"paper-board/services"
	"paper-board/storage"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	papersUploadedCounter    prometheus.Counter
	reviewsSubmittedCounter  prometheus.Counter
	analysesCompletedCounter prometheus.Counter
	analysesFailedCounter    prometheus.Counter
)

func init() {
	papersUploadedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_uploaded_total",
			Help: "Total number of papers uploaded to the platform.",
		},
	)
	reviewsSubmittedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviews_submitted_total",
			Help: "Total number of reviews submitted.",
		},
	)
	analysesCompletedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_analyses_completed_total",
			Help: "Total number of successful AI paper analyses.",
		},
	)
	analysesFailedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_analyses_failed_total",
			Help: "Total number of failed AI paper analyses.",
		},
	)
	prometheus.MustRegister(papersUploadedCounter, reviewsSubmittedCounter,
		analysesCompletedCounter, analysesFailedCounter)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(
		&models.User{}, &models.Company{}, &models.Paper{},
		&models.PaperCompany{}, &models.Review{}, &models.Complaint{},
	); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	// Setup Services
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	dashboardService := services.NewDashboardService(db, logging)
	analysisService := services.NewAnalysisService(cfg, db, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(auth.Identify(db, cfg.JWTSecret))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupAuthRoutes(router, db, cfg, logging)
	setupDashboardRoutes(router, dashboardService, logging)
	setupPaperRoutes(router, db, s3Client, cfg, analysisService, logging)
	setupReviewRoutes(router, db, logging)
	setupCompanyRoutes(router, db, logging)
	setupComplaintRoutes(router, db, logging)

	// Setup Cron: re-run pending/failed AI analyses.
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled analysis sweep...")
		count, err := analysisService.SweepPending(context.Background())
		if err != nil {
			logging.Error("Analysis sweep failed", zap.Error(err))
		} else {
			logging.Info("Analysis sweep completed", zap.Int("analyzed", count))
			analysesCompletedCounter.Add(float64(count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupAuthRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/auth")
	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour

	rg.POST("/register", func(c *gin.Context) {
		var req struct {
			Name      string `json:"name" binding:"required"`
			Email     string `json:"email" binding:"required,email"`
			Role      string `json:"role" binding:"required"`
			CompanyID *uint  `json:"company_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if !models.ValidRole(req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
			return
		}

		// Company accounts link to their company row at registration.
		if req.Role == models.RoleCompany {
			if req.CompanyID == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "company accounts require company_id"})
				return
			}
			var company models.Company
			if err := db.First(&company, *req.CompanyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusBadRequest, gin.H{"error": "company not found"})
					return
				}
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
				return
			}
		}

		var existing models.User
		err := db.Where("email = ?", req.Email).First(&existing).Error
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "account with this email already exists"})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		user := models.User{Name: req.Name, Email: req.Email, Role: req.Role, CompanyID: req.CompanyID}
		if err := db.Create(&user).Error; err != nil {
			log.Error("Failed to create user", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		token, err := auth.GenerateToken(cfg.JWTSecret, user.ID, user.Role, tokenTTL)
		if err != nil {
			log.Error("Token generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
	})

	rg.POST("/login", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no account for this email"})
				return
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		token, err := auth.GenerateToken(cfg.JWTSecret, user.ID, user.Role, tokenTTL)
		if err != nil {
			log.Error("Token generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	})
}

func setupDashboardRoutes(router *gin.Engine, svc *services.DashboardService, log *zap.Logger) {
	router.GET("/dashboard", func(c *gin.Context) {
		filters := services.DashboardFilters{
			Search:   c.Query("search"),
			Domain:   c.Query("domain"),
			Company:  c.Query("company"),
			MinScore: c.Query("min_score"),
			Sort:     c.Query("sort"),
		}

		result, err := svc.ComputeDashboard(c.Request.Context(), filters, auth.CurrentUser(c))
		if err != nil {
			log.Error("Dashboard computation failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func setupPaperRoutes(router *gin.Engine, db *gorm.DB, s3Client *awss3.Client, cfg *config.Config, analysis *services.AnalysisService, log *zap.Logger) {
	rg := router.Group("/papers")

	rg.POST("/", func(c *gin.Context) {
		user := auth.RequireUser(c)
		if user == nil {
			return
		}

		title := c.PostForm("title")
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "'title' field is required"})
			return
		}

		// Resolve the facility up front so a bad id never leaves a paper behind.
		var facilityCompanyID *uint
		if raw := c.PostForm("facility_company_id"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid facility_company_id"})
				return
			}
			id := uint(parsed)
			facilityCompanyID = &id
		}

		now := time.Now()
		paper := models.Paper{
			UserID:     user.ID,
			Title:      title,
			Abstract:   c.PostForm("abstract"),
			Domain:     c.PostForm("domain"),
			UploadDate: &now,
			AIStatus:   models.AIStatusPending,
		}

		// Optional PDF goes to object storage under a fresh key.
		if fileHeader, err := c.FormFile("pdf"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
				return
			}
			link, err := storage.UploadPaperPDF(c.Request.Context(), s3Client, cfg, data)
			if err != nil {
				log.Error("PDF upload to object storage failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "file storage failed"})
				return
			}
			paper.S3Link = link
		}

		if err := services.CreatePaperWithFacility(db, &paper, facilityCompanyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "facility company not found"})
				return
			}
			log.Error("Failed to create paper", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		papersUploadedCounter.Inc()
		log.Info("Paper uploaded", zap.Uint("paper_id", paper.ID), zap.String("title", paper.Title))
		c.JSON(http.StatusCreated, paper)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")
		var paper models.Paper
		if err := db.First(&paper, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			log.Error("DB error fetching paper", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		var reviews []models.Review
		if err := db.Where("paper_id = ?", paper.ID).Order("id").Find(&reviews).Error; err != nil {
			log.Error("DB error fetching reviews", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		stats := services.AggregateScores(reviews)

		c.JSON(http.StatusOK, gin.H{
			"paper":   paper,
			"reviews": reviews,
			"stats":   stats[paper.ID],
		})
	})

	rg.PUT("/:id/facility", func(c *gin.Context) {
		user := auth.RequireUser(c)
		if user == nil {
			return
		}
		id := c.Param("id")

		var paper models.Paper
		if err := db.First(&paper, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		if paper.UserID != user.ID && user.Role != models.RoleAdmin && user.Role != models.RoleFounder {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the paper owner"})
			return
		}

		var req struct {
			CompanyID uint `json:"company_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := services.SetFacility(db, paper.ID, req.CompanyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "facility company not found"})
				return
			}
			log.Error("Failed to set facility link", zap.Uint("paper_id", paper.ID), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"paper_id": paper.ID, "facility_company_id": req.CompanyID})
	})

	rg.POST("/:id/analyze", func(c *gin.Context) {
		user := auth.RequireUser(c)
		if user == nil {
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper id"})
			return
		}
		var paper models.Paper
		if err := db.First(&paper, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		go func(paperID uint) {
			if err := analysis.AnalyzePaper(context.Background(), paperID); err != nil {
				analysesFailedCounter.Inc()
				log.Error("Async paper analysis failed", zap.Uint("paper_id", paperID), zap.Error(err))
				return
			}
			analysesCompletedCounter.Inc()
		}(paper.ID)

		c.JSON(http.StatusAccepted, gin.H{"message": "Analysis triggered.", "paper_id": paper.ID})
	})
}

func setupReviewRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	router.POST("/papers/:id/reviews", func(c *gin.Context) {
		user := auth.RequireUser(c)
		if user == nil {
			return
		}

		var paper models.Paper
		if err := db.First(&paper, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		var req struct {
			Score   *float64 `json:"score"`
			Comment string   `json:"comment"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.Score == nil && req.Comment == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "review needs a score or a comment"})
			return
		}
		if req.Score != nil && (*req.Score < 0 || *req.Score > 10) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "score must be between 0.0 and 10.0"})
			return
		}

		review := models.Review{
			PaperID:    paper.ID,
			ReviewerID: user.ID,
			Score:      req.Score,
			Comment:    req.Comment,
		}
		if user.Role == models.RoleCompany {
			review.CompanyID = user.CompanyID
		}

		if err := db.Create(&review).Error; err != nil {
			log.Error("Failed to create review", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		reviewsSubmittedCounter.Inc()
		c.JSON(http.StatusCreated, review)
	})
}

func setupCompanyRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/companies")

	rg.GET("/", func(c *gin.Context) {
		var companies []models.Company
		if err := db.Order("name").Find(&companies).Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		c.JSON(http.StatusOK, companies)
	})

	rg.POST("/", func(c *gin.Context) {
		var company models.Company
		if err := c.ShouldBindJSON(&company); err != nil || company.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := db.Create(&company).Error; err != nil {
			log.Error("Failed to create company", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		c.JSON(http.StatusCreated, company)
	})

	// Toggle the current company account's interest bookmark on a paper.
	rg.POST("/interest/:paperID", func(c *gin.Context) {
		user := auth.RequireRole(c, models.RoleCompany)
		if user == nil {
			return
		}
		if user.CompanyID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account is not linked to a company"})
			return
		}

		var paper models.Paper
		if err := db.First(&paper, c.Param("paperID")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}

		interested, err := services.ToggleInterest(db, paper.ID, *user.CompanyID)
		if err != nil {
			log.Error("Failed to toggle interest link", zap.Uint("paper_id", paper.ID), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"paper_id": paper.ID, "interested": interested})
	})
}

func setupComplaintRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/complaints")

	rg.POST("/", func(c *gin.Context) {
		user := auth.RequireUser(c)
		if user == nil {
			return
		}
		var req struct {
			Subject string `json:"subject" binding:"required"`
			Body    string `json:"body"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'subject' field is required."})
			return
		}
		complaint := models.Complaint{
			UserID:  user.ID,
			Subject: req.Subject,
			Body:    req.Body,
			Status:  models.ComplaintOpen,
		}
		if err := db.Create(&complaint).Error; err != nil {
			log.Error("Failed to create complaint", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		c.JSON(http.StatusCreated, complaint)
	})

	rg.GET("/", func(c *gin.Context) {
		user := auth.RequireRole(c, models.RoleAdmin, models.RoleFounder)
		if user == nil {
			return
		}
		var complaints []models.Complaint
		query := db.Order("created_at desc")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if err := query.Find(&complaints).Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			return
		}
		c.JSON(http.StatusOK, complaints)
	})
}
