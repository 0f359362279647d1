package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/syncstock_backend/config"
	"bitbucket.org/mmdatafocus/syncstock_backend/models"
	"bitbucket.org/mmdatafocus/syncstock_backend/rollup"
)

const webhookLockKey = "syncstock:webhook"

type syncRequest struct {
	StartDate *string `json:"start_date"`
}

func main() {
	logger := config.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithField("module", "server.go").Fatal(err.Error())
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.WithField("module", "server.go").Fatal(err.Error())
	}
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	if !cfg.SkipMigrations {
		if err := models.MigrateTable(db); err != nil {
			logger.WithField("module", "server.go").Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	rdb, locker := config.ConnectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	engine := rollup.NewEngine(db, logger)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "syncstock"})
	})
	r.GET("/sync/status", syncStatusHandler(engine))
	r.POST("/sync", triggerSyncHandler(engine, locker, cfg.SyncTimeout, logger))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{"port": cfg.Port}).Info("syncstock webhook server started")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// triggerSyncHandler runs one rollup pass synchronously. The caller waits up
// to timeout for the run to finish; on timeout the run keeps going and the
// caller gets a 408. A short-TTL redis lock is obtained best-effort first to
// avoid long in-request blocking when a run is obviously active; if redis is
// unavailable the MySQL advisory lock inside the engine still serializes.
func triggerSyncHandler(engine *rollup.Engine, locker *redislock.Client, timeout time.Duration, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userStart, ok := startDateFromRequest(c)
		if !ok {
			return
		}

		if locker != nil {
			lock, err := locker.Obtain(c.Request.Context(), webhookLockKey, timeout, nil)
			switch {
			case err == redislock.ErrNotObtained:
				logger.WithField("module", "server.go").Warn("could not obtain redis webhook lock; proceeding, advisory lock decides")
			case err != nil:
				logger.WithField("module", "server.go").Warn("error obtaining redis webhook lock; proceeding: " + err.Error())
			default:
				defer func() {
					if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
						logger.WithField("module", "server.go").Warn("failed to release redis webhook lock: " + releaseErr.Error())
					}
				}()
			}
		}

		type runOutcome struct {
			res rollup.RunResult
			err error
		}
		done := make(chan runOutcome, 1)
		go func() {
			// Deliberately not the request context: a disconnecting caller
			// must not cancel a half-finished rollup.
			res, err := engine.Run(context.Background(), userStart)
			done <- runOutcome{res: res, err: err}
		}()

		select {
		case out := <-done:
			if out.err != nil {
				config.LogError(logger, "server.go", "triggerSyncHandler", "rollup run", out.res.CorrelationID, out.err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"status":  "error",
					"message": "rollup run failed",
					"error":   out.err.Error(),
				})
				return
			}
			if out.res.Skipped {
				c.JSON(http.StatusConflict, gin.H{
					"status":  "skipped",
					"message": "another rollup run is already active",
				})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"status": "success",
				"result": out.res,
			})
		case <-time.After(timeout):
			c.JSON(http.StatusRequestTimeout, gin.H{
				"status":  "error",
				"message": "rollup run timed out; it continues in the background",
			})
		}
	}
}

// startDateFromRequest extracts the optional resume date from a JSON body,
// a form field, or the raw request body. Malformed dates are rejected with
// 400 here instead of silently falling back to the default window.
func startDateFromRequest(c *gin.Context) (*time.Time, bool) {
	var raw string
	if strings.Contains(c.ContentType(), "application/json") {
		var req syncRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return nil, false
		}
		if req.StartDate != nil {
			raw = strings.TrimSpace(*req.StartDate)
		}
	} else {
		raw = strings.TrimSpace(c.PostForm("start_date"))
		if raw == "" {
			body, _ := io.ReadAll(c.Request.Body)
			raw = strings.TrimSpace(string(body))
		}
	}

	if raw == "" {
		return nil, true
	}
	d, err := rollup.ParseStartDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Invalid date format",
			"expected": "ISO date format (YYYY-MM-DD)",
		})
		return nil, false
	}
	return d, true
}

func syncStatusHandler(engine *rollup.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var meta models.SyncMeta
		if err := engine.DB.WithContext(c.Request.Context()).
			Where("id = ?", true).Take(&meta).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "no sync meta found"})
			return
		}

		var lastDone *string
		if meta.LastSalesDayDone != nil {
			s := meta.LastSalesDayDone.Format("2006-01-02")
			lastDone = &s
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data": gin.H{
				"last_sales_day_done": lastDone,
				"run_status":          meta.RunStatus,
				"notes":               meta.Notes,
				"updated_at":          meta.UpdatedAt,
			},
		})
	}
}
