package rollup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/syncstock_backend/config"
	"bitbucket.org/mmdatafocus/syncstock_backend/models"
)

// Engine computes the daily inventory ledger rollup. A single Engine is safe
// to share; each Run keeps all of its window/merge/balance state local, and
// concurrent runs are serialized by the database advisory lock.
type Engine struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewEngine(db *gorm.DB, log *logrus.Logger) *Engine {
	return &Engine{DB: db, Log: log}
}

// RunResult reports what a run did. Skipped means another run held the lock
// and this one exited cleanly with zero side effects.
type RunResult struct {
	Skipped       bool      `json:"skipped"`
	Window        Window    `json:"-"`
	WindowStart   string    `json:"window_start,omitempty"`
	WindowEnd     string    `json:"window_end,omitempty"`
	Items         int       `json:"items"`
	LedgerRows    int       `json:"ledger_rows"`
	CorrelationID string    `json:"correlation_id"`
	StartedAt     time.Time `json:"started_at"`
}

// Run executes one rollup pass: select the window, fetch and merge the raw
// aggregates, resolve opening balances, roll the balances forward, and
// persist everything in one transaction. userStart, when non-nil, overrides
// the watermark-based resume (intentional reprocessing of history).
//
// The whole pass is pinned to one database connection: GET_LOCK is session
// scoped, and the reads feeding the transaction should see the same session
// state the transaction does. The lock is released on every exit path; a
// failed release is logged and otherwise ignored since the session owns it.
func (e *Engine) Run(ctx context.Context, userStart *time.Time) (RunResult, error) {
	res := RunResult{
		CorrelationID: uuid.NewString(),
		StartedAt:     time.Now().UTC(),
	}
	log := e.Log.WithFields(logrus.Fields{
		"module": "rollup",
		"run_id": res.CorrelationID,
	})
	log.Info("starting daily rollup")

	err := e.DB.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		got, err := acquireRunLock(conn)
		if err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		if !got {
			res.Skipped = true
			log.Warn("another rollup run is active; skipping")
			return nil
		}
		defer func() {
			if rerr := releaseRunLock(conn); rerr != nil {
				log.WithError(rerr).Warn("failed to release run lock")
			}
		}()

		return e.runLocked(conn, log, userStart, &res)
	})
	if err != nil {
		return res, err
	}

	log.WithFields(logrus.Fields{
		"skipped":     res.Skipped,
		"items":       res.Items,
		"ledger_rows": res.LedgerRows,
		"duration":    time.Since(res.StartedAt).String(),
	}).Info("daily rollup finished")
	return res, nil
}

func (e *Engine) runLocked(conn *gorm.DB, log *logrus.Entry, userStart *time.Time, res *RunResult) error {
	today, lastDone, err := loadClockAndWatermark(conn)
	if err != nil {
		return err
	}

	w, ok := SelectWindow(today, lastDone, userStart)
	res.Window = w
	res.WindowStart = w.Start.Format(dateLayout)
	res.WindowEnd = w.End.Format(dateLayout)
	if !ok {
		log.WithField("window", w.String()).Info("empty window; nothing to process")
		return nil
	}
	log.WithFields(logrus.Fields{
		"window": w.String(),
		"days":   w.Days(),
	}).Info("selected processing window")

	pRows, sRows, err := e.fetchDailyAggregates(conn, w)
	if err != nil {
		return err
	}

	merged, items := e.mergeDaily(pRows, sRows)
	res.Items = len(items)

	opening, err := e.openingBalances(conn, w.Start, items)
	if err != nil {
		return err
	}

	rows := rollForward(w, items, merged, opening)
	res.LedgerRows = len(rows)

	watermarkDay := w.End.AddDate(0, 0, -1)
	note := fmt.Sprintf("run %s: %d rows, %d items", res.CorrelationID, len(rows), len(items))

	txErr := conn.Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := upsertLedger(tx, rows); err != nil {
				return err
			}
			if err := advanceWatermark(tx, watermarkDay, note); err != nil {
				return err
			}
			return refreshStock(tx)
		}
		// Nothing moved; still advance the watermark so idle windows are not
		// reprocessed, but leave the snapshot alone.
		return advanceWatermark(tx, watermarkDay, note)
	})
	if txErr != nil {
		config.LogError(e.Log, "rollup", "runLocked", "rollup transaction", res.CorrelationID, txErr)
		// Transaction rolled back in full; leave a trace on the meta row so
		// operators can see the failure without trawling logs. Best-effort:
		// the original error is what matters.
		markErr := conn.Model(&models.SyncMeta{}).
			Where("id = ?", true).
			Updates(map[string]interface{}{
				"run_status": models.RunStatusFailed,
				"notes":      truncateNote(fmt.Sprintf("run %s: %v", res.CorrelationID, txErr), 500),
			}).Error
		if markErr != nil {
			log.WithError(markErr).Warn("failed to record FAILED run status")
		}
		return fmt.Errorf("rollup transaction: %w", txErr)
	}

	return nil
}

// loadClockAndWatermark reads today's date from the database clock (the
// window must follow the server's calendar, not this process's) and the
// current watermark, which may be absent on a fresh install.
func loadClockAndWatermark(conn *gorm.DB) (time.Time, *time.Time, error) {
	var clock struct {
		Today time.Time `gorm:"column:today"`
	}
	if err := conn.Raw("SELECT CURRENT_DATE() AS today").Scan(&clock).Error; err != nil {
		return time.Time{}, nil, fmt.Errorf("read database clock: %w", err)
	}

	var meta models.SyncMeta
	err := conn.Where("id = ?", true).Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return clock.Today, nil, nil
	}
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("read watermark: %w", err)
	}
	return clock.Today, meta.LastSalesDayDone, nil
}

func truncateNote(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
