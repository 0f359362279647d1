package rollup

import (
	"gorm.io/gorm"
)

const runLockName = "syncstock:runlock"

// acquireRunLock serializes rollup runs across instances using a MySQL
// advisory lock, acquired non-blockingly (timeout 0). GET_LOCK is
// connection-scoped, so this must run on the same pinned connection that
// will do the transaction.
func acquireRunLock(conn *gorm.DB) (bool, error) {
	var got int
	if err := conn.Raw("SELECT GET_LOCK(?, 0)", runLockName).Scan(&got).Error; err != nil {
		return false, err
	}
	return got == 1, nil
}

// releaseRunLock is best-effort: the session dropping also releases the
// lock, so a failed release is logged by the caller and nothing more.
func releaseRunLock(conn *gorm.DB) error {
	var ok int
	return conn.Raw("SELECT RELEASE_LOCK(?)", runLockName).Scan(&ok).Error
}
