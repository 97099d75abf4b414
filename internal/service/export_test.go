package service

import "time"

// SetSchedulerClock replaces the scheduler's time source.
func SetSchedulerClock(s *BackupScheduler, now func() time.Time) {
	s.now = now
}
