// Package cleanup removes stale upload and output files on a cron schedule.
// Both directories hold ephemeral artifacts: uploads are deleted right after
// a successful job and outputs shortly after download, so the sweeper is a
// backstop for abandoned files.
package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"tagsheet/internal/config"

	"github.com/robfig/cron/v3"
)

func StartRetentionSweeper(cfg config.Config) {
	maxAge := time.Duration(cfg.RetentionHours) * time.Hour

	c := cron.New()
	_, err := c.AddFunc(cfg.CleanupSchedule, func() {
		for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
			removed, err := Sweep(dir, maxAge)
			if err != nil {
				log.Printf("cleanup sweep dir=%s error: %v", dir, err)
				continue
			}
			if removed > 0 {
				log.Printf("cleanup sweep dir=%s removed=%d", dir, removed)
			}
		}
	})
	if err != nil {
		log.Printf("cleanup scheduler disabled, invalid schedule %q: %v", cfg.CleanupSchedule, err)
		return
	}
	c.Start()
	log.Printf("cleanup scheduler started schedule=%q retention=%dh", cfg.CleanupSchedule, cfg.RetentionHours)
}

// Sweep deletes regular files in dir older than maxAge and returns how many
// were removed.
func Sweep(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			log.Printf("cleanup remove %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
