package chatinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/chat"
	"github.com/Abraxas-365/wanderlust/pkg/logx"
)

// CleanupService drops expired sessions in the background. Checkpoints are
// left alone.
type CleanupService struct {
	sessions chat.SessionStore
	interval time.Duration
}

func NewCleanupService(sessions chat.SessionStore, interval time.Duration) *CleanupService {
	return &CleanupService{
		sessions: sessions,
		interval: interval,
	}
}

// Start blocks until ctx is done
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logx.Info("Session cleanup service stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *CleanupService) RunOnce(ctx context.Context) {
	removed, err := s.sessions.CleanExpired(ctx)
	if err != nil {
		logx.Errorf("Error cleaning expired sessions: %v", err)
		return
	}
	if removed > 0 {
		logx.Infof("Removed %d expired session(s)", removed)
	}
}
