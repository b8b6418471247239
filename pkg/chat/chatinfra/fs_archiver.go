package chatinfra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/chat"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/Abraxas-365/wanderlust/pkg/fsx"
)

// FSArchiver writes left-behind transcripts to transcripts/<thread>.json
type FSArchiver struct {
	fs fsx.FileWriter
}

func NewFSArchiver(fs fsx.FileWriter) *FSArchiver {
	return &FSArchiver{fs: fs}
}

var _ chat.Archiver = (*FSArchiver)(nil)

type archivedTranscript struct {
	SessionID  string       `json:"session_id"`
	ThreadID   string       `json:"thread_id"`
	ArchivedAt time.Time    `json:"archived_at"`
	Transcript []chat.Entry `json:"transcript"`
}

func TranscriptPath(threadID string) string {
	return "transcripts/" + threadID + ".json"
}

func (a *FSArchiver) Archive(ctx context.Context, sessionID, threadID string, transcript []chat.Entry) error {
	data, err := json.MarshalIndent(archivedTranscript{
		SessionID:  sessionID,
		ThreadID:   threadID,
		ArchivedAt: time.Now(),
		Transcript: transcript,
	}, "", "  ")
	if err != nil {
		return errx.Wrap(err, "failed to encode transcript", errx.TypeInternal)
	}
	return a.fs.WriteFile(ctx, TranscriptPath(threadID), data)
}
