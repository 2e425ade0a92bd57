package pipeline

import (
	"time"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
)

// Recorder receives engine events, typically to feed metrics
type Recorder interface {
	FileProcessed(status string)
	TableResolved(decision string)
	CandidateAccepted(tier intelligence.Tier)
	BatchFinished(files int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) FileProcessed(string) {}
func (nopRecorder) TableResolved(string) {}
func (nopRecorder) CandidateAccepted(intelligence.Tier) {}
func (nopRecorder) BatchFinished(int, time.Duration) {}
