package analyzer

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Progress is an interface for tracking progress of operations
type Progress interface {
	// Add increments the progress by n
	Add(n int) error
	// Close cleans up any resources used by the progress tracker
	Close()
}

// NoopProgress is a progress tracker that does nothing
type NoopProgress struct{}

func (p *NoopProgress) Add(int) error { return nil }
func (p *NoopProgress) Close()        {}

// NewNoopProgress creates a new no-op progress tracker
func NewNoopProgress() *NoopProgress {
	return &NoopProgress{}
}

// BarProgress wraps a progressbar.ProgressBar; it is safe for concurrent Add calls
type BarProgress struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

func (p *BarProgress) Add(n int) error {
	return p.bar.Add(n)
}

func (p *BarProgress) Close() {
	_ = p.bar.Finish()
	fmt.Fprint(p.w, "\r\033[K")
}

// NewBarProgress creates a progress bar on stderr
func NewBarProgress(total int, description string) *BarProgress {
	return newBarProgress(os.Stderr, total, description)
}

func newBarProgress(w io.Writer, total int, description string) *BarProgress {
	return &BarProgress{
		w: w,
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			})),
	}
}
