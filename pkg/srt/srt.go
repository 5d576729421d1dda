// Package srt generates SubRip subtitle files from plain text.
//
// The cue layout is the fixed SubRip contract: a 1-based index line, a
// timing line of the form "HH:MM:SS,mmm --> HH:MM:SS,mmm", the cue text,
// and a blank separator line. Cues are produced by splitting source text
// into sentence-like chunks and assigning a fixed duration to each.
package srt

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Cue is a single subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Timestamp formats d as an SRT timestamp, "HH:MM:SS,mmm".
func Timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	ms := (d - s*time.Second) / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Format writes cues to w in SubRip format.
func Format(w io.Writer, cues []Cue) error {
	for _, c := range cues {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			c.Index, Timestamp(c.Start), Timestamp(c.End), c.Text)
		if err != nil {
			return fmt.Errorf("srt: write cue %d: %w", c.Index, err)
		}
	}
	return nil
}

// Generate splits text into sentence-like chunks and lays them out as
// consecutive cues of perCue duration each. Whitespace-only input yields no
// cues. perCue must be positive; it defaults to 4 seconds otherwise.
func Generate(text string, perCue time.Duration) []Cue {
	if perCue <= 0 {
		perCue = 4 * time.Second
	}
	chunks := splitSentences(text)
	cues := make([]Cue, 0, len(chunks))
	for i, chunk := range chunks {
		start := time.Duration(i) * perCue
		cues = append(cues, Cue{
			Index: i + 1,
			Start: start,
			End:   start + perCue,
			Text:  chunk,
		})
	}
	return cues
}

// splitSentences breaks text at sentence-terminating punctuation, keeping the
// punctuation with the preceding chunk. Newlines are treated as spaces.
func splitSentences(text string) []string {
	var chunks []string
	var b strings.Builder

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			chunks = append(chunks, s)
		}
		b.Reset()
	}

	for _, r := range text {
		if r == '\n' || r == '\r' {
			r = ' '
		}
		b.WriteRune(r)
		switch r {
		case '.', '!', '?':
			flush()
		}
	}
	flush()
	return chunks
}
