package tuitest

import (
	"regexp"
	"strings"
)

// Frame is one screen repaint with escape sequences removed from Plain.
type Frame struct {
	Index int
	ANSI  string
	Plain string
}

var (
	// Bubble Tea repaints by erasing the display or homing the cursor.
	frameSeparator = regexp.MustCompile(`\x1b\[[0-9;]*J|\x1b\[H`)
	csiPattern     = regexp.MustCompile(`\x1b\[[0-9;?<>=]*[ -/]*[@-~]`)
	oscPattern     = regexp.MustCompile(`\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)
	escPattern     = regexp.MustCompile(`\x1b[()][0-9A-Za-z]|\x1b[=>78]`)
)

func parseFrames(raw []byte) []Frame {
	cleaned := strings.ReplaceAll(string(raw), "\r", "")
	var frames []Frame
	for _, segment := range frameSeparator.Split(cleaned, -1) {
		segment = strings.Trim(segment, "\x00")
		plain := normalizeLines(StripANSI(segment))
		if strings.TrimSpace(plain) == "" {
			continue
		}
		frames = append(frames, Frame{Index: len(frames), ANSI: segment, Plain: plain})
	}
	if len(frames) == 0 {
		if plain := normalizeLines(StripANSI(cleaned)); strings.TrimSpace(plain) != "" {
			frames = append(frames, Frame{ANSI: cleaned, Plain: plain})
		}
	}
	return frames
}

// FinalFrame returns the last captured frame. ok is false when nothing was
// drawn.
func (r *Recording) FinalFrame() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// LastContaining returns the newest frame whose plain text contains every
// needle.
func (r *Recording) LastContaining(needles ...string) (Frame, bool) {
	if r == nil {
		return Frame{}, false
	}
	for i := len(r.Frames) - 1; i >= 0; i-- {
		if containsAll(r.Frames[i].Plain, needles) {
			return r.Frames[i], true
		}
	}
	return Frame{}, false
}

// Transcript is the whole session with escape sequences removed. Bubble Tea
// only repaints changed lines, so text can be split across frames.
func (r *Recording) Transcript() string {
	if r == nil {
		return ""
	}
	return normalizeLines(StripANSI(strings.ReplaceAll(string(r.Raw), "\r", "")))
}

func containsAll(haystack string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			return false
		}
	}
	return true
}

// StripANSI removes CSI, OSC and charset escape sequences.
func StripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = csiPattern.ReplaceAllString(s, "")
	s = escPattern.ReplaceAllString(s, "")
	return strings.NewReplacer("\x0f", "", "\x0e", "", "\x07", "").Replace(s)
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
