package tui

type stage int

const (
	stageIdle stage = iota
	stageLoading
	stageDisplay
	stageError
)

func (s stage) String() string {
	switch s {
	case stageIdle:
		return "idle"
	case stageLoading:
		return "loading"
	case stageDisplay:
		return "display"
	case stageError:
		return "error"
	default:
		return "unknown"
	}
}

type overlay int

const (
	overlayNone overlay = iota
	overlayAbout
	overlayHelp
)

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	composerCharLimit         = 200
	composerWidth             = 70
	catalogTableHeight        = 6
	ingredientPreviewLimit    = 3
)
