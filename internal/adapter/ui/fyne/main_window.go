package fyne

import (
	"image"
	"image/color"
	"log/slog"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/specviz/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/specviz/internal/domain"
	"github.com/tejashwikalptaru/specviz/res"
)

// Window geometry, a 9:16 portrait card like a phone screen.
const (
	APPNAME = "SpecViz"
	WIDTH   = 576
	HEIGHT  = 1024

	coverSize = 256
)

// MainWindow is the main UI window implementing the UIView interface.
// It handles all UI rendering and user interactions.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
//
// Every UIView method may be called from any goroutine; widget updates are
// handed to the Fyne goroutine with fyne.Do.
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger

	// UI components
	background  *canvas.Image
	title       *canvas.Text
	description *widget.Label
	cover       *widgets.Cover
	playButton  *widget.Button
	resetButton *widget.Button
	spectrum    *widgets.SpectrumView
	elapsed     *widget.Label
	total       *widget.Label
	scrubber    *widgets.Scrubber
	form        *SettingsForm
	settings    dialog.Dialog

	// State
	mu       sync.Mutex
	backdrop image.Image
	coverArt image.Image

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window showing frames from spectrum.
func NewMainWindow(app fyneapp.App, spectrum widgets.FrameSource, logger *slog.Logger) *MainWindow {
	if logger == nil {
		logger = slog.Default()
	}

	w := &MainWindow{
		app:      app,
		logger:   logger.With(slog.String("component", "main-window")),
		backdrop: res.DefaultBackground(),
	}

	// Create a window
	w.window = app.NewWindow(APPNAME)

	// Build UI
	w.buildUI(spectrum)

	// Set window properties
	w.window.Resize(fyneapp.NewSize(WIDTH, HEIGHT))

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI(spectrum widgets.FrameSource) {
	// Background: blurred and dimmed
	w.background = canvas.NewImageFromImage(blur(w.backdrop))
	w.background.FillMode = canvas.ImageFillStretch
	w.background.ScaleMode = canvas.ImageScaleSmooth
	dim := canvas.NewRectangle(color.NRGBA{A: 64})

	// Title and description
	w.title = canvas.NewText(DefaultTitle, color.White)
	w.title.TextSize = 24
	w.title.TextStyle = fyneapp.TextStyle{Bold: true}
	w.title.Alignment = fyneapp.TextAlignCenter

	w.description = widget.NewLabel(DefaultDescription)
	w.description.Alignment = fyneapp.TextAlignCenter
	w.description.Wrapping = fyneapp.TextWrapWord

	// Cover with the play overlay
	w.cover = widgets.NewCover(coverSize)
	w.cover.SetImage(w.backdrop)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.playButton.Importance = widget.LowImportance
	coverStack := container.NewStack(w.cover, container.NewCenter(w.playButton))

	// Spectrum
	w.spectrum = widgets.NewSpectrumView(spectrum, fyneapp.NewSize(384, 96))

	// Footer
	w.elapsed = widget.NewLabel("00:00")
	w.total = widget.NewLabel("00:00")
	w.scrubber = widgets.NewScrubber()
	footer := container.NewBorder(nil, nil, w.elapsed, w.total, container.NewVBox(layout.NewSpacer(), w.scrubber, layout.NewSpacer()))

	// Top bar
	w.resetButton = widget.NewButtonWithIcon("", theme.MediaReplayIcon(), nil)
	settingsButton := widget.NewButton("Settings", w.OpenSettings)
	settingsButton.Importance = widget.HighImportance
	about := widget.NewButtonWithIcon("", theme.InfoIcon(), w.showAbout)
	nav := container.NewHBox(layout.NewSpacer(), about, w.resetButton, settingsButton)

	body := container.NewVBox(
		layout.NewSpacer(),
		w.title,
		container.NewPadded(w.description),
		container.NewCenter(coverStack),
		container.NewCenter(w.spectrum),
		container.NewPadded(footer),
		layout.NewSpacer(),
	)

	content := container.NewStack(w.background, dim, container.NewBorder(nav, nil, nil, nil, container.NewPadded(body)))
	w.window.SetContent(content)
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = w.presenter.OnPlayClicked
	w.resetButton.OnTapped = w.presenter.OnResetClicked

	w.scrubber.OnHover = w.presenter.OnScrubberHover
	w.scrubber.OnTapped = w.presenter.OnScrubberTapped

	w.form = NewSettingsForm(
		w.handleOpenAudio,
		w.handleOpenImage,
		w.presenter.OnTitleChanged,
		w.presenter.OnDescriptionChanged,
	)
	w.settings = dialog.NewCustom("Settings", "Close", w.form.Content(), w.window)
	w.settings.Resize(fyneapp.NewSize(560, 480))
}

// handleOpenAudio opens the audio picker.
func (w *MainWindow) handleOpenAudio() {
	NewFileDialog(w.window, []string{"audio/*"}, w.presenter.OnAudioSelected, w.logger).Show()
}

// handleOpenImage opens the background picker.
func (w *MainWindow) handleOpenImage() {
	NewFileDialog(w.window, []string{"image/*"}, w.presenter.OnImageSelected, w.logger).Show()
}

func (w *MainWindow) showAbout() {
	dialog.ShowCustom("About "+APPNAME, "Close", widget.NewRichTextFromMarkdown(res.AboutContent), w.window)
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeySpace,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnPlayClicked()
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyR,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnResetClicked()
	})
}

// FramePresented refreshes the spectrum. It is called by the surface after each
// frame, from the render goroutine.
func (w *MainWindow) FramePresented() {
	fyneapp.Do(w.spectrum.FramePresented)
}

// SetOnClosed registers a callback run when the window closes.
func (w *MainWindow) SetOnClosed(fn func()) {
	w.window.SetOnClosed(fn)
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.cover.Rest()
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// UIView interface implementation

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.SetIcon(theme.MediaPauseIcon())
		} else {
			w.playButton.SetIcon(theme.MediaPlayIcon())
		}
	})
}

// SetCoverState spins, freezes or rests the cover.
func (w *MainWindow) SetCoverState(state domain.CoverState) {
	fyneapp.Do(func() {
		switch state {
		case domain.CoverPlaying:
			w.cover.Play()
		case domain.CoverPaused:
			w.cover.Pause()
		default:
			w.cover.Rest()
		}
	})
}

// SetAudioPickerEnabled enables the audio upload button.
func (w *MainWindow) SetAudioPickerEnabled(enabled bool) {
	fyneapp.Do(func() {
		if w.form == nil {
			return
		}
		if enabled {
			w.form.AudioButton.Enable()
		} else {
			w.form.AudioButton.Disable()
		}
	})
}

// SetTitle updates the title.
func (w *MainWindow) SetTitle(title string) {
	fyneapp.Do(func() {
		w.title.Text = title
		w.title.Refresh()
	})
}

// SetDescription updates the description.
func (w *MainWindow) SetDescription(description string) {
	fyneapp.Do(func() {
		w.description.SetText(description)
	})
}

// SetBackground loads the image at path as background and cover. An empty path
// restores the default background.
func (w *MainWindow) SetBackground(path string) {
	img := res.DefaultBackground()
	if path != "" {
		loaded, err := loadImage(path)
		if err != nil {
			w.logger.Warn("cannot load background", slog.String("path", path), slog.Any("error", err))
		} else {
			img = loaded
		}
	}

	w.mu.Lock()
	w.backdrop = img
	cover := w.coverArt
	w.mu.Unlock()

	if cover == nil {
		cover = img
	}
	blurred := blur(img)

	fyneapp.Do(func() {
		w.background.Image = blurred
		w.background.Refresh()
		w.cover.SetImage(cover)
	})
}

// SetCoverArt shows embedded track art on the cover; nil falls back to the
// background image.
func (w *MainWindow) SetCoverArt(data []byte) {
	var art image.Image
	if len(data) > 0 {
		img, err := decodeImage(data)
		if err != nil {
			w.logger.Debug("cannot decode cover art", slog.Any("error", err))
		} else {
			art = img
		}
	}

	w.mu.Lock()
	w.coverArt = art
	cover := art
	if cover == nil {
		cover = w.backdrop
	}
	w.mu.Unlock()

	fyneapp.Do(func() {
		w.cover.SetImage(cover)
	})
}

// SetAudioName shows the loaded audio file name in the settings.
func (w *MainWindow) SetAudioName(name string) {
	fyneapp.Do(func() {
		if w.form != nil {
			w.form.AudioName.SetText(currentFile(name))
		}
	})
}

// SetImageName shows the background file name in the settings.
func (w *MainWindow) SetImageName(name string) {
	fyneapp.Do(func() {
		if w.form != nil {
			w.form.ImageName.SetText(currentFile(name))
		}
	})
}

// SetElapsed updates the elapsed time label.
func (w *MainWindow) SetElapsed(text string) {
	fyneapp.Do(func() {
		w.elapsed.SetText(text)
	})
}

// SetTotal updates the total time label.
func (w *MainWindow) SetTotal(text string) {
	fyneapp.Do(func() {
		w.total.SetText(text)
	})
}

// SetProgress updates the filled part of the scrubber.
func (w *MainWindow) SetProgress(percent float64) {
	fyneapp.Do(func() {
		w.scrubber.SetProgress(percent)
	})
}

// SetKnob moves the scrubber knob.
func (w *MainWindow) SetKnob(x float64) {
	fyneapp.Do(func() {
		w.scrubber.SetKnob(x)
	})
}

// OpenSettings shows the settings drawer.
func (w *MainWindow) OpenSettings() {
	fyneapp.Do(func() {
		if w.settings != nil {
			w.settings.Show()
		}
	})
}

// ShowError displays an error dialog.
func (w *MainWindow) ShowError(title string, err error) {
	fyneapp.Do(func() {
		dialog.ShowInformation(title, err.Error(), w.window)
	})
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)
