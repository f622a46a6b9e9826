package fyne

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/specviz/internal/service"
)

// FileDialog is a helper for creating file open dialogs restricted to MIME types.
type FileDialog struct {
	window   fyne.Window
	mimes    []string
	callback func(string)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog accepting the given MIME types
// (wildcards like "audio/*" allowed).
func NewFileDialog(window fyne.Window, mimes []string, callback func(string), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:   window,
		mimes:    mimes,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		if d.callback != nil {
			d.callback(reader.URI().Path())
		}
	}, d.window)

	if len(d.mimes) > 0 {
		fd.SetFilter(storage.NewMimeTypeFileFilter(d.mimes))
	}
	fd.Show()
}

// SettingsForm is the content of the settings drawer: the audio and background
// pickers, the title and the description.
type SettingsForm struct {
	AudioButton *widget.Button
	AudioName   *widget.Label
	ImageButton *widget.Button
	ImageName   *widget.Label
	Title       *widget.Entry
	Description *widget.Entry
	Count       *widget.Label
}

// NewSettingsForm creates the form. Text edits are limited to the settings
// lengths and reported through onTitle and onDescription.
func NewSettingsForm(onAudio, onImage func(), onTitle, onDescription func(string)) *SettingsForm {
	f := &SettingsForm{
		AudioButton: widget.NewButton("Upload Audio File", onAudio),
		AudioName:   widget.NewLabel(currentFile("")),
		ImageButton: widget.NewButton("Upload Image File", onImage),
		ImageName:   widget.NewLabel(currentFile("")),
		Title:       widget.NewEntry(),
		Description: widget.NewMultiLineEntry(),
		Count:       widget.NewLabel(counter(0)),
	}

	f.Title.SetPlaceHolder("Title")
	f.Title.OnChanged = func(s string) {
		if limited := truncate(s, service.MaxTitleLength); limited != s {
			f.Title.SetText(limited)
			return
		}
		onTitle(s)
	}

	f.Description.SetPlaceHolder("Description")
	f.Description.SetMinRowsVisible(3)
	f.Description.Wrapping = fyne.TextWrapWord
	f.Description.OnChanged = func(s string) {
		if limited := truncate(s, service.MaxDescriptionLength); limited != s {
			f.Description.SetText(limited)
			return
		}
		f.Count.SetText(counter(utf8.RuneCountInString(s)))
		onDescription(s)
	}

	return f
}

// Content lays the form out.
func (f *SettingsForm) Content() fyne.CanvasObject {
	return widget.NewForm(
		widget.NewFormItem("Audio", container.NewVBox(f.AudioButton, f.AudioName)),
		widget.NewFormItem("Background Image", container.NewVBox(f.ImageButton, f.ImageName)),
		widget.NewFormItem("Title", f.Title),
		widget.NewFormItem("Description", container.NewVBox(f.Description, f.Count)),
	)
}

func currentFile(name string) string {
	if name == "" {
		name = "none"
	}
	return "Current File: " + name
}

func counter(n int) string {
	return fmt.Sprintf("%d / %d", n, service.MaxDescriptionLength)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
