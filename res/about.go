package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `An audio spectrum visualizer built with Go and Fyne.

**Features:**
- Play MP3, WAV, FLAC and Ogg Vorbis files
- Live frequency bars synchronized to playback
- Custom title, description and background image
- Background image reloads when edited on disk
`
