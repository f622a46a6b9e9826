// Package config loads SpecViz runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Analysis
	FFTSize     int     // analyser transform size, power of two
	Smoothing   float64 // temporal smoothing constant in [0,1)
	MinDecibels float64 // maps to magnitude 0
	MaxDecibels float64 // maps to magnitude 255

	// Rendering
	BarWidth      int
	BarGap        int
	Adaptive      bool // adaptive bar thinning, false draws every bin
	SurfaceWidth  int
	SurfaceHeight int
	FrameRate     int // frames per second of the render scheduler

	// Audio output
	SampleRate     int           // output device rate in Hz
	OutputBuffer   time.Duration // speaker buffer length
	TapSize        int           // samples kept for analysis
	UpdateInterval time.Duration // media signal polling period
	UseMockAudio   bool          // silent mock media, for machines without an output device

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		FFTSize:     envInt("SPECVIZ_FFT_SIZE", 256),
		Smoothing:   envFloat("SPECVIZ_SMOOTHING", 0.8),
		MinDecibels: envFloat("SPECVIZ_MIN_DB", -100),
		MaxDecibels: envFloat("SPECVIZ_MAX_DB", -30),

		BarWidth:      envInt("SPECVIZ_BAR_WIDTH", 2),
		BarGap:        envInt("SPECVIZ_BAR_GAP", 2),
		Adaptive:      envBool("SPECVIZ_ADAPTIVE", true),
		SurfaceWidth:  envInt("SPECVIZ_SURFACE_WIDTH", 600),
		SurfaceHeight: envInt("SPECVIZ_SURFACE_HEIGHT", 160),
		FrameRate:     envInt("SPECVIZ_FRAME_RATE", 60),

		SampleRate:     envInt("SPECVIZ_SAMPLE_RATE", 44100),
		OutputBuffer:   time.Duration(envInt("SPECVIZ_OUTPUT_BUFFER_MS", 50)) * time.Millisecond,
		TapSize:        envInt("SPECVIZ_TAP_SIZE", 8192),
		UpdateInterval: time.Duration(envInt("SPECVIZ_UPDATE_INTERVAL_MS", 100)) * time.Millisecond,
		UseMockAudio:   envBool("SPECVIZ_MOCK_AUDIO", false),

		LogLevel:  envStr("SPECVIZ_LOG_LEVEL", "INFO"),
		LogFormat: envStr("SPECVIZ_LOG_FORMAT", "text"),
	}
}

// FrameInterval returns the period between frames, 60 fps when FrameRate is not positive.
func (c Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
