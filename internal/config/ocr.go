package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"time"
)

const (
	EnvOCRDefaultMode       = "HARMONY_OCR_DEFAULT_MODE"
	EnvTesseractLanguages   = "HARMONY_TESSERACT_LANGUAGES"
	EnvTesseractTessdata    = "HARMONY_TESSDATA_PREFIX"
	EnvTesseractPageSegMode = "HARMONY_TESSERACT_PSM"
	EnvNeuralOCRBaseURL     = "HARMONY_NEURAL_OCR_URL"
	EnvNeuralOCRTimeout     = "HARMONY_NEURAL_OCR_TIMEOUT"
	EnvNeuralOCRLanguages   = "HARMONY_NEURAL_OCR_LANGUAGES"
	EnvNeuralOCRHealthPath  = "HARMONY_NEURAL_OCR_HEALTH_PATH"
)

// OCRModes lists the accepted values for OCRConfig.DefaultMode.
var OCRModes = []string{"ocr-tesseract", "ocr-easyocr", "ocr-fusion"}

// OCRConfig configures the classical and neural OCR engines.
type OCRConfig struct {
	DefaultMode string          `toml:"default_mode"`
	Tesseract   TesseractConfig `toml:"tesseract"`
	Neural      NeuralConfig    `toml:"neural"`
}

// TesseractConfig configures the classical engine.
type TesseractConfig struct {
	Languages      []string `toml:"languages"`
	TessdataPrefix string   `toml:"tessdata_prefix"`
	PageSegMode    int      `toml:"psm"`
}

// NeuralConfig configures the neural OCR sidecar. An empty BaseURL leaves
// the neural engine unavailable.
type NeuralConfig struct {
	BaseURL    string   `toml:"base_url"`
	Timeout    string   `toml:"timeout"`
	Languages  []string `toml:"languages"`
	HealthPath string   `toml:"health_path"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *NeuralConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *OCRConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *OCRConfig) Merge(overlay *OCRConfig) {
	mergeString(&c.DefaultMode, overlay.DefaultMode)

	if overlay.Tesseract.Languages != nil {
		c.Tesseract.Languages = overlay.Tesseract.Languages
	}
	mergeString(&c.Tesseract.TessdataPrefix, overlay.Tesseract.TessdataPrefix)
	if overlay.Tesseract.PageSegMode != 0 {
		c.Tesseract.PageSegMode = overlay.Tesseract.PageSegMode
	}

	mergeString(&c.Neural.BaseURL, overlay.Neural.BaseURL)
	mergeString(&c.Neural.Timeout, overlay.Neural.Timeout)
	mergeString(&c.Neural.HealthPath, overlay.Neural.HealthPath)
	if overlay.Neural.Languages != nil {
		c.Neural.Languages = overlay.Neural.Languages
	}
}

func (c *OCRConfig) loadDefaults() {
	defaultString(&c.DefaultMode, "ocr-fusion")
	if len(c.Tesseract.Languages) == 0 {
		c.Tesseract.Languages = []string{"eng"}
	}
	if c.Tesseract.PageSegMode == 0 {
		c.Tesseract.PageSegMode = 3
	}
	defaultString(&c.Neural.Timeout, "2m")
	defaultString(&c.Neural.HealthPath, "/health")
	if len(c.Neural.Languages) == 0 {
		c.Neural.Languages = []string{"en"}
	}
}

func (c *OCRConfig) loadEnv() {
	envString(&c.DefaultMode, EnvOCRDefaultMode)
	envList(&c.Tesseract.Languages, EnvTesseractLanguages)
	envString(&c.Tesseract.TessdataPrefix, EnvTesseractTessdata)
	if v := os.Getenv(EnvTesseractPageSegMode); v != "" {
		if psm, err := strconv.Atoi(v); err == nil {
			c.Tesseract.PageSegMode = psm
		}
	}
	envString(&c.Neural.BaseURL, EnvNeuralOCRBaseURL)
	envString(&c.Neural.Timeout, EnvNeuralOCRTimeout)
	envList(&c.Neural.Languages, EnvNeuralOCRLanguages)
	envString(&c.Neural.HealthPath, EnvNeuralOCRHealthPath)
}

func (c *OCRConfig) validate() error {
	if !slices.Contains(OCRModes, c.DefaultMode) {
		return fmt.Errorf("invalid default_mode %q: expected one of %v", c.DefaultMode, OCRModes)
	}
	if c.Tesseract.PageSegMode < 0 || c.Tesseract.PageSegMode > 13 {
		return fmt.Errorf("invalid tesseract psm: %d", c.Tesseract.PageSegMode)
	}
	if c.Neural.BaseURL != "" {
		u, err := url.Parse(c.Neural.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid neural base_url: %q", c.Neural.BaseURL)
		}
	}
	if err := positiveDuration(c.Neural.Timeout); err != nil {
		return fmt.Errorf("invalid neural timeout: %w", err)
	}
	return nil
}
