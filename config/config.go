// Package config provides configuration for client apps based on the Alpaca SDK.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

// Default URLs used if one of the URLs isn't specified. Which trading URL is
// used depends on the Paper flag.
const (
	DefaultAPIURL      = "https://api.alpaca.markets"
	DefaultPaperAPIURL = "https://paper-api.alpaca.markets"

	DefaultStreamURL      = "wss://api.alpaca.markets"
	DefaultPaperStreamURL = "wss://paper-api.alpaca.markets"

	DefaultDataURL             = "https://data.alpaca.markets"
	DefaultMarketDataStreamURL = "wss://stream.data.alpaca.markets"

	// DefaultPollIntervalMs is the default period of the account snapshot
	// poller, in milliseconds.
	DefaultPollIntervalMs = 10000

	Filepath = ".alpaca/credentials.yml"
)

// Various validation errors.
var (
	ErrNilConfig       = Error{Type: "config", Why: "config is nil", How: "create and load config first"}
	ErrEmptyAPIKey     = Error{Type: "config", What: "api_key", Why: "is empty", How: "specify an api_key"}
	ErrEmptySecretKey  = Error{Type: "config", What: "secret_key", Why: "is empty", How: "specify a secret_key"}
	ErrInvalidHTTPURL  = Error{Type: "config", Why: "wrong url", How: "URL must be a valid http or https url"}
	ErrInvalidWSURL    = Error{Type: "config", Why: "wrong url", How: "URL must be a valid ws or wss url"}
	ErrInvalidScheme   = Error{Type: "config", Why: "invalid scheme", How: "scheme must be http(s) or ws(s)"}
	ErrBadPollInterval = Error{Type: "config", What: "poll_interval_ms", Why: "is negative", How: "specify a positive interval or omit it"}
)

// Alpaca holds the configuration.
type Alpaca struct {
	mu             sync.Mutex `yaml:"-"` // protects the fields below
	APIKey         string     `yaml:"api_key"`
	SecretKey      string     `yaml:"secret_key"`
	Paper          bool       `yaml:"paper"`
	APIURL         string     `yaml:"api_url"`
	DataURL        string     `yaml:"data_url"`
	StreamURL      string     `yaml:"stream_url"`
	DataStreamURL  string     `yaml:"data_stream_url"`
	PollIntervalMs int        `yaml:"poll_interval_ms"`
}

// New creates a new Alpaca config from a file by the given name.
func New(name string) (*Alpaca, error) {
	return NewFromFilename(name)
}

// NewFromFilename creates a new Alpaca config from a file by the given filename.
func NewFromFilename(filename string) (*Alpaca, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return NewFromRaw(data)
}

// NewFromRaw creates a new Alpaca config by unmarshaling the given raw data.
func NewFromRaw(raw []byte) (*Alpaca, error) {
	cfg := &Alpaca{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Trace(err)
	}

	return cfg, nil
}

// ValidateFunc validates the config by applying each of given vfs to it.
func (c *Alpaca) ValidateFunc(vfs ...ValidateFuncAlpaca) error {
	if c == nil {
		return ErrNilConfig
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range vfs {
		if err := f(c); err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}

// Validate validates the config by applying ValidateAlpacaDefault.
func (c *Alpaca) Validate() error {
	return c.ValidateFunc(ValidateAlpacaDefault)
}

// PollInterval returns the snapshot poll interval as a duration.
func (c *Alpaca) PollInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.PollIntervalMs
	if ms == 0 {
		ms = DefaultPollIntervalMs
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Alpaca) Example() *Alpaca {
	cfg := &Alpaca{}

	cfg.APIKey = "example_api_key"
	cfg.SecretKey = "example_secret_key"
	cfg.Paper = true
	cfg.APIURL = DefaultPaperAPIURL
	cfg.DataURL = DefaultDataURL
	cfg.StreamURL = DefaultPaperStreamURL
	cfg.DataStreamURL = DefaultMarketDataStreamURL
	cfg.PollIntervalMs = DefaultPollIntervalMs

	return cfg
}

// String can't be defined on a value receiver here because of the mutex.
func (c *Alpaca) String() string {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}

	return string(raw)
}

// DefaultFilepath determines and returns default config path.
// It can return an error if detecting the user's home directory has failed.
func DefaultFilepath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Trace(err)
	}

	return filepath.Join(home, Filepath), nil
}

// Error holds details about an error occured during validation process.
type Error struct {
	Type string
	What string
	Why  string
	How  string
}

func (e Error) Error() string {
	if e.What == "" {
		return fmt.Sprintf("invalid %s: %s. Possible fix: %s", e.Type, e.Why, e.How)
	}

	return fmt.Sprintf("invalid %s: %s - %s. Possible fix: %s", e.Type, e.What, e.Why, e.How)
}

// ValidateFuncAlpaca takes an instance of Alpaca and returns an error if any
// occured during validation process.
type ValidateFuncAlpaca func(*Alpaca) error

// CheckURL checks that the url has the correct scheme.
func CheckURL(given string, schemes ...string) error {
	u, err := url.Parse(given)
	if err != nil {
		return errors.Trace(err)
	}

	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}

	return ErrInvalidScheme
}

// ValidateAlpacaDefault performs validation of the given config by checking
// all the fields for correctness. It does set default values for an url if
// one wasn't specified; the trading defaults honor the Paper flag.
func ValidateAlpacaDefault(c *Alpaca) error {
	if c.APIKey == "" {
		return ErrEmptyAPIKey
	}

	if c.SecretKey == "" {
		return ErrEmptySecretKey
	}

	if c.PollIntervalMs < 0 {
		return ErrBadPollInterval
	}

	apiURL, streamURL := DefaultAPIURL, DefaultStreamURL
	if c.Paper {
		apiURL, streamURL = DefaultPaperAPIURL, DefaultPaperStreamURL
	}

	if c.APIURL == "" {
		c.APIURL = apiURL
	} else {
		if err := CheckURL(c.APIURL, "http", "https"); err != nil {
			return ErrInvalidHTTPURL
		}
	}

	if c.DataURL == "" {
		c.DataURL = DefaultDataURL
	} else {
		if err := CheckURL(c.DataURL, "http", "https"); err != nil {
			return ErrInvalidHTTPURL
		}
	}

	if c.StreamURL == "" {
		c.StreamURL = streamURL
	} else {
		if err := CheckURL(c.StreamURL, "ws", "wss"); err != nil {
			return ErrInvalidWSURL
		}
	}

	if c.DataStreamURL == "" {
		c.DataStreamURL = DefaultMarketDataStreamURL
	} else {
		if err := CheckURL(c.DataStreamURL, "ws", "wss"); err != nil {
			return ErrInvalidWSURL
		}
	}

	return nil
}
