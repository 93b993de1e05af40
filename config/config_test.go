package config

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewFromRaw(t *testing.T) {
	raw := []byte(`
api_key: key
secret_key: secret
paper: true
poll_interval_ms: 5000
`)

	cfg, err := NewFromRaw(raw)
	assert.NoError(t, err)

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "secret", cfg.SecretKey)
	assert.True(t, cfg.Paper)
	assert.Equal(t, 5000, cfg.PollIntervalMs)
}

func TestValidateDefaults(t *testing.T) {
	cfg := &Alpaca{APIKey: "key", SecretKey: "secret"}

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultStreamURL, cfg.StreamURL)
	assert.Equal(t, DefaultDataURL, cfg.DataURL)
	assert.Equal(t, DefaultMarketDataStreamURL, cfg.DataStreamURL)
}

func TestValidatePaperDefaults(t *testing.T) {
	cfg := &Alpaca{APIKey: "key", SecretKey: "secret", Paper: true}

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPaperAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultPaperStreamURL, cfg.StreamURL)
}

func TestValidateErrors(t *testing.T) {
	testCases := []struct {
		descr   string
		cfg     *Alpaca
		wantErr error
	}{
		{descr: "nil config", cfg: nil, wantErr: ErrNilConfig},
		{descr: "empty api key", cfg: &Alpaca{SecretKey: "s"}, wantErr: ErrEmptyAPIKey},
		{descr: "empty secret key", cfg: &Alpaca{APIKey: "k"}, wantErr: ErrEmptySecretKey},
		{
			descr:   "http url on stream field",
			cfg:     &Alpaca{APIKey: "k", SecretKey: "s", StreamURL: "https://api.alpaca.markets"},
			wantErr: ErrInvalidWSURL,
		},
		{
			descr:   "ws url on api field",
			cfg:     &Alpaca{APIKey: "k", SecretKey: "s", APIURL: "wss://api.alpaca.markets"},
			wantErr: ErrInvalidHTTPURL,
		},
		{
			descr:   "negative poll interval",
			cfg:     &Alpaca{APIKey: "k", SecretKey: "s", PollIntervalMs: -1},
			wantErr: ErrBadPollInterval,
		},
	}

	for _, tc := range testCases {
		err := tc.cfg.Validate()
		assert.Equal(t, tc.wantErr, errors.Cause(err), tc.descr)
	}
}

func TestPollInterval(t *testing.T) {
	cfg := &Alpaca{APIKey: "k", SecretKey: "s"}
	assert.Equal(t, "10s", cfg.PollInterval().String())

	cfg.PollIntervalMs = 2500
	assert.Equal(t, "2.5s", cfg.PollInterval().String())
}
