// Package ticker drives the tick endpoint on a fixed schedule for deployments without
// an external scheduler.
package ticker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/vietanh2810/raffle-api/internal/service"
)

var ErrUnexpectedStatus = errors.New("unexpected tick status")

type Config struct {
	URL         string        `env:"RAFFLE_TICK_URL"        envDefault:"http://localhost:8080/api/v1/tick"`
	Secret      string        `env:"RAFFLE_TICK_SECRET"`
	Interval    time.Duration `env:"RAFFLE_TICK_INTERVAL"   envDefault:"1m"`
	Timeout     time.Duration `env:"RAFFLE_TICK_TIMEOUT"    envDefault:"30s"`
	Environment string        `env:"RAFFLE_API_ENVIRONMENT" envDefault:"development"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.Interval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// LoadConfig reads the ticker settings from the environment.
func LoadConfig() (Config, error) {
	var conf Config
	if err := env.Parse(&conf); err != nil {
		return Config{}, fmt.Errorf("env.Parse -> %w", err)
	}
	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("conf.Validate -> %w", err)
	}

	return conf, nil
}

type Ticker struct {
	conf   Config
	client *http.Client
}

func New(conf Config, client *http.Client) *Ticker {
	if client == nil {
		client = &http.Client{Timeout: conf.Timeout}
	}

	return &Ticker{
		conf:   conf,
		client: client,
	}
}

// Tick calls the endpoint once and returns its report. A 200 carrying failed raffles is
// not an error; they are retried on the next tick.
func (t *Ticker) Tick(ctx context.Context) (service.TickReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.conf.URL, http.NoBody)
	if err != nil {
		return service.TickReport{}, fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	if t.conf.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+t.conf.Secret)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return service.TickReport{}, fmt.Errorf("t.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return service.TickReport{}, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, body)
	}

	var report service.TickReport
	if err = json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return service.TickReport{}, fmt.Errorf("json.Decode -> %w", err)
	}

	return report, nil
}

// Run ticks immediately and then every interval until ctx is done.
func (t *Ticker) Run(ctx context.Context) {
	timer := time.NewTicker(t.conf.Interval)
	defer timer.Stop()

	for {
		t.tickAndLog(ctx)

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

func (t *Ticker) tickAndLog(ctx context.Context) {
	report, err := t.Tick(ctx)
	if err != nil {
		if ctx.Err() == nil {
			zap.L().Error("tick failed", zap.String("url", t.conf.URL), zap.Error(err))
		}
		return
	}

	fields := []zap.Field{
		zap.Int("processed", report.Processed),
		zap.Int("resolved", report.Resolved),
		zap.Int("failed", report.Failed),
	}
	if report.Failed > 0 {
		for _, raffle := range report.Raffles {
			if raffle.Error != "" {
				zap.L().Warn("raffle not advanced", zap.String("raffle_id", raffle.RaffleID), zap.String("error", raffle.Error))
			}
		}
		zap.L().Warn("tick completed with failures", fields...)
		return
	}
	zap.L().Info("tick completed", fields...)
}
