package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/lnmubot/core/config"
	coretelegram "github.com/m3rciful/lnmubot/core/telegram"
)

type fakeApp struct {
	opts coretelegram.RunOptions
	err  error
}

func (f fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return f.opts, f.err }

func TestRunUsesConfigPathAndHooks(t *testing.T) {
	t.Setenv("LNMUBOT_TEST_CONFIG", "/etc/lnmubot/config.yaml")

	var loadedPath string
	var started, stopped, shutdowns int
	err := Run(Options{
		ConfigEnvVar:      "LNMUBOT_TEST_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			loadedPath = path
			return &coreconfig.Config{}, nil
		},
		Bootstrap: func(*coreconfig.Config) (TelegramApp, error) {
			return fakeApp{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { started++; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped++; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { shutdowns++; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loadedPath != "/etc/lnmubot/config.yaml" {
		t.Fatalf("config path = %q", loadedPath)
	}
	if started != 1 || stopped != 1 {
		t.Fatalf("hooks: started=%d stopped=%d", started, stopped)
	}
	if shutdowns != 1 {
		t.Fatalf("logger shutdown called %d times", shutdowns)
	}
}

func TestRunDefaultConfigPath(t *testing.T) {
	t.Setenv("LNMUBOT_TEST_CONFIG", "")

	var loadedPath string
	_ = Run(Options{
		ConfigEnvVar:      "LNMUBOT_TEST_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			loadedPath = path
			return nil, errors.New("stop")
		},
		Bootstrap: func(*coreconfig.Config) (TelegramApp, error) { return fakeApp{}, nil },
	})
	if loadedPath != "config.yaml" {
		t.Fatalf("config path = %q", loadedPath)
	}
}

func TestRunBootstrapError(t *testing.T) {
	err := Run(Options{
		LoadConfig: func(string) (*coreconfig.Config, error) { return &coreconfig.Config{}, nil },
		Bootstrap:  func(*coreconfig.Config) (TelegramApp, error) { return nil, errors.New("no chrome") },
	})
	if err == nil {
		t.Fatal("expected bootstrap error")
	}
}
