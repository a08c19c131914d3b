package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/fairway/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Criterion, convey.ShouldEqual, "gross")
			convey.So(cfg.PageSize, convey.ShouldEqual, 10)
			convey.So(cfg.DebounceMS, convey.ShouldEqual, 500)
			convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 30_000)
			convey.So(cfg.TotalHoles, convey.ShouldEqual, 18)
			convey.So(cfg.DrainTimeoutMS, convey.ShouldEqual, 5_000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://localhost:9090")
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("FAIRWAY_ADDR", ":8080")
			_ = os.Setenv("FAIRWAY_PAGE_SIZE", "25")
			_ = os.Setenv("FAIRWAY_CRITERION", "net")
			_ = os.Setenv("FAIRWAY_TOURNAMENT_ID", "t-42")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 25)
				convey.So(cfg.Criterion, convey.ShouldEqual, "net")
				convey.So(cfg.TournamentID, convey.ShouldEqual, "t-42")
			})
		})

		convey.Convey("When loading from YAML and env together", func() {
			tmp := createTempFile("fairway-*.yaml", `
addr: ":9090"
page_size: 8
push_url: "ws://scores.local/ws"
debounce_ms: 250
`)
			defer func() { _ = os.Remove(tmp) }()
			_ = os.Setenv("FAIRWAY_CONFIG", tmp)
			_ = os.Setenv("FAIRWAY_PAGE_SIZE", "12")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.PageSize, convey.ShouldEqual, 12)
				convey.So(cfg.PushURL, convey.ShouldEqual, "ws://scores.local/ws")
				convey.So(cfg.DebounceMS, convey.ShouldEqual, 250)
				convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 30_000)
			})
		})

		convey.Convey("When a dotenv file is provided", func() {
			tmp := createTempFile("fairway-*.env", "FAIRWAY_WINNERS_LIMIT=5\n")
			defer func() { _ = os.Remove(tmp) }()
			_ = os.Setenv("FAIRWAY_DOTENV", tmp)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values reach the config", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WinnersLimit, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmp := createTempFile("fairway-*.yaml", `invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmp) }()
			_ = os.Setenv("FAIRWAY_CONFIG", tmp)

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("FAIRWAY_CONFIG", "/non/existent/fairway.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the criterion is unknown", func() {
			_ = os.Setenv("FAIRWAY_CRITERION", "stableford")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "criterion")
			})
		})

		convey.Convey("When the page size is not numeric", func() {
			_ = os.Setenv("FAIRWAY_PAGE_SIZE", "many")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the drain timeout is negative", func() {
			_ = os.Setenv("FAIRWAY_DRAIN_TIMEOUT_MS", "-1")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When total holes is out of range", func() {
			_ = os.Setenv("FAIRWAY_TOTAL_HOLES", "19")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, v := range []string{
		"FAIRWAY_CONFIG",
		"FAIRWAY_DOTENV",
		"FAIRWAY_ADDR",
		"FAIRWAY_PAGE_SIZE",
		"FAIRWAY_CRITERION",
		"FAIRWAY_TOURNAMENT_ID",
		"FAIRWAY_WINNERS_LIMIT",
		"FAIRWAY_TOTAL_HOLES",
		"FAIRWAY_DRAIN_TIMEOUT_MS",
	} {
		_ = os.Unsetenv(v)
	}
}

func createTempFile(pattern, content string) string {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		panic(err)
	}
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	if err := f.Close(); err != nil {
		panic(err)
	}
	return f.Name()
}
