package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
)

const (
	defaultResultsDir        = "./results"
	defaultPageLoadSeconds   = int(consts.PageLoadTimeout / time.Second)
	defaultLinkSeconds       = int(consts.LinkProbeTimeout / time.Second)
	defaultAdminSeconds      = int(consts.AdminProbeTimeout / time.Second)
	defaultDelayMillis       = int(consts.DefaultRunDelay / time.Millisecond)
	defaultLinkRateBurst     = 5
	defaultBrowserHeadless   = true
	defaultLinkRatePerSecond = 0.0
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	AllowedDomains []string
	ResultsDir     string
	DelayMs        int
	Progress       bool
	Telemetry      bool
	Timeouts       TimeoutConfig
	Links          LinkConfig
	Browser        BrowserConfig
}

// TimeoutConfig holds the per-operation bounds in seconds.
type TimeoutConfig struct {
	PageLoadSecs int
	LinkSecs     int
	AdminSecs    int
}

// LinkConfig throttles external link probes. A zero RateLimit disables throttling.
type LinkConfig struct {
	RateLimit float64
	Burst     int
}

// BrowserConfig selects the headless browser binary and mode.
type BrowserConfig struct {
	Headless bool
	ExecPath string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		AllowedDomains: []string{},
		ResultsDir:     defaultResultsDir,
		DelayMs:        defaultDelayMillis,
		Timeouts: TimeoutConfig{
			PageLoadSecs: defaultPageLoadSeconds,
			LinkSecs:     defaultLinkSeconds,
			AdminSecs:    defaultAdminSeconds,
		},
		Links: LinkConfig{
			RateLimit: defaultLinkRatePerSecond,
			Burst:     defaultLinkRateBurst,
		},
		Browser: BrowserConfig{
			Headless: defaultBrowserHeadless,
		},
	}
}

func registerConfigDefaults(v *viper.Viper) {
	v.SetDefault("allowed_domains", []string{})
	v.SetDefault("results_dir", defaultResultsDir)
	v.SetDefault("delay_ms", defaultDelayMillis)
	v.SetDefault("telemetry", false)
	v.SetDefault("timeouts.page_load_secs", defaultPageLoadSeconds)
	v.SetDefault("timeouts.link_secs", defaultLinkSeconds)
	v.SetDefault("timeouts.admin_secs", defaultAdminSeconds)
	v.SetDefault("links.rate_limit", defaultLinkRatePerSecond)
	v.SetDefault("links.burst", defaultLinkRateBurst)
	v.SetDefault("browser.headless", defaultBrowserHeadless)
	v.SetDefault("browser.exec_path", "")
}

// applyConfigDefaults merges config values into the runtime config when the user
// did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	flags := cmd.Flags()

	applyStringDefault(flags, "results-dir", viper.GetString("results_dir"), func(v string) {
		cliConfig.ResultsDir = v
	})
	applyIntDefault(flags, "delay-ms", viper.GetInt("delay_ms"), func(v int) {
		cliConfig.DelayMs = v
	})
	applyIntDefault(flags, "page-timeout", viper.GetInt("timeouts.page_load_secs"), func(v int) {
		cliConfig.Timeouts.PageLoadSecs = v
	})
	applyIntDefault(flags, "link-timeout", viper.GetInt("timeouts.link_secs"), func(v int) {
		cliConfig.Timeouts.LinkSecs = v
	})
	applyIntDefault(flags, "admin-timeout", viper.GetInt("timeouts.admin_secs"), func(v int) {
		cliConfig.Timeouts.AdminSecs = v
	})
	applyFloatDefault(flags, "rate-limit", viper.GetFloat64("links.rate_limit"), func(v float64) {
		cliConfig.Links.RateLimit = v
	})
	cliConfig.Links.Burst = viper.GetInt("links.burst")
	applyBoolDefault(flags, "telemetry", viper.GetBool("telemetry"), func(v bool) {
		cliConfig.Telemetry = v
	})
	applyBoolDefault(flags, "headless", viper.GetBool("browser.headless"), func(v bool) {
		cliConfig.Browser.Headless = v
	})
	applyStringDefault(flags, "chrome-path", viper.GetString("browser.exec_path"), func(v string) {
		cliConfig.Browser.ExecPath = v
	})

	cliConfig.AllowedDomains = normalizeDomains(append(viper.GetStringSlice("allowed_domains"), extraAllowedDomains...))
}

// normalizeDomains lowercases, strips a leading "www." and drops blanks and duplicates.
func normalizeDomains(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		for _, part := range strings.Split(d, ",") {
			part = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(part)), "www.")
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyFloatDefault(flags *pflag.FlagSet, name string, value float64, setter func(float64)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}
