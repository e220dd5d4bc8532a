// Package capture resolves artifact placeholders to persisted content and a
// provenance URL, using a live browsing context for fields that hide their
// destination behind script-driven triggers.
package capture

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/models"
)

// Session owns one interactive browsing context. Triggered captures need
// exclusive control of the context's focus, so all captures for one entity
// run sequentially against one Session; parallelism across entities takes
// one Session each.
type Session struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
	owned   bool // we launched the browser and must kill it on Close
}

// NewSession launches a browser, or attaches to the externally managed one
// when cfg.CDPURL is set (the session collaborator's live context, with the
// portal login and CAPTCHA already behind it).
func NewSession(cfg config.BrowserConfig) (*Session, error) {
	if cfg.CDPURL != "" {
		browser := rod.New().ControlURL(cfg.CDPURL)
		if err := browser.Connect(); err != nil {
			return nil, models.NewPipelineError(models.ErrCodeBrowserCrash,
				"failed to connect to CDP URL", err)
		}
		return &Session{browser: browser, cfg: cfg}, nil
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// Pop-up blocking must stay off: the triggered strategy depends on the
	// portal's script-opened windows actually opening.
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeBrowserCrash,
			"failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeBrowserCrash,
			"failed to connect to browser", err)
	}

	return &Session{browser: browser, cfg: cfg, owned: true}, nil
}

// OpenEntity navigates a fresh page to the entity's detail flow and waits
// for it to settle. The caller owns the returned page and must Close it.
func (s *Session) OpenEntity(ctx context.Context, url string) (*rod.Page, error) {
	var page *rod.Page
	var err error

	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeBrowserCrash,
			"failed to create page", err)
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Accept-Language": gson.New("en-IN,en;q=0.9"),
		},
	}.Call(page)

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		page.Close()
		return nil, models.NewPipelineError(models.ErrCodeCaptureNavigation,
			"navigation to entity detail page failed", err)
	}
	if err := p.WaitLoad(); err != nil {
		slog.Warn("entity page load wait timed out, proceeding", "url", url, "error", err)
	}

	return page, nil
}

// Close releases the browsing context. An attached browser is only
// disconnected; an owned one is killed.
func (s *Session) Close() {
	if s.browser == nil {
		return
	}
	if s.owned {
		s.browser.MustClose()
	} else {
		_ = s.browser.Close()
	}
}
