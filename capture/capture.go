package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/time/rate"

	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/models"
)

// captured is the outcome of one successful resolution: the provenance URL
// and the verbatim payload it served.
type captured struct {
	sourceURL   string
	body        []byte
	contentType string
}

// driver abstracts the two resolution strategies over a live page, so the
// capture loop (budgeting, bookkeeping, persistence) is testable without a
// browser. rodDriver is the production implementation.
type driver interface {
	direct(ctx context.Context, art *models.ArtifactRecord) (*captured, error)
	triggered(ctx context.Context, art *models.ArtifactRecord) (*captured, error)
}

// Capturer resolves a record's artifact placeholders. Captures within one
// entity run strictly sequentially: triggered resolution owns the browsing
// context's focus and history, so concurrency would corrupt both.
type Capturer struct {
	sess    *Session
	store   *Store
	fetch   *fetcher
	cfg     config.CaptureConfig
	limiter *rate.Limiter
}

func NewCapturer(sess *Session, store *Store, cfg config.CaptureConfig, proxy string) (*Capturer, error) {
	f, err := newFetcher(proxy)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeConfig, "invalid capture proxy", err)
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Capturer{
		sess:    sess,
		store:   store,
		fetch:   f,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// CaptureEntity opens the entity's detail page and works through the
// record's placeholders in discovery order. Individual field failures are
// recorded on the artifact and do not stop the loop; only failure to reach
// the detail page at all is an entity-level error.
func (c *Capturer) CaptureEntity(ctx context.Context, entityID string, rec *models.CanonicalRecord) error {
	if len(rec.ArtifactOrder) == 0 {
		return nil
	}

	detailURL := fmt.Sprintf(c.cfg.DetailURL, url.PathEscape(entityID))
	page, err := c.sess.OpenEntity(ctx, detailURL)
	if err != nil {
		for _, key := range rec.ArtifactOrder {
			rec.Artifacts[key].MarkUnresolved("detail page unreachable: " + err.Error())
		}
		return err
	}
	defer page.Close()

	c.run(ctx, &rodDriver{page: page, fetch: c.fetch}, rec)
	Backpropagate(rec)
	return nil
}

// run is the per-entity capture loop: politeness wait, per-field time
// budget, strategy dispatch, persistence, status bookkeeping.
func (c *Capturer) run(ctx context.Context, drv driver, rec *models.CanonicalRecord) {
	for _, key := range rec.ArtifactOrder {
		art := rec.Artifacts[key]
		if art == nil || art.Status != models.ArtifactPending {
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			art.MarkUnresolved("capture run canceled: " + err.Error())
			continue
		}

		fieldCtx, cancel := context.WithTimeout(ctx, c.cfg.FieldTimeout)
		got, err := c.resolve(fieldCtx, drv, art)
		cancel()

		if err != nil {
			perr := categorize(err, key)
			art.MarkUnresolved(perr.Message + ": " + err.Error())
			rec.AddWarning(perr.Code, key, err.Error())
			slog.Warn("artifact capture failed",
				"entityID", rec.EntityID, "field", key, "code", perr.Code, "error", err)
			continue
		}

		files, artifactType, err := c.store.Persist(rec.EntityID, key, got.body, got.contentType, got.sourceURL)
		if err != nil {
			art.MarkUnresolved("persist failed: " + err.Error())
			rec.AddWarning(models.ErrCodeInternal, key, err.Error())
			continue
		}

		art.MarkResolved(got.sourceURL, artifactType, files)
		slog.Debug("artifact captured",
			"entityID", rec.EntityID, "field", key, "type", artifactType, "sourceURL", got.sourceURL)
	}
}

func (c *Capturer) resolve(ctx context.Context, drv driver, art *models.ArtifactRecord) (*captured, error) {
	switch {
	case art.DirectURL != "":
		return drv.direct(ctx, art)
	case art.Trigger != nil:
		return drv.triggered(ctx, art)
	default:
		return nil, errors.New("placeholder carries neither a direct URL nor a trigger")
	}
}

// categorize folds a capture failure into the error taxonomy: time-budget
// exhaustion is distinct from navigation failure so operators can tune the
// budget separately from investigating portal breakage.
func categorize(err error, fieldKey string) *models.PipelineError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewPipelineError(models.ErrCodeCaptureTimeout,
			"field capture budget exhausted for "+fieldKey, err)
	case errors.Is(err, context.Canceled):
		return models.NewPipelineError(models.ErrCodeCaptureTimeout,
			"field capture canceled for "+fieldKey, err)
	default:
		return models.NewPipelineError(models.ErrCodeCaptureNavigation,
			"capture navigation failed for "+fieldKey, err)
	}
}

// rodDriver runs the two strategies against a live detail page.
type rodDriver struct {
	page  *rod.Page
	fetch *fetcher
}

// direct resolves a placeholder that already carries an href. The fast path
// downloads over HTTP with the session's politeness already paid; if the
// portal rejects the out-of-browser request, a throwaway tab renders it.
func (d *rodDriver) direct(ctx context.Context, art *models.ArtifactRecord) (*captured, error) {
	target, err := d.absoluteURL(art.DirectURL)
	if err != nil {
		return nil, err
	}

	body, finalURL, contentType, ferr := d.fetch.get(ctx, target, d.cookieHeader(target))
	if ferr == nil {
		return &captured{sourceURL: finalURL, body: body, contentType: contentType}, nil
	}
	slog.Debug("direct fetch failed, falling back to browser", "url", target, "error", ferr)

	tab, err := d.page.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening tab for %s: %w", target, err)
	}
	defer tab.Close()

	t := tab.Context(ctx)
	if err := t.Navigate(target); err != nil {
		return nil, fmt.Errorf("navigating tab to %s: %w", target, err)
	}
	if err := t.WaitLoad(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", target, err)
	}

	info, err := t.Info()
	if err != nil {
		return nil, fmt.Errorf("reading tab info for %s: %w", target, err)
	}
	html, err := t.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading tab content for %s: %w", target, err)
	}

	return &captured{sourceURL: info.URL, body: []byte(html), contentType: "text/html"}, nil
}

// triggered resolves a script-driven placeholder: locate the trigger, arm
// the pop-up wait before clicking, read the pop-up's settled URL, capture
// its content, then restore the origin page via history back-navigation.
// Re-issuing the original URL is not an option — it would reset the
// portal's server-side view state.
func (d *rodDriver) triggered(ctx context.Context, art *models.ArtifactRecord) (*captured, error) {
	p := d.page.Context(ctx)

	el, err := d.locateTrigger(p, art.Trigger)
	if err != nil {
		return nil, fmt.Errorf("locating trigger: %w", err)
	}

	wait := p.WaitOpen()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("clicking trigger: %w", err)
	}

	popup, err := wait()
	if err != nil {
		return nil, fmt.Errorf("waiting for pop-up: %w", err)
	}
	pp := popup.Context(ctx)
	if err := pp.WaitLoad(); err != nil {
		slog.Debug("pop-up load wait failed, reading current state", "error", err)
	}

	info, err := pp.Info()
	if err != nil {
		popup.Close()
		return nil, fmt.Errorf("reading pop-up info: %w", err)
	}
	sourceURL := info.URL

	// Prefer downloading the resolved URL over scraping the pop-up DOM:
	// PDFs and images render through a viewer, the DOM is not the payload.
	// The session's cookies travel with the request — on this portal the
	// resolved URL only serves the document to the logged-in session.
	body, finalURL, contentType, ferr := d.fetch.get(ctx, sourceURL, d.cookieHeader(sourceURL))
	if ferr != nil {
		html, herr := pp.HTML()
		if herr != nil {
			popup.Close()
			return nil, fmt.Errorf("pop-up content unreadable (fetch: %v): %w", ferr, herr)
		}
		body, finalURL, contentType = []byte(html), sourceURL, "text/html"
	}

	popup.Close()

	if err := p.NavigateBack(); err != nil {
		return nil, fmt.Errorf("history back-navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		slog.Debug("origin page reload wait failed after back-navigation", "error", err)
	}

	return &captured{sourceURL: finalURL, body: body, contentType: contentType}, nil
}

// locateTrigger finds the clickable element: by recorded selector when one
// survived extraction, otherwise by visible text.
func (d *rodDriver) locateTrigger(p *rod.Page, hint *models.TriggerHint) (*rod.Element, error) {
	if hint == nil {
		return nil, errors.New("no trigger hint recorded")
	}
	if hint.Selector != "" {
		el, err := p.Element(hint.Selector)
		if err == nil {
			return el, nil
		}
		slog.Debug("trigger selector miss, retrying by text", "selector", hint.Selector, "error", err)
	}
	if hint.Text == "" {
		return nil, errors.New("trigger hint has no text to match")
	}
	pattern := "/" + regexp.QuoteMeta(hint.Text) + "/i"
	return p.ElementR(`a, button, input`, pattern)
}

// cookieHeader serializes the browsing session's cookies for target into a
// Cookie header value, so out-of-browser downloads present the same session
// the portal granted the browser.
func (d *rodDriver) cookieHeader(target string) string {
	cookies, err := d.page.Cookies([]string{target})
	if err != nil {
		slog.Debug("reading session cookies failed", "url", target, "error", err)
		return ""
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// absoluteURL resolves an href from the page against the page's own URL.
func (d *rodDriver) absoluteURL(href string) (string, error) {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}
	info, err := d.page.Info()
	if err != nil {
		return "", fmt.Errorf("reading page URL: %w", err)
	}
	base, err := url.Parse(info.URL)
	if err != nil {
		return "", fmt.Errorf("parsing page URL %q: %w", info.URL, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parsing href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
