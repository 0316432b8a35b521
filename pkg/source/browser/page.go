package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"emojiharvest/pkg/collector"

	"github.com/chromedp/chromedp"
)

// ScrollMetrics are the scroll dimensions of an element
type ScrollMetrics struct {
	Found        bool    `json:"found"`
	OffsetHeight float64 `json:"offsetHeight"`
	ScrollTop    float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// AtEnd reports whether the element is scrolled to the bottom
func (m ScrollMetrics) AtEnd() bool {
	return m.OffsetHeight+m.ScrollTop >= m.ScrollHeight
}

// Page is the part of a browser tab the source needs
type Page interface {
	Exists(ctx context.Context, sel string) (bool, error)
	Metrics(ctx context.Context, sel string) (ScrollMetrics, error)
	Items(ctx context.Context, itemSel, nameAttr string) ([]collector.Item, error)
	ScrollTo(ctx context.Context, sel string, y int) error
	ScrollBy(ctx context.Context, sel string, dy int) error
	Click(ctx context.Context, sel string) (bool, error)
	// DispatchMouse fires the given mouse events on the first match and
	// reports whether there was one
	DispatchMouse(ctx context.Context, sel string, events ...string) (bool, error)
}

// ChromePage drives a tab through chromedp. The tab context comes from
// Launch.
type ChromePage struct {
	tab context.Context
}

// NewChromePage wraps a chromedp tab context
func NewChromePage(tab context.Context) *ChromePage {
	return &ChromePage{tab: tab}
}

func (p *ChromePage) eval(ctx context.Context, js string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.tab, chromedp.Evaluate(js, out))
}

func (p *ChromePage) Exists(ctx context.Context, sel string) (bool, error) {
	var ok bool
	err := p.eval(ctx, fmt.Sprintf(`document.querySelector(%s) !== null`, quote(sel)), &ok)
	return ok, err
}

func (p *ChromePage) Metrics(ctx context.Context, sel string) (ScrollMetrics, error) {
	var m ScrollMetrics
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {found: false};
		return {found: true, offsetHeight: el.offsetHeight, scrollTop: el.scrollTop, scrollHeight: el.scrollHeight};
	})()`, quote(sel))
	err := p.eval(ctx, js, &m)
	return m, err
}

func (p *ChromePage) Items(ctx context.Context, itemSel, nameAttr string) ([]collector.Item, error) {
	var raw []collector.Item
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => {
		const img = el.children[0];
		return {name: el.getAttribute(%s) || "", url: (img && img.getAttribute("src")) || ""};
	})`, quote(itemSel), quote(nameAttr))
	if err := p.eval(ctx, js, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (p *ChromePage) ScrollTo(ctx context.Context, sel string, y int) error {
	var ok bool
	if err := p.eval(ctx, fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.scrollTo(0, %d);
		return true;
	})()`, quote(sel), y), &ok); err != nil {
		return err
	}
	return missing(ok, sel)
}

func (p *ChromePage) ScrollBy(ctx context.Context, sel string, dy int) error {
	var ok bool
	if err := p.eval(ctx, fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.scrollBy(0, %d);
		return true;
	})()`, quote(sel), dy), &ok); err != nil {
		return err
	}
	return missing(ok, sel)
}

func (p *ChromePage) Click(ctx context.Context, sel string) (bool, error) {
	var ok bool
	err := p.eval(ctx, fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.click();
		return true;
	})()`, quote(sel)), &ok)
	return ok, err
}

func (p *ChromePage) DispatchMouse(ctx context.Context, sel string, events ...string) (bool, error) {
	names, err := json.Marshal(events)
	if err != nil {
		return false, err
	}
	var ok bool
	err = p.eval(ctx, fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		%s.forEach(t => el.dispatchEvent(new MouseEvent(t, {view: window, bubbles: true, cancelable: true})));
		return true;
	})()`, quote(sel), names), &ok)
	return ok, err
}

// quote renders s as a JavaScript string literal
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func missing(ok bool, sel string) error {
	if !ok {
		return fmt.Errorf("element %s not found", sel)
	}
	return nil
}
