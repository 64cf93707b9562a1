package export

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
)

var ErrEmptyScreenshot = errors.New("export: chrome returned an empty screenshot")

// RasterizeSVG renders an SVG document to PNG bytes in headless Chrome.
// width > 0 scales the image to that many CSS pixels; otherwise the SVG's own
// size is used. Extra allocator options (chromedp.ExecPath, NoSandbox, ...)
// are appended to the defaults.
func RasterizeSVG(ctx context.Context, svg []byte, width int, opts ...chromedp.ExecAllocatorOption) ([]byte, error) {
	if len(svg) == 0 {
		return nil, errors.New("export: empty svg")
	}

	// 1. Wrap the SVG in a page so the browser handles sizing.
	style := "display:block"
	if width > 0 {
		style = fmt.Sprintf("display:block;width:%dpx;height:auto", width)
	}
	page := fmt.Sprintf(`<!DOCTYPE html><html><body style="margin:0;background:transparent">`+
		`<img id="overlay" style="%s" src="data:image/svg+xml;base64,%s"></body></html>`,
		style, base64.StdEncoding.EncodeToString(svg))
	pageURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(page))

	// 2. Start a headless browser bound to ctx.
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	allocOpts = append(allocOpts, opts...)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// 3. Screenshot the image element.
	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURI),
		chromedp.WaitVisible(`#overlay`, chromedp.ByQuery),
		chromedp.Screenshot(`#overlay`, &buf, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome rasterize: %w", err)
	}
	if len(buf) == 0 {
		return nil, ErrEmptyScreenshot
	}
	return buf, nil
}
