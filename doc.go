// Package htmlpdf converts HTML documents to PDF with a headless browser.
//
// A [Converter] owns a single render surface and runs one conversion at a
// time. Each request moves through a fixed sequence of states: the document
// is loaded, images are awaited, the layout is given a short settle delay,
// and the page is printed to a PDF. The surface is then detached and its site
// data purged before the outcome is delivered. A request submitted while
// another is in flight is refused with [ErrBusy]; it is never queued.
//
// For one-off conversions use the package-level helpers:
//
//	path, err := htmlpdf.ConvertToFile(ctx, "/srv/report.html", nil)
//	data, err := htmlpdf.ConvertToBytes(ctx, "<h1>Hello</h1>", &htmlpdf.Letter)
//
// For repeated conversions create a [Converter], which reuses the browser
// process:
//
//	c, err := htmlpdf.NewConverter(htmlpdf.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	res, err := c.Convert(ctx, htmlpdf.BytesRequest(html, nil))
//
// A nil [PageSize] selects A4. Page sizes are in PDF points.
//
// File-mode requests write to a fixed artifact path under the files
// directory, so each call replaces the previous file. Byte-mode requests go
// through a scratch file in the cache directory that is removed before the
// bytes are returned.
//
// [Converter.Submit] is the asynchronous form: the outcome is handed to a
// [ResultSink] exactly once, after the surface has been released.
//
// Failures are *[Error] values carrying a wire code such as BUSY or
// NAVIGATION_ERROR; match them with errors.Is against the exported sentinels:
//
//	if errors.Is(err, htmlpdf.ErrBusy) {
//	    // retry later
//	}
//
// Chrome or Chromium must be available in PATH, or use [WithAutoDownload]:
//
//	c, err := htmlpdf.NewConverter(htmlpdf.WithAutoDownload())
package htmlpdf
