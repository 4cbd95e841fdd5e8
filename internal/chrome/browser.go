package chrome

import (
	"fmt"
	"os"

	"github.com/go-rod/rod/lib/launcher"
)

// browserEnv names an environment variable that overrides browser discovery.
const browserEnv = "HTMLPDF_BROWSER_BIN"

// resolveBrowser returns the browser executable to launch. An explicit path
// wins, then the HTMLPDF_BROWSER_BIN environment variable, then a browser
// installed on the system. When nothing is found and download is allowed, a
// compatible Chromium is fetched into ~/.cache/rod/browser (Unix) or
// %APPDATA%\rod\browser (Windows). An empty path lets chromedp search on
// its own.
func resolveBrowser(explicit string, download bool) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(browserEnv); env != "" {
		return env, nil
	}
	if path, ok := launcher.LookPath(); ok {
		return path, nil
	}
	if !download {
		return "", nil
	}
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("chrome: downloading browser: %w", err)
	}
	return path, nil
}
