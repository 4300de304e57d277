package auth

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/skratchdot/open-golang/open"

	"staticcms/internal/logging"
)

// openBrowser opens the authorization URL in the user's default browser.
// When no browser can be launched the sign-in still proceeds: the caller
// surfaces the URL so the user can open it themselves.
func openBrowser(url string) error {
	if err := open.Run(url); err == nil {
		return nil
	}
	logging.Debug("open-golang failed, trying platform-specific commands")
	return openBrowserFallback(url)
}

func openBrowserFallback(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		for _, browser := range []string{"xdg-open", "x-www-browser", "firefox", "chromium", "google-chrome"} {
			if _, err := exec.LookPath(browser); err == nil {
				cmd = exec.Command(browser, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no suitable browser found")
		}
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
