package browser

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// pageSurface implements Surface on a Playwright page.
type pageSurface struct {
	page playwright.Page
}

// NewPageSurface wraps a Playwright page as a workflow Surface.
func NewPageSurface(page playwright.Page) Surface {
	return &pageSurface{page: page}
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (s *pageSurface) Navigate(url string, timeout time.Duration) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   millis(timeout),
	})
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

func (s *pageSurface) WaitFor(selector string, timeout time.Duration) error {
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(timeout),
	})
	if err != nil {
		return &ElementTimeoutError{Selector: selector, Timeout: timeout, Err: err}
	}
	return nil
}

func (s *pageSurface) Click(selector string, timeout time.Duration) error {
	err := s.page.Click(selector, playwright.PageClickOptions{
		Timeout: millis(timeout),
	})
	if err != nil {
		return &ElementInteractionError{Selector: selector, Action: "click", Err: err}
	}
	return nil
}

func (s *pageSurface) TypeText(selector, text string, timeout time.Duration) error {
	// Click first so typing goes through real key events; the rich-text
	// editor on the target site ignores programmatic value assignment.
	if err := s.Click(selector, timeout); err != nil {
		return err
	}
	if err := s.page.Keyboard().Type(text); err != nil {
		return &ElementInteractionError{Selector: selector, Action: "type", Err: err}
	}
	return nil
}

func (s *pageSurface) UploadFiles(selector string, paths []string, timeout time.Duration) error {
	if err := s.WaitFor(selector, timeout); err != nil {
		return err
	}

	files := make([]playwright.InputFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return &ElementInteractionError{
				Selector: selector,
				Action:   "upload",
				Err:      fmt.Errorf("failed to read %s: %w", path, err),
			}
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		files = append(files, playwright.InputFile{
			Name:     filepath.Base(path),
			MimeType: mimeType,
			Buffer:   data,
		})
	}

	if err := s.page.SetInputFiles(selector, files); err != nil {
		return &ElementInteractionError{Selector: selector, Action: "upload", Err: err}
	}
	return nil
}

func (s *pageSurface) InnerText(selector string, timeout time.Duration) (string, error) {
	if err := s.WaitFor(selector, timeout); err != nil {
		return "", err
	}
	text, err := s.page.InnerText(selector)
	if err != nil {
		return "", &ElementInteractionError{Selector: selector, Action: "read text", Err: err}
	}
	return text, nil
}

func (s *pageSurface) Attribute(selector, name string, timeout time.Duration) (string, error) {
	if err := s.WaitFor(selector, timeout); err != nil {
		return "", err
	}
	value, err := s.page.GetAttribute(selector, name)
	if err != nil {
		return "", &ElementInteractionError{Selector: selector, Action: "read attribute", Err: err}
	}
	return value, nil
}

func (s *pageSurface) Evaluate(expression string) (any, error) {
	return s.page.Evaluate(expression)
}

func (s *pageSurface) WaitForLoad(timeout time.Duration) error {
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: millis(timeout),
	})
	if err != nil {
		return &NavigationError{URL: s.page.URL(), Err: err}
	}
	return nil
}

func (s *pageSurface) Screenshot(path string) error {
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Path:     playwright.String(path),
	})
	return err
}

func (s *pageSurface) Content() (string, error) {
	return s.page.Content()
}

func (s *pageSurface) URL() string {
	return s.page.URL()
}
