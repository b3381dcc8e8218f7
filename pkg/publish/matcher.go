package publish

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"redpilot/pkg/browser"
)

// The publish control has no stable selector, so it is matched by
// visible text. The sidebar carries an unrelated "发布笔记" entry, hence
// the exclusion keyword.
const (
	publishKeyword   = "发布"
	excludedKeyword  = "笔记"
	perStrategyShare = 3 // each strategy gets timeout/perStrategyShare
)

// IsPublishControl is the matcher predicate: the element text must
// contain the publish keyword and must not contain the sidebar's note
// keyword.
func IsPublishControl(text string) bool {
	return strings.Contains(text, publishKeyword) && !strings.Contains(text, excludedKeyword)
}

// publishControlStrategies are tried in order until one matches. Real
// buttons first, then elements merely playing the button role, then a
// structural fallback covering both.
var publishControlStrategies = []string{
	`button:has-text("发布"):not(:has-text("笔记"))`,
	`[role="button"]:has-text("发布"):not(:has-text("笔记"))`,
	`xpath=//*[(name()='button' or @role='button') and contains(., '发布') and not(contains(., '笔记'))]`,
}

// clickPublishControl walks the strategies and clicks the first whose
// element text passes the predicate. The selectors pre-filter; the
// predicate is authoritative, so a selector drifting out of sync with
// the keywords cannot click the wrong control.
func clickPublishControl(surface browser.Surface, timeout time.Duration) error {
	perStrategy := timeout / perStrategyShare

	var errs []error
	for _, strategy := range publishControlStrategies {
		text, err := surface.InnerText(strategy, perStrategy)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !IsPublishControl(text) {
			errs = append(errs, fmt.Errorf("%s matched %q, which is not the publish control", strategy, text))
			continue
		}
		return surface.Click(strategy, perStrategy)
	}

	return &browser.ElementTimeoutError{
		Selector: "publish control",
		Timeout:  timeout,
		Err:      errors.Join(errs...),
	}
}
