// Package publish drives the multi-step image-post workflow against an
// authenticated creator session. Steps are strictly ordered and
// fail-fast: the first failing step aborts the workflow with its name
// and a diagnostic screenshot, and nothing is retried.
package publish

import (
	"time"

	"redpilot/pkg/browser"
	"redpilot/pkg/logging"
)

const (
	publishURL = "https://creator.xiaohongshu.com/publish/publish?from=homepage&target=image"

	coverInputSelector   = ".upload-input"
	editorSelector       = ".edit-container"
	titleInputSelector   = ".d-input-wrapper .d-text"
	bodyEditorSelector   = ".tiptap.ProseMirror"
	extraImagesSelector  = `input[type='file']`
	scrollToBottomScript = "window.scrollTo(0, document.body.scrollHeight)"
	scrollSettleDivisor  = 4
)

// Step names carried by failures.
const (
	stepNavigate       = "navigate_publish_page"
	stepWaitCoverInput = "wait_upload_input"
	stepUploadCover    = "upload_cover"
	stepWaitEditor     = "wait_edit_container"
	stepFillTitle      = "fill_title"
	stepFillBody       = "fill_content"
	stepFindPublish    = "find_publish_button"
)

// Options bound the executor's waits.
type Options struct {
	NavigationTimeout time.Duration
	ElementTimeout    time.Duration

	// SettleDelay covers the gaps where the single-page app exposes no
	// readiness signal: after the cover upload triggers and around the
	// publish click.
	SettleDelay time.Duration
}

// Executor runs publish jobs on sessions acquired from the manager.
type Executor struct {
	manager *browser.Manager
	diag    *browser.Diagnostics
	opts    Options
	log     *logging.Logger
}

// NewExecutor wires the publish workflow.
func NewExecutor(manager *browser.Manager, diag *browser.Diagnostics, opts Options, log *logging.Logger) *Executor {
	return &Executor{
		manager: manager,
		diag:    diag,
		opts:    opts,
		log:     log,
	}
}

// Execute publishes one image post. Validation failures return before
// any browser is touched.
func (e *Executor) Execute(job *Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	e.log.Infof("starting publish workflow for account %s: %q", job.AccountID, job.Title)

	// Reuse the account's registered session or clean locks and launch.
	session, err := e.manager.Acquire(job.AccountID)
	if err != nil {
		return err
	}
	surface := session.Surface

	if err := surface.Navigate(publishURL, e.opts.NavigationTimeout); err != nil {
		return e.fail(surface, stepNavigate, err)
	}
	e.diag.Capture(surface, "1_navigated")

	if err := surface.WaitFor(coverInputSelector, e.opts.ElementTimeout); err != nil {
		return e.fail(surface, stepWaitCoverInput, err)
	}

	cover := job.ResolveCover()
	e.log.Infof("uploading cover image: %s", cover)
	if err := surface.UploadFiles(coverInputSelector, []string{cover}, e.opts.ElementTimeout); err != nil {
		return e.fail(surface, stepUploadCover, err)
	}

	// The upload has no completion signal of its own; the editor
	// container appearing is the readiness check.
	e.settle(e.opts.SettleDelay)
	e.diag.Capture(surface, "2_cover_uploaded")

	if err := surface.WaitFor(editorSelector, e.opts.ElementTimeout); err != nil {
		// Most likely timeout of the workflow when the upload is slow;
		// the error names the selector being waited on.
		return e.fail(surface, stepWaitEditor, err)
	}
	e.diag.Capture(surface, "3_editor_loaded")

	if err := surface.TypeText(titleInputSelector, job.Title, e.opts.ElementTimeout); err != nil {
		return e.fail(surface, stepFillTitle, err)
	}

	if err := surface.TypeText(bodyEditorSelector, job.Body, e.opts.ElementTimeout); err != nil {
		return e.fail(surface, stepFillBody, err)
	}
	e.diag.Capture(surface, "4_content_filled")

	e.uploadRemainingImages(surface, job)
	e.diag.Capture(surface, "5_ready_to_publish")
	e.settle(e.opts.SettleDelay)

	if _, err := surface.Evaluate(scrollToBottomScript); err != nil {
		e.log.Debugf("scroll to bottom failed: %v", err)
	}
	e.settle(e.opts.SettleDelay / scrollSettleDivisor)

	if err := clickPublishControl(surface, e.opts.ElementTimeout); err != nil {
		return e.fail(surface, stepFindPublish, err)
	}

	// Confirmation screenshot is best-effort, not required for success.
	e.settle(e.opts.SettleDelay)
	e.diag.Capture(surface, "6_publish_clicked")

	e.log.Infof("publish workflow finished for account %s", job.AccountID)
	return nil
}

// uploadRemainingImages adds the non-cover images through the generic
// file input. Best-effort: a failure is logged as a warning and does
// not abort the workflow, because the images already on the post are
// not lost.
func (e *Executor) uploadRemainingImages(surface browser.Surface, job *Job) {
	remaining := job.RemainingImages()
	if len(remaining) == 0 {
		return
	}

	e.log.Infof("uploading %d remaining images", len(remaining))
	if err := surface.UploadFiles(extraImagesSelector, remaining, e.opts.ElementTimeout); err != nil {
		e.log.Warnf("failed to upload remaining images: %v", err)
		return
	}
	e.settle(e.opts.SettleDelay)
}

func (e *Executor) settle(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// fail captures diagnostics and wraps the error with the failing step
// name. No further steps run after this.
func (e *Executor) fail(surface browser.Surface, step string, err error) error {
	screenshot := e.diag.Capture(surface, "error_"+step)
	return &browser.StepError{Step: step, Screenshot: screenshot, Err: err}
}
