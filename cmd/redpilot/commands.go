package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"redpilot/pkg/auth"
	"redpilot/pkg/dispatch"
	"redpilot/pkg/publish"
	"redpilot/pkg/store"
)

// LoginCmd signs an account in. When a code is needed it is read
// interactively, because the code-requested browser session only lives
// as long as this process.
type LoginCmd struct {
	Phone string `arg:"" help:"Phone number the SMS code is sent to"`
}

func (c *LoginCmd) Run(app *app) error {
	result, err := waitFor(app, c.Phone, func() (*auth.StartLoginResult, error) {
		return app.auth.StartLogin(c.Phone)
	})
	if err != nil {
		return err
	}

	if result.AlreadyAuthenticated {
		fmt.Printf("Already logged in as %s\n", result.Identity.Nickname)
		return nil
	}

	code, err := promptCode()
	if err != nil {
		return err
	}

	identity, err := waitFor(app, c.Phone, func() (*auth.Identity, error) {
		return app.auth.SubmitCode(c.Phone, code)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", identity.Nickname)
	return nil
}

func promptCode() (string, error) {
	fmt.Print("Verification code: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read verification code: %w", err)
	}

	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("empty verification code")
	}
	return code, nil
}

// ValidateCmd checks login state without ever requesting a code.
type ValidateCmd struct {
	Phone string `arg:"" help:"Account to check"`
}

func (c *ValidateCmd) Run(app *app) error {
	identity, err := waitFor(app, c.Phone, func() (*auth.Identity, error) {
		return app.auth.Validate(c.Phone)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", identity.Nickname)
	return nil
}

// PublishCmd publishes one image post and records the attempt.
type PublishCmd struct {
	Phone string   `arg:"" help:"Account to publish as"`
	Title string   `help:"Post title"`
	Body  string   `help:"Post body text"`
	Image []string `help:"Image path, repeatable; the first is the cover unless --cover is set" type:"existingfile" required:""`
	Cover string   `help:"Explicit cover image path" type:"existingfile"`
}

func (c *PublishCmd) Run(app *app) error {
	job := &publish.Job{
		AccountID:  c.Phone,
		Title:      c.Title,
		Body:       c.Body,
		Images:     c.Image,
		CoverImage: c.Cover,
	}

	future := dispatch.SubmitErr(app.pool, context.Background(), c.Phone, func() error {
		return app.publish.Execute(job)
	})
	_, err := future.Wait(context.Background())

	post := &store.Post{
		AccountID:  c.Phone,
		Title:      c.Title,
		Content:    c.Body,
		Images:     c.Image,
		CoverImage: job.ResolveCover(),
		Status:     store.PostStatusPublished,
	}
	if err != nil {
		post.Status = store.PostStatusFailed
	}
	if saveErr := app.store.SavePost(post); saveErr != nil {
		app.log.Warnf("failed to record post: %v", saveErr)
	}

	if err != nil {
		return err
	}
	fmt.Printf("Published %q with %d image(s)\n", c.Title, len(c.Image))
	return nil
}

// LogoutCmd erases an account: session, profile directory, stored data.
type LogoutCmd struct {
	Phone string `arg:"" help:"Account to sign out"`
}

func (c *LogoutCmd) Run(app *app) error {
	future := dispatch.SubmitErr(app.pool, context.Background(), c.Phone, func() error {
		return app.auth.Logout(c.Phone)
	})
	if _, err := future.Wait(context.Background()); err != nil {
		return err
	}

	fmt.Printf("Account %s logged out and erased\n", c.Phone)
	return nil
}

// UsersCmd lists known accounts.
type UsersCmd struct{}

func (c *UsersCmd) Run(app *app) error {
	users, err := app.store.Users()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No accounts known. Run 'redpilot login <phone>' first.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tNICKNAME\tSIGNED IN")
	for _, user := range users {
		// updated_at is bumped on every successful login or validate.
		fmt.Fprintf(w, "%s\t%s\t%s\n", user.AccountID, user.Nickname, user.UpdatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

// PostsCmd lists an account's publish history.
type PostsCmd struct {
	Phone string `arg:"" help:"Account whose posts to list"`
}

func (c *PostsCmd) Run(app *app) error {
	posts, err := app.store.Posts(c.Phone)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Printf("No posts recorded for %s.\n", c.Phone)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tIMAGES\tSTATUS\tDATE")
	for _, post := range posts {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			post.ID, post.Title, len(post.Images), post.Status, post.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// waitFor runs one workflow on the dispatch pool and blocks for its
// result.
func waitFor[T any](app *app, accountID string, fn func() (T, error)) (T, error) {
	future := dispatch.Submit(app.pool, context.Background(), accountID, fn)
	return future.Wait(context.Background())
}
