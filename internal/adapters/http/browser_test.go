package web

import (
	"os"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"

	"gymhub/internal/adapters/storage/storagetest"
)

// newBrowserPage starts Chromium against app and returns a fresh page.
// Browser tests only run with GYM_BROWSER_TESTS=1 and installed browsers.
func newBrowserPage(t *testing.T, app *testApp) playwright.Page {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("GYM_BROWSER_TESTS") != "1" {
		t.Skip("set GYM_BROWSER_TESTS=1 to run browser tests")
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		t.Fatalf("failed to launch browser: %v", err)
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
	})

	page, err := browser.NewPage()
	if err != nil {
		t.Fatalf("failed to open page: %v", err)
	}
	return page
}

func browserLogin(t *testing.T, app *testApp, page playwright.Page, email string) {
	t.Helper()
	if _, err := page.Goto(app.srv.URL + "/login"); err != nil {
		t.Fatalf("goto login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(email); err != nil {
		t.Fatalf("fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(testPassword); err != nil {
		t.Fatalf("fill password: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("submit login: %v", err)
	}
	if err := page.WaitForURL(app.srv.URL+"/dashboard", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("login did not reach the dashboard: %v", err)
	}
}

func TestBrowser_CustomerCheckIn(t *testing.T) {
	app := newTestApp(t)
	page := newBrowserPage(t, app)
	browserLogin(t, app, page, adminEmail)

	if _, err := page.Goto(app.srv.URL + "/customers/new"); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("input[name=name]").Fill("Dora Pires"); err != nil {
		t.Fatal(err)
	}
	if _, err := page.Locator("select[name=subscription_type]").SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice("yearly"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("button[type=submit]", playwright.PageLocatorOptions{HasText: "Save"}).Click(); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("td >> text=Dora Pires").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("new customer not listed: %v", err)
	}

	if _, err := page.Goto(app.srv.URL + "/attendance"); err != nil {
		t.Fatal(err)
	}
	if _, err := page.Locator("select[name=customer_id]").SelectOption(playwright.SelectOptionValues{
		Labels: playwright.StringSlice("Dora Pires"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("button", playwright.PageLocatorOptions{HasText: "Check in"}).First().Click(); err != nil {
		t.Fatal(err)
	}
	notice, err := page.Locator(".notice-success").TextContent()
	if err != nil {
		t.Fatalf("no success notice: %v", err)
	}
	if !strings.Contains(notice, "Dora Pires") {
		t.Errorf("notice = %q, want it to name the customer", notice)
	}
	if n := storagetest.Count(t, app.db, `SELECT COUNT(*) FROM attendance WHERE check_out IS NULL`); n != 1 {
		t.Errorf("open visits = %d, want 1", n)
	}
}

func TestBrowser_CalendarRendersDays(t *testing.T) {
	app := newTestApp(t)
	page := newBrowserPage(t, app)
	browserLogin(t, app, page, adminEmail)

	if _, err := page.Goto(app.srv.URL + "/scheduling/calendar?from=2026-03-01&to=2026-03-07"); err != nil {
		t.Fatal(err)
	}
	days := page.Locator("#calendar .day")
	if err := days.First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("calendar did not render: %v", err)
	}
	n, err := days.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Errorf("calendar days = %d, want 7", n)
	}
}
