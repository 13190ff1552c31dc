package http

import (
	"net/http"
	"net/url"
)

// RedirectWithParams sends a 303 redirect to target with the given query
// parameters merged in. Form handlers use it to bounce the browser back to
// the form with an error or success code attached; the POST body is never
// re-submitted.
func RedirectWithParams(w http.ResponseWriter, r *http.Request, target string, params map[string]string) {
	u, err := url.Parse(target)
	if err != nil {
		// A malformed target is a configuration bug; fall back to the root.
		u = &url.URL{Path: "/"}
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// RedirectError redirects back to target with an error code in the "error"
// query parameter.
func RedirectError(w http.ResponseWriter, r *http.Request, target, code string) {
	RedirectWithParams(w, r, target, map[string]string{"error": code})
}

// RedirectSuccess redirects back to target with a success code in the
// "success" query parameter.
func RedirectSuccess(w http.ResponseWriter, r *http.Request, target, code string) {
	RedirectWithParams(w, r, target, map[string]string{"success": code})
}
