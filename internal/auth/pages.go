package auth

import (
	"html/template"
	"net/http"
)

// The browser lands on these pages after the provider redirect. They close
// the loop for the user; the real result travels through the result channel.

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>StaticCMS - Signed In</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f6f8fa; margin: 0; }
    .card { max-width: 26rem; margin: 6rem auto; padding: 2rem; background: #fff;
            border: 1px solid #d0d7de; border-radius: 8px; text-align: center; }
    h1 { font-size: 1.25rem; color: #1a7f37; }
    p { color: #57606a; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Signed in to GitHub</h1>
    <p>You can close this tab and return to StaticCMS.</p>
  </div>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>StaticCMS - Sign-in Failed</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f6f8fa; margin: 0; }
    .card { max-width: 26rem; margin: 6rem auto; padding: 2rem; background: #fff;
            border: 1px solid #d0d7de; border-radius: 8px; text-align: center; }
    h1 { font-size: 1.25rem; color: #cf222e; }
    p { color: #57606a; }
    code { background: #f6f8fa; padding: 0.1rem 0.3rem; border-radius: 4px; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Sign-in failed</h1>
    <p><code>{{.Code}}</code></p>
    {{if .Description}}<p>{{.Description}}</p>{{end}}
    <p>Close this tab and try again from StaticCMS.</p>
  </div>
</body>
</html>
`))

func writeSuccessPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, nil)
}

func writeErrorPage(w http.ResponseWriter, code, description string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = errorPage.Execute(w, struct {
		Code        string
		Description string
	}{Code: code, Description: description})
}
