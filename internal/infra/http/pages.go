package http

import (
	"html/template"
	"io"

	"edupay/internal/usecase"
)

// The callback runs embedded in an iframe/webview: both pages post a status
// message to the parent window, and the success page holds a short countdown
// before revealing download links while the converter prepares the document.

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Payment Successful</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        .success { color: #4CAF50; }
        .item { margin: 12px auto; max-width: 480px; border: 1px solid #ddd; border-radius: 6px; padding: 12px; }
        .download { display: none; }
        .password { font-family: monospace; }
    </style>
</head>
<body>
    <h1 class="success">Payment Successful!</h1>
    <p>Your purchase has been confirmed.</p>
    {{range .Items}}
    <div class="item">
        <strong>{{if .ProductName}}{{.ProductName}}{{else}}{{.ProductID}}{{end}}</strong>
        <p>Valid until {{.ExpiresAt.Format "02/01/2006"}}</p>
        {{if .DownloadLink}}
        <p class="countdown">Preparing your document&hellip; <span id="cd-{{.ProductID}}">{{$.Countdown}}</span>s</p>
        <p class="download"><a href="{{.DownloadLink}}">Download</a> &mdash; password: <span class="password">{{.Password}}</span></p>
        {{end}}
    </div>
    {{end}}
    <script>
        window.parent.postMessage({status: 'success'}, '*');
        var left = {{.Countdown}};
        var tick = setInterval(function () {
            left--;
            document.querySelectorAll('.countdown span').forEach(function (el) { el.textContent = left; });
            if (left <= 0) {
                clearInterval(tick);
                document.querySelectorAll('.countdown').forEach(function (el) { el.style.display = 'none'; });
                document.querySelectorAll('.download').forEach(function (el) { el.style.display = 'block'; });
            }
        }, 1000);
    </script>
</body>
</html>
`))

var failurePage = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Payment Failed</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        .error { color: #F44336; }
        .code { color: #888; font-size: 0.9em; }
    </style>
</head>
<body>
    <h1 class="error">Payment Failed</h1>
    <p>{{.Message}}</p>
    {{if .Code}}<p class="code">Processor code: {{.Code}}</p>{{end}}
    <script>window.parent.postMessage({status: 'failed'}, '*');</script>
</body>
</html>
`))

var alreadyPurchasedPage = template.Must(template.New("already").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Already Purchased</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        .password { font-family: monospace; }
    </style>
</head>
<body>
    <h1>You already own this book</h1>
    <p><a href="{{.DownloadLink}}">Download it again</a></p>
    <p>Password: <span class="password">{{.Password}}</span></p>
</body>
</html>
`))

type successData struct {
	Items     []usecase.FulfilledItem
	Countdown int
}

type failureData struct {
	Message string
	Code    string
}

type alreadyData struct {
	DownloadLink string
	Password     string
}

const downloadCountdownSeconds = 15

func renderSuccess(w io.Writer, items []usecase.FulfilledItem) error {
	return successPage.Execute(w, successData{Items: items, Countdown: downloadCountdownSeconds})
}

func renderFailure(w io.Writer, message, code string) error {
	return failurePage.Execute(w, failureData{Message: message, Code: code})
}

func renderAlreadyPurchased(w io.Writer, link, password string) error {
	return alreadyPurchasedPage.Execute(w, alreadyData{DownloadLink: link, Password: password})
}
