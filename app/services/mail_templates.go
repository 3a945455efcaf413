package services

import "html/template"

var magicLinkMail = template.Must(template.New("magic-link").Parse(`<!doctype html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <p>Hello,</p>
  <p>Use the link below to sign in to the Rainbow Artistery back office. It expires at {{.ExpiresAt}} and works once.</p>
  <p><a href="{{.URL}}">Sign in</a></p>
  <p>If you did not ask for this email you can ignore it.</p>
</body>
</html>`))

var enquiryMail = template.Must(template.New("enquiry").Parse(`<!doctype html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>New enquiry from {{.Name}}</h2>
  <p><strong>Email:</strong> {{.Email}}<br>
  <strong>Phone:</strong> {{.Phone}}{{if .ProductSlug}}<br>
  <strong>Product:</strong> {{.ProductSlug}}{{end}}{{if .FileURL}}<br>
  <strong>Attachment:</strong> <a href="{{.FileURL}}">{{.FileURL}}</a>{{end}}</p>
  <p style="white-space: pre-wrap;">{{.Message}}</p>
</body>
</html>`))
