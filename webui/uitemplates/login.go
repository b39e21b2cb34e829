package uitemplates

import "html/template"

type LogInParams struct {
	UserError string
}

var logInText = `{{define "title"}}Committee Log In{{end}}

{{define "content"}}
<div class="mx-auto" style="max-width: 24rem;">
  <h1 class="h3 my-4">Committee Log In</h1>
  {{if .UserError}}
  <div class="alert alert-danger">{{.UserError}}</div>
  {{end}}
  <form method="POST">
    <div class="mb-3">
      <label for="email" class="form-label">Email</label>
      <input type="email" name="email" id="email" class="form-control" required>
    </div>
    <div class="mb-3">
      <label for="password" class="form-label">Password</label>
      <input type="password" name="password" id="password" class="form-control" required>
    </div>
    <input type="submit" class="btn btn-primary" value="Log In">
    <a href="/" class="btn btn-link">Cancel</a>
  </form>
</div>
{{end}}
`

var LogInTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(logInText))
