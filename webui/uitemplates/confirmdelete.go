package uitemplates

import "html/template"

type ConfirmDeleteParams struct {
	What       string
	Detail     string
	ActionLink string
	ID         string
}

var confirmDeleteText = `{{define "title"}}Confirm Deletion{{end}}

{{define "content"}}
<div class="mx-auto my-4" style="max-width: 32rem;">
  <h1 class="h3">Delete {{.What}}?</h1>
  <p>This will permanently remove the {{.What}} from the archive:</p>
  <blockquote class="blockquote border-start ps-3">{{.Detail}}</blockquote>
  <form method="POST" action="{{.ActionLink}}">
    <input type="hidden" name="id" value="{{.ID}}">
    <input type="hidden" name="confirmed" value="1">
    <button type="submit" class="btn btn-danger">Delete</button>
    <a href="/" class="btn btn-secondary">Cancel</a>
  </form>
</div>
{{end}}
`

var ConfirmDeleteTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(confirmDeleteText))
