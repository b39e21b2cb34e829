package uitemplates

import "html/template"

type HomeParams struct {
	Admin        bool
	SignedIn     bool
	Connectivity ConnectivityParams

	HeroQuote      string
	ProfilePicture string
	RetirementDate string
	Countdown      CountdownParams

	Committee []CommitteeParams
	Support   SupportParams

	Categories     []string
	ActiveCategory string
	Gallery        []GalleryEntryParams

	Tributes        []TributeParams
	Draft           TributeDraftParams
	TributePosted   bool
	TributesBlocked bool

	UserError string
}

type ConnectivityParams struct {
	Degraded bool
	Detail   string
}

type CountdownParams struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

type CommitteeParams struct {
	Name    string
	Role    string
	Subtext string
	Phone   string
}

type SupportParams struct {
	Name    string
	Account string
	Bank    string
	Contact string
}

type GalleryEntryParams struct {
	ID         string
	ImageURL   string
	Caption    string
	Category   string
	DeleteLink string
}

type TributeParams struct {
	ID           string
	Name         string
	Relationship string
	Message      string
	Date         string
	DeleteLink   string
}

type TributeDraftParams struct {
	Name         string
	Relationship string
	Message      string
}

var homeText = `{{define "title"}}Home{{end}}

{{define "adminbar"}}
{{if .Admin}}
<div class="bg-dark text-white py-1">
  <div class="container d-flex justify-content-between align-items-center">
    <span class="small">Admin mode active</span>
    <form method="POST" action="/log-out" class="m-0">
      <button type="submit" class="btn btn-sm btn-outline-light">Log Out</button>
    </form>
  </div>
</div>
{{end}}
{{end}}

{{define "content"}}
{{if .Connectivity.Degraded}}
<div class="alert alert-warning d-flex justify-content-between align-items-center">
  <span>Connection to the archive service failed. {{.Connectivity.Detail}}</span>
  <form method="POST" action="/retry" class="m-0">
    <button type="submit" class="btn btn-sm btn-outline-dark">Retry</button>
  </form>
</div>
{{end}}

{{if .UserError}}
<div class="alert alert-danger">{{.UserError}}</div>
{{end}}

<section class="text-center py-5">
  <img src="{{.ProfilePicture}}" alt="Portrait of Alhaji Ibrahim Saidu" class="rounded-circle mb-4" width="180" height="180" style="object-fit: cover;">
  <h1 class="display-5">Alhaji Ibrahim Saidu</h1>
  <p class="text-muted">Deputy Director, NYSC Katsina State Secretariat</p>
  <blockquote class="blockquote mx-auto" style="max-width: 40rem;">
    <p>&ldquo;{{.HeroQuote}}&rdquo;</p>
  </blockquote>
</section>

<section class="text-center py-4 bg-body-tertiary rounded">
  <h2 class="h4">Countdown to Retirement</h2>
  <p class="text-muted small">Pull-out date: {{.RetirementDate}}</p>
  <div class="row justify-content-center">
    <div class="col-2"><div class="display-6">{{.Countdown.Days}}</div><div class="small text-muted">Days</div></div>
    <div class="col-2"><div class="display-6">{{.Countdown.Hours}}</div><div class="small text-muted">Hours</div></div>
    <div class="col-2"><div class="display-6">{{.Countdown.Minutes}}</div><div class="small text-muted">Minutes</div></div>
    <div class="col-2"><div class="display-6">{{.Countdown.Seconds}}</div><div class="small text-muted">Seconds</div></div>
  </div>
</section>

<section class="py-5">
  <h2>A Legacy of Service</h2>
  <p>For nearly three decades, Alhaji Ibrahim Saidu has served the National Youth
  Service Corps with unwavering dedication, shepherding generations of corps
  members through their year of national service in Katsina State. His career
  stands as a testament to integrity, diligence, and quiet leadership.</p>
</section>

{{if .Admin}}
<section class="py-4 border rounded p-3">
  <h2 class="h4">Site Settings</h2>
  <form method="POST" action="/save-config" class="mb-3">
    <div class="mb-2">
      <label for="quote" class="form-label">Hero Quote</label>
      <textarea name="quote" id="quote" class="form-control" rows="2">{{.HeroQuote}}</textarea>
    </div>
    <div class="mb-2">
      <label for="date" class="form-label">Retirement Date</label>
      <input type="date" name="date" id="date" class="form-control" value="{{.RetirementDate}}">
    </div>
    <button type="submit" class="btn btn-primary btn-sm">Save Settings</button>
  </form>
  <form method="POST" action="/update-portrait" enctype="multipart/form-data">
    <label for="portrait" class="form-label">Portrait Photo</label>
    <div class="input-group">
      <input type="file" name="portrait" id="portrait" class="form-control" accept="image/*" required>
      <button type="submit" class="btn btn-primary btn-sm">Update Portrait</button>
    </div>
  </form>
</section>
{{end}}

<section class="py-5" id="gallery">
  <h2>Gallery</h2>
  <ul class="nav nav-pills mb-3">
    {{$active := .ActiveCategory}}
    {{range .Categories}}
    <li class="nav-item">
      <a class="nav-link{{if eq . $active}} active{{end}}" href="/?category={{.}}#gallery">{{.}}</a>
    </li>
    {{end}}
  </ul>
  <div class="row g-3">
    {{range .Gallery}}
    <div class="col-6 col-md-4">
      <div class="card h-100">
        <img src="{{.ImageURL}}" class="card-img-top" alt="{{.Caption}}" style="object-fit: cover; height: 180px;">
        <div class="card-body">
          <p class="card-text">{{.Caption}}</p>
          <span class="badge text-bg-secondary">{{.Category}}</span>
          {{if .DeleteLink}}
          <a href="{{.DeleteLink}}" class="btn btn-sm btn-outline-danger float-end">Delete</a>
          {{end}}
        </div>
      </div>
    </div>
    {{else}}
    <p class="text-muted">No photographs in this category yet.</p>
    {{end}}
  </div>
  {{if .Admin}}
  <form method="POST" action="/add-gallery-entry" enctype="multipart/form-data" class="border rounded p-3 mt-3">
    <h3 class="h5">Add Photograph</h3>
    <div class="mb-2">
      <input type="file" name="image" class="form-control" accept="image/*" required>
    </div>
    <div class="mb-2">
      <input type="text" name="caption" class="form-control" placeholder="Description">
    </div>
    <div class="mb-2">
      <select name="category" class="form-select">
        {{range .Categories}}{{if ne . "All"}}<option value="{{.}}">{{.}}</option>{{end}}{{end}}
      </select>
    </div>
    <button type="submit" class="btn btn-primary btn-sm">Add to Gallery</button>
  </form>
  {{end}}
</section>

<section class="py-5" id="tributes">
  <h2>Tribute Wall</h2>
  {{if .TributePosted}}
  <div class="alert alert-success">Your tribute has been posted. Thank you.</div>
  {{end}}
  {{if .TributesBlocked}}
  <div class="alert alert-warning">Tributes are temporarily unavailable.</div>
  {{end}}
  <form method="POST" action="/submit-tribute" class="border rounded p-3 mb-4">
    <div class="row g-2 mb-2">
      <div class="col-md-6">
        <input type="text" name="name" class="form-control" placeholder="Your Name" value="{{.Draft.Name}}">
      </div>
      <div class="col-md-6">
        <input type="text" name="relationship" class="form-control" placeholder="Relationship (e.g. Colleague, Corps Member)" value="{{.Draft.Relationship}}">
      </div>
    </div>
    <div class="mb-2">
      <textarea name="message" class="form-control" rows="4" placeholder="Your tribute">{{.Draft.Message}}</textarea>
    </div>
    <button type="submit" class="btn btn-primary">Post Tribute</button>
    <button type="submit" class="btn btn-outline-secondary" formaction="/generate-tribute">Help Me Write</button>
  </form>
  {{range .Tributes}}
  <div class="card mb-3">
    <div class="card-body">
      <p class="card-text">{{.Message}}</p>
      <footer class="text-muted small">
        <strong>{{.Name}}</strong> &middot; {{.Relationship}} &middot; {{.Date}}
        {{if .DeleteLink}}
        <a href="{{.DeleteLink}}" class="btn btn-sm btn-outline-danger float-end">Delete</a>
        {{end}}
      </footer>
    </div>
  </div>
  {{else}}
  <p class="text-muted">Be the first to leave a tribute.</p>
  {{end}}
</section>

<section class="py-5" id="committee">
  <h2>Planning Committee</h2>
  <div class="row g-3">
    {{range .Committee}}
    <div class="col-6 col-md-3">
      <div class="card h-100 text-center">
        <div class="card-body">
          <h3 class="h6 card-title">{{.Name}}</h3>
          <p class="card-text text-muted small mb-0">{{.Role}}</p>
          {{if .Subtext}}<p class="card-text small mb-0"><em>{{.Subtext}}</em></p>{{end}}
          {{if .Phone}}<p class="card-text small mb-0">{{.Phone}}</p>{{end}}
        </div>
      </div>
    </div>
    {{end}}
  </div>
</section>

<section class="py-4 text-center bg-body-tertiary rounded" id="support">
  <h2 class="h4">Support the Send-Off</h2>
  <p class="mb-0">{{.Support.Name}}</p>
  <p class="mb-0">{{.Support.Account}} &middot; {{.Support.Bank}}</p>
  {{if .Support.Contact}}<p class="mb-0 small text-muted">Enquiries: {{.Support.Contact}}</p>{{end}}
</section>
{{end}}

{{define "footer"}}
{{if not .SignedIn}}<a class="text-muted small" href="/log-in">Committee Log In</a>{{end}}
{{end}}
`

var HomeTemplate = template.Must(template.Must(template.New("base").Parse(baseText)).Parse(homeText))
