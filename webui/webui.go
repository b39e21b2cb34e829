package webui

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tributeboard/countdown"
	"tributeboard/dbtypes"
	"tributeboard/gallery"
	"tributeboard/identity"
	"tributeboard/imagestore"
	"tributeboard/session"
	"tributeboard/siteconfig"
	"tributeboard/store"
	"tributeboard/tributegen"
	"tributeboard/tributewall"
	"tributeboard/webui/uitemplates"

	"github.com/golang/glog"
)

// maxImageBytes bounds uploaded portrait and gallery images.
const maxImageBytes = 10 << 20

type WebUI struct {
	session *session.Controller
	config  *siteconfig.Store
	wall    *tributewall.Wall
	board   *gallery.Board
	gen     *tributegen.Generator
	images  *imagestore.Store

	now func() time.Time
}

func New(sess *session.Controller, config *siteconfig.Store, wall *tributewall.Wall, board *gallery.Board, gen *tributegen.Generator, images *imagestore.Store) *WebUI {
	return &WebUI{
		session: sess,
		config:  config,
		wall:    wall,
		board:   board,
		gen:     gen,
		images:  images,
		now:     time.Now,
	}
}

func (u *WebUI) Register(m *http.ServeMux) {
	m.HandleFunc("/", u.homeHandler)
	m.HandleFunc("/log-in", u.logInHandler)
	m.HandleFunc("/log-out", u.logOutHandler)
	m.HandleFunc("/retry", u.retryHandler)
	m.HandleFunc("/submit-tribute", u.submitTributeHandler)
	m.HandleFunc("/generate-tribute", u.generateTributeHandler)
	m.HandleFunc("/delete-tribute", u.deleteTributeHandler)
	m.HandleFunc("/add-gallery-entry", u.addGalleryEntryHandler)
	m.HandleFunc("/delete-gallery-entry", u.deleteGalleryEntryHandler)
	m.HandleFunc("/save-config", u.saveConfigHandler)
	m.HandleFunc("/update-portrait", u.updatePortraitHandler)
}

func (u *WebUI) render(w http.ResponseWriter, tmpl *template.Template, params any) {
	content := bytes.Buffer{}
	if err := tmpl.Execute(&content, params); err != nil {
		glog.Errorf("Error while executing template: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	if _, err := io.Copy(w, &content); err != nil {
		// It's too late to write an error to the HTTP response.
		glog.Errorf("Error while writing output: %v", err)
		return
	}
}

// homeParams assembles the full page state from the live stores.
func (u *WebUI) homeParams(userError string, posted bool, draft *uitemplates.TributeDraftParams) *uitemplates.HomeParams {
	snap := u.session.Current()
	cfg := u.config.Current()

	params := &uitemplates.HomeParams{
		Admin:    snap.Privileged,
		SignedIn: snap.Privileged,

		HeroQuote:      cfg.HeroQuote,
		ProfilePicture: cfg.ProfilePicture,
		RetirementDate: cfg.RetirementDate,

		Categories:     append([]string{dbtypes.CategoryAll}, dbtypes.GalleryCategories...),
		ActiveCategory: u.board.Filter(),

		TributePosted:   posted,
		TributesBlocked: u.wall.PermissionDenied(),

		UserError: userError,
	}

	if snap.State == session.ConnectivityError {
		params.Connectivity.Degraded = true
		if err := u.session.ConnectivityErr(); err != nil {
			params.Connectivity.Detail = err.Error()
		}
	}

	remaining, err := countdown.Until(cfg.RetirementDate, u.now())
	if err != nil {
		glog.Warningf("Unparseable retirement date %q: %v", cfg.RetirementDate, err)
	}
	params.Countdown = uitemplates.CountdownParams{
		Days:    remaining.Days,
		Hours:   remaining.Hours,
		Minutes: remaining.Minutes,
		Seconds: remaining.Seconds,
	}

	for _, m := range dbtypes.Committee {
		params.Committee = append(params.Committee, uitemplates.CommitteeParams{
			Name:    m.Name,
			Role:    m.Role,
			Subtext: m.Subtext,
			Phone:   m.Phone,
		})
	}
	params.Support = uitemplates.SupportParams{
		Name:    dbtypes.Support.Name,
		Account: dbtypes.Support.Account,
		Bank:    dbtypes.Support.Bank,
		Contact: dbtypes.Support.Contact,
	}

	for _, e := range u.board.Entries() {
		ep := uitemplates.GalleryEntryParams{
			ID:       e.ID,
			ImageURL: e.ImageURL,
			Caption:  e.Caption,
			Category: e.Category,
		}
		if snap.Privileged {
			ep.DeleteLink = "/delete-gallery-entry?id=" + url.QueryEscape(e.ID)
		}
		params.Gallery = append(params.Gallery, ep)
	}

	for _, t := range u.wall.Tributes() {
		tp := uitemplates.TributeParams{
			ID:           t.ID,
			Name:         t.Name,
			Relationship: t.Relationship,
			Message:      t.Message,
			Date:         t.Date,
		}
		if snap.Privileged {
			tp.DeleteLink = "/delete-tribute?id=" + url.QueryEscape(t.ID)
		}
		params.Tributes = append(params.Tributes, tp)
	}

	if draft != nil {
		params.Draft = *draft
	} else {
		d := u.wall.Draft()
		params.Draft = uitemplates.TributeDraftParams{
			Name:         d.Name,
			Relationship: d.Relationship,
			Message:      d.Message,
		}
	}

	return params
}

// homeHandler renders the single page.  The gallery category filter and
// post-redirect flags arrive as query parameters.
func (u *WebUI) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		u.board.SetFilter(category)
	}

	userError := r.URL.Query().Get("user-error")
	posted := r.URL.Query().Get("posted") == "1"

	u.render(w, uitemplates.HomeTemplate, u.homeParams(userError, posted, nil))
}

func (u *WebUI) logInHandler(w http.ResponseWriter, r *http.Request) {
	if u.session.Privileged() {
		// Already signed in.  Send them back home.
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			glog.Errorf("Error while parsing form: %v", err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}

		err := u.session.SignIn(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
		if err == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		userError := "Could not reach the sign-in service. Check your connection and try again."
		if errors.Is(err, identity.ErrInvalidCredentials) {
			userError = "Security clearance required. The email or password is incorrect."
		} else {
			glog.Errorf("Error while signing in: %v", err)
		}

		u.render(w, uitemplates.LogInTemplate, &uitemplates.LogInParams{UserError: userError})
		return
	}

	u.render(w, uitemplates.LogInTemplate, &uitemplates.LogInParams{})
}

func (u *WebUI) logOutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := u.session.SignOut(r.Context()); err != nil {
		glog.Errorf("Error while signing out: %v", err)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (u *WebUI) retryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	u.session.RetryConnectivity(r.Context())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (u *WebUI) submitTributeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		glog.Errorf("Error while parsing form: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	err := u.wall.Submit(r.Context(), r.PostForm.Get("name"), r.PostForm.Get("relationship"), r.PostForm.Get("message"))
	if err != nil {
		redirectUserError(w, r, "#tributes", userMessage(err))
		return
	}

	http.Redirect(w, r, "/?posted=1#tributes", http.StatusFound)
}

// generateTributeHandler drafts a tribute with the configured text model and
// re-renders the form with the result, leaving the visitor free to edit it
// before posting.
func (u *WebUI) generateTributeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		glog.Errorf("Error while parsing form: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	name := r.PostForm.Get("name")
	relationship := r.PostForm.Get("relationship")
	message := u.gen.GenerateTribute(r.Context(), name, relationship, r.PostForm.Get("message"))

	draft := &uitemplates.TributeDraftParams{
		Name:         name,
		Relationship: relationship,
		Message:      message,
	}
	u.render(w, uitemplates.HomeTemplate, u.homeParams("", false, draft))
}

func (u *WebUI) deleteTributeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			glog.Errorf("Error while parsing form: %v", err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}

		err := u.wall.Delete(r.Context(), r.PostForm.Get("id"), r.PostForm.Get("confirmed") == "1")
		if err != nil {
			redirectUserError(w, r, "#tributes", userMessage(err))
			return
		}

		http.Redirect(w, r, "/#tributes", http.StatusFound)
		return
	}

	id := r.URL.Query().Get("id")
	detail := "this tribute"
	for _, t := range u.wall.Tributes() {
		if t.ID == id {
			detail = fmt.Sprintf("%q by %s", t.Message, t.Name)
			break
		}
	}

	u.render(w, uitemplates.ConfirmDeleteTemplate, &uitemplates.ConfirmDeleteParams{
		What:       "tribute",
		Detail:     detail,
		ActionLink: "/delete-tribute",
		ID:         id,
	})
}

func (u *WebUI) deleteGalleryEntryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			glog.Errorf("Error while parsing form: %v", err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}

		err := u.board.DeleteEntry(r.Context(), r.PostForm.Get("id"), r.PostForm.Get("confirmed") == "1")
		if err != nil {
			redirectUserError(w, r, "#gallery", userMessage(err))
			return
		}

		http.Redirect(w, r, "/#gallery", http.StatusFound)
		return
	}

	id := r.URL.Query().Get("id")
	detail := "this photograph"
	for _, e := range u.board.Entries() {
		if e.ID == id {
			detail = e.Caption
			break
		}
	}

	u.render(w, uitemplates.ConfirmDeleteTemplate, &uitemplates.ConfirmDeleteParams{
		What:       "photograph",
		Detail:     detail,
		ActionLink: "/delete-gallery-entry",
		ID:         id,
	})
}

// readImage pulls one uploaded image out of a multipart form.
func readImage(r *http.Request, field string) (name, contentType string, data []byte, err error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return "", "", nil, fmt.Errorf("while parsing multipart form: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", nil, fmt.Errorf("while reading form file %q: %w", field, err)
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		return "", "", nil, fmt.Errorf("while reading image bytes: %w", err)
	}

	return header.Filename, header.Header.Get("Content-Type"), data, nil
}

func (u *WebUI) addGalleryEntryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	name, contentType, data, err := readImage(r, "image")
	if err != nil {
		glog.Errorf("Error while reading gallery image: %v", err)
		redirectUserError(w, r, "#gallery", "The image could not be read. Try a different file.")
		return
	}

	caption := r.PostForm.Get("caption")
	category := r.PostForm.Get("category")

	// Validate the entry before placing the image, so a rejected entry
	// never leaves an orphaned image behind.
	if strings.TrimSpace(caption) == "" {
		redirectUserError(w, r, "#gallery", userMessage(gallery.ErrCaptionMustNotBeEmpty))
		return
	}
	if !dbtypes.ValidCategory(category) {
		redirectUserError(w, r, "#gallery", userMessage(gallery.ErrUnknownCategory))
		return
	}

	// The image must be fully placed before the entry that references it
	// is written.
	imageURL, err := u.images.Put(ctx, name, contentType, data)
	if err != nil {
		glog.Errorf("Error while placing gallery image: %v", err)
		redirectUserError(w, r, "#gallery", "The image could not be stored. Try again.")
		return
	}

	if err := u.board.CreateEntry(ctx, imageURL, caption, category); err != nil {
		redirectUserError(w, r, "#gallery", userMessage(err))
		return
	}

	http.Redirect(w, r, "/#gallery", http.StatusFound)
}

func (u *WebUI) saveConfigHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if !u.session.Privileged() {
		redirectUserError(w, r, "", "Only committee members may change site settings.")
		return
	}

	if err := r.ParseForm(); err != nil {
		glog.Errorf("Error while parsing form: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	quote := r.PostForm.Get("quote")
	date := r.PostForm.Get("date")
	patch := siteconfig.Patch{
		HeroQuote:      &quote,
		RetirementDate: &date,
	}

	if err := u.config.Save(r.Context(), patch); err != nil {
		redirectUserError(w, r, "", userMessage(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (u *WebUI) updatePortraitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if !u.session.Privileged() {
		redirectUserError(w, r, "", "Only committee members may change the portrait.")
		return
	}

	name, contentType, data, err := readImage(r, "portrait")
	if err != nil {
		glog.Errorf("Error while reading portrait image: %v", err)
		redirectUserError(w, r, "", "The image could not be read. Try a different file.")
		return
	}

	imageURL, err := u.images.Put(ctx, name, contentType, data)
	if err != nil {
		glog.Errorf("Error while placing portrait image: %v", err)
		redirectUserError(w, r, "", "The image could not be stored. Try again.")
		return
	}

	if err := u.config.Save(ctx, siteconfig.Patch{ProfilePicture: &imageURL}); err != nil {
		redirectUserError(w, r, "", userMessage(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// redirectUserError sends the visitor back to the page with a displayable
// error message.
func redirectUserError(w http.ResponseWriter, r *http.Request, fragment, message string) {
	http.Redirect(w, r, "/?user-error="+url.QueryEscape(message)+fragment, http.StatusFound)
}

// userMessage maps an operation error to a message fit for the page.  Errors
// without a specific mapping fall through to a generic connectivity message.
func userMessage(err error) string {
	switch {
	case errors.Is(err, tributewall.ErrNameMustNotBeEmpty):
		return "Please enter your name."
	case errors.Is(err, tributewall.ErrRelationshipMustNotBeEmpty):
		return "Please describe your relationship."
	case errors.Is(err, tributewall.ErrMessageMustNotBeEmpty):
		return "Please write a tribute message."
	case errors.Is(err, tributewall.ErrNoActiveSession):
		return "Still connecting to the archive service. Try again in a moment."
	case errors.Is(err, tributewall.ErrNotAuthorized), errors.Is(err, gallery.ErrNotAuthorized):
		return "Only committee members may do that."
	case errors.Is(err, tributewall.ErrDeleteNotConfirmed), errors.Is(err, gallery.ErrDeleteNotConfirmed):
		return "Deletion was not confirmed."
	case errors.Is(err, gallery.ErrCaptionMustNotBeEmpty):
		return "A description is required for every photograph."
	case errors.Is(err, gallery.ErrUnknownCategory):
		return "Choose one of the listed categories."
	case errors.Is(err, siteconfig.ErrInvalidDate):
		return "The retirement date must be a valid calendar date."
	case errors.Is(err, siteconfig.ErrSaveInFlight):
		return "A save is already in progress. Try again in a moment."
	}

	switch store.Classify(err) {
	case store.KindPermissionDenied:
		return "The archive service refused the request. Make sure you are signed in."
	case store.KindUnavailable:
		return "Failed to reach the archive service. Check your connection and try again."
	}

	return "Something went wrong. Try again."
}
