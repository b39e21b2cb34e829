// Package dbtypes declares the document types stored in the remote
// collections, plus the fixed site data the presentation layer composes
// around them.
package dbtypes

import (
	"fmt"
	"time"
)

// Collection and document keys.
const (
	CollectionTributes = "achievements"
	CollectionGallery  = "gallery"
	CollectionConfig   = "config"
	KeySiteSettings    = "site_settings"
)

// Defaults used when the site_settings document does not exist yet.  It is
// created lazily on the first admin write.
const (
	DefaultHeroQuote      = "Leadership is about impact, influence, and inspiration. Service is the ultimate expression of that impact."
	DefaultRetirementDate = "2026-04-30"
	DefaultProfilePicture = "https://images.unsplash.com/photo-1560250097-0b93528c311a?auto=format&fit=crop&q=80&w=600"
)

// CategoryAll is the filter sentinel meaning "no category filter".  It is
// never a valid category for a stored entry.
const CategoryAll = "All"

// GalleryCategories is the fixed category set for gallery entries.
var GalleryCategories = []string{
	"Official Duties",
	"Camp Activities",
	"Others",
}

// ValidCategory reports whether c is a member of the fixed category set.
func ValidCategory(c string) bool {
	for _, gc := range GalleryCategories {
		if gc == c {
			return true
		}
	}
	return false
}

// SiteConfig is the singleton site configuration document.
type SiteConfig struct {
	HeroQuote      string `firestore:"heroQuote"`
	RetirementDate string `firestore:"retirementDate"`
	ProfilePicture string `firestore:"profilePic"`
}

// DefaultSiteConfig returns the configuration implied by an absent
// site_settings document.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		HeroQuote:      DefaultHeroQuote,
		RetirementDate: DefaultRetirementDate,
		ProfilePicture: DefaultProfilePicture,
	}
}

// Tribute is one guestbook message.  SubmittedAt is assigned by the store at
// write time and is used only for ordering.
type Tribute struct {
	ID           string    `firestore:"-"`
	Name         string    `firestore:"name"`
	Relationship string    `firestore:"relationship"`
	Message      string    `firestore:"message"`
	Date         string    `firestore:"date"`
	SubmittedAt  time.Time `firestore:"timestamp"`
}

// GalleryEntry is one photo in the archival gallery.
type GalleryEntry struct {
	ID          string    `firestore:"-"`
	ImageURL    string    `firestore:"url"`
	Caption     string    `firestore:"caption"`
	Category    string    `firestore:"category"`
	SubmittedAt time.Time `firestore:"timestamp"`
}

// CommitteeMember is an entry in the planning committee roster.
type CommitteeMember struct {
	Name    string
	Role    string
	Subtext string
	Phone   string
}

// Committee is the planning and organizing committee roster.
var Committee = []CommitteeMember{
	{Name: "Alh. Ibrahim Abdu Muhammad", Role: "Director, HRM", Subtext: "Chairman"},
	{Name: "Nura Umar", Role: "Director, PRS", Subtext: "Co-Chairman"},
	{Name: "Mrs Yetunde Baderinwa", Role: "Ag. Director, General Services", Subtext: "Co-Chairman"},
	{Name: "Alh. Abdullahi Illo", Role: "Deputy Director (Mob)", Subtext: "Project Coordinator", Phone: "08036713816"},
}

// SupportInfo carries the registry/support account details shown on the page.
type SupportInfo struct {
	Name    string
	Bank    string
	Account string
	Contact string
}

var Support = SupportInfo{
	Name:    "Idris Dangalan",
	Bank:    "Zenith Bank PLC",
	Account: "4235555188",
	Contact: "09028743008",
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func timeField(fields map[string]any, key string) time.Time {
	if v, ok := fields[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// TributeFromFields decodes a tribute document.
func TributeFromFields(id string, fields map[string]any) (Tribute, error) {
	if id == "" {
		return Tribute{}, fmt.Errorf("tribute document has empty id")
	}
	return Tribute{
		ID:           id,
		Name:         stringField(fields, "name"),
		Relationship: stringField(fields, "relationship"),
		Message:      stringField(fields, "message"),
		Date:         stringField(fields, "date"),
		SubmittedAt:  timeField(fields, "timestamp"),
	}, nil
}

// GalleryEntryFromFields decodes a gallery document.
func GalleryEntryFromFields(id string, fields map[string]any) (GalleryEntry, error) {
	if id == "" {
		return GalleryEntry{}, fmt.Errorf("gallery document has empty id")
	}
	return GalleryEntry{
		ID:          id,
		ImageURL:    stringField(fields, "url"),
		Caption:     stringField(fields, "caption"),
		Category:    stringField(fields, "category"),
		SubmittedAt: timeField(fields, "timestamp"),
	}, nil
}

// SiteConfigFromFields decodes the site_settings document, filling missing
// fields from the defaults.
func SiteConfigFromFields(fields map[string]any) SiteConfig {
	cfg := DefaultSiteConfig()
	if v := stringField(fields, "heroQuote"); v != "" {
		cfg.HeroQuote = v
	}
	if v := stringField(fields, "retirementDate"); v != "" {
		cfg.RetirementDate = v
	}
	if v := stringField(fields, "profilePic"); v != "" {
		cfg.ProfilePicture = v
	}
	return cfg
}
