package models

import "time"

// TimestampLayout is the format used for created_on/last_modified values.
// Values in this layout compare identically as strings and as times, which is
// what last-write-wins sync relies on.
const TimestampLayout = "2006-01-02 15:04:05"

// NowTimestamp returns the current UTC time in TimestampLayout.
func NowTimestamp() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// Credential is one stored login. EncryptedPassword holds the URL-safe base64
// envelope produced by cryptox.Encrypt, stored as raw bytes. ID is a
// client-generated UUID and is the join key for sync: it is globally unique
// and stable across the local and remote copies.
type Credential struct {
	ID                string
	UserID            string
	Website           string
	LoginUsername     string
	EncryptedPassword []byte
	CreatedOn         string
	LastModified      string
	Category          string
	Favorite          bool
	Syncable          bool
}

// CredentialView is a decrypted listing row. When the stored envelope cannot
// be decrypted (wrong key, corrupted row) the row is still returned with
// DecryptFailed set and Password empty, so one bad row never aborts a listing.
type CredentialView struct {
	ID            string
	Website       string
	LoginUsername string
	Password      string
	DecryptFailed bool
	CreatedOn     string
	LastModified  string
	Category      string
	Favorite      bool
	Syncable      bool
}

// CategoryWebsite pairs a credential's category with its website, used by the
// category overview screen.
type CategoryWebsite struct {
	Category string
	Website  string
}

// Fixed category enumeration.
const (
	CategoryWebsites = "Websites"
	CategoryGames    = "Games"
	CategoryBanks    = "Banks"
	CategoryWork     = "Work"
	CategorySocials  = "Socials"
	CategoryEmail    = "Email"
	CategoryShopping = "Shopping"
	CategoryPersonal = "Personal"
	CategoryOther    = "Other"
)

// Pseudo-categories accepted by listing filters.
const (
	FilterAll       = "All"
	FilterFavorites = "Favorites"
)

// Categories lists the fixed category enumeration in display order.
func Categories() []string {
	return []string{
		CategoryWebsites, CategoryGames, CategoryBanks, CategoryWork,
		CategorySocials, CategoryEmail, CategoryShopping, CategoryPersonal,
		CategoryOther,
	}
}
