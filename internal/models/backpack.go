package models

// Page represents a page in the notes service
type Page struct {
	ID    string
	Title string
	Notes []Note // Empty when only the page listing has been fetched
}

// Note represents a note within a page
type Note struct {
	Title     string
	Content   string
	CreatedAt string // As reported by the service, e.g. "2009-01-01 12:00:00"
}

// PageRequest asks for one page to be exported as a group
type PageRequest struct {
	Pattern string
	Icon    int
}
