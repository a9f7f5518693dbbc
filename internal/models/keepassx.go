package models

import "encoding/xml"

const (
	// DefaultIcon is used for a group when no whole-number icon is configured
	DefaultIcon = 48
	// EntryIcon is the icon of every exported entry
	EntryIcon = 0
	// NeverExpires is the KeePassX expiry value for entries without expiry
	NeverExpires = "Never"
)

// Database is the root element of a KeePassX XML document
type Database struct {
	XMLName xml.Name `xml:"database"`
	Groups  []Group  `xml:"group"`
}

// Group holds the entries exported from one page
type Group struct {
	XMLName xml.Name `xml:"group"`
	Title   string   `xml:"title"`
	Icon    int      `xml:"icon"`
	Entries []Entry  `xml:"entry"`
}

// Entry is a single password record. Field order is fixed by KeePassX.
type Entry struct {
	Title      string  `xml:"title"`
	Username   string  `xml:"username"`
	Password   string  `xml:"password"`
	URL        string  `xml:"url"`
	Comment    Comment `xml:"comment"`
	Icon       int     `xml:"icon"`
	Creation   string  `xml:"creation"`
	LastAccess string  `xml:"lastaccess"`
	LastMod    string  `xml:"lastmod"`
	Expire     string  `xml:"expire"`
}

// Comment carries pre-escaped markup, including literal <br/> line breaks
type Comment struct {
	Inner string `xml:",innerxml"`
}
