// Package bible lists the canonical book keys cited by place verses and the
// slugs the verse lookup site expects.
package bible

import "strings"

// Book pairs an OSIS key (as it appears in place verses, e.g. "Gen.12.6")
// with the verse site's slug.
type Book struct {
	Key  string
	Slug string
}

// Version is a translation served by the verse site.
type Version string

// Supported versions.
const (
	VersionKorean Version = "kor"
	VersionKJV    Version = "kjv"
)

// DefaultVersion is used when a request omits the version.
const DefaultVersion = VersionKorean

// Valid reports whether v is a supported version.
func (v Version) Valid() bool {
	return v == VersionKorean || v == VersionKJV
}

var books = []Book{
	{"Gen", "ge"}, {"Exod", "ex"}, {"Lev", "le"}, {"Num", "nu"}, {"Deut", "de"},
	{"Josh", "jos"}, {"Judg", "jud"}, {"Ruth", "ru"}, {"1Sam", "1sa"}, {"2Sam", "2sa"},
	{"1Kgs", "1ki"}, {"2Kgs", "2ki"}, {"1Chr", "1ch"}, {"2Chr", "2ch"}, {"Ezra", "ezr"},
	{"Neh", "ne"}, {"Esth", "es"}, {"Job", "job"}, {"Ps", "ps"}, {"Prov", "pr"},
	{"Eccl", "ec"}, {"Song", "so"}, {"Isa", "isa"}, {"Jer", "jer"}, {"Lam", "la"},
	{"Ezek", "eze"}, {"Dan", "da"}, {"Hos", "ho"}, {"Joel", "joe"}, {"Amos", "am"},
	{"Obad", "ob"}, {"Jonah", "jon"}, {"Mic", "mic"}, {"Nah", "na"}, {"Hab", "hab"},
	{"Zeph", "zep"}, {"Hag", "hag"}, {"Zech", "zec"}, {"Mal", "mal"},
	{"Matt", "mat"}, {"Mark", "mar"}, {"Luke", "lu"}, {"John", "joh"}, {"Acts", "ac"},
	{"Rom", "ro"}, {"1Cor", "1co"}, {"2Cor", "2co"}, {"Gal", "ga"}, {"Eph", "eph"},
	{"Phil", "php"}, {"Col", "col"}, {"1Thess", "1th"}, {"2Thess", "2th"}, {"1Tim", "1ti"},
	{"2Tim", "2ti"}, {"Titus", "tit"}, {"Phlm", "phm"}, {"Heb", "heb"}, {"Jas", "jas"},
	{"1Pet", "1pe"}, {"2Pet", "2pe"}, {"1John", "1jo"}, {"2John", "2jo"}, {"3John", "3jo"},
	{"Jude", "jude"}, {"Rev", "re"},
}

// Books returns the 66 books in canonical order.
func Books() []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}

// Keys returns the OSIS keys in canonical order.
func Keys() []string {
	keys := make([]string, len(books))
	for i, b := range books {
		keys[i] = b.Key
	}
	return keys
}

// Lookup finds a book by key or slug, ignoring case.
func Lookup(name string) (Book, bool) {
	for _, b := range books {
		if strings.EqualFold(b.Key, name) || strings.EqualFold(b.Slug, name) {
			return b, true
		}
	}
	return Book{}, false
}

// VersePattern returns the LIKE pattern matching verses that cite the book.
func VersePattern(key string) string {
	return "%" + key + ".%"
}
