package sanitizer

// Elements that never belong in an article body.
//
//nolint:gochecknoglobals // static lookup table
var noiseSelectors = []string{
	"script", "style", "noscript", "meta", "link", "head",
	"nav", "header", "footer", "aside",
	"table.infobox", "table[class*='infobox']", "table.sidebar", "table.metadata",
	"div.navbox", "div[class*='navbox']", "div.hatnote", "div.dablink",
	"div.ambox", "table.ambox", "div.mbox-small", "div.sistersitebox",
	"div.reflist", "div[class*='reflist']", "section[class*='reflist']",
	"ol.references", "div.refbegin", "sup.reference",
	"span.mw-editsection", "div.printfooter", "div.catlinks",
	"div#toc", "div.toc", "div.toccolours", "#mw-navigation",
	"div.thumb", "div.thumbinner", "div.thumbcaption",
	"div.gallery", "ul.gallery", "div.gallerybox", "div.gallerytext",
	"img", "figure", "audio", "video", "picture",
}

// Trailing sections dropped together with their content.
//
//nolint:gochecknoglobals // static lookup table
var trailingSections = map[string]bool{
	"see also":        true,
	"references":      true,
	"notes":           true,
	"external links":  true,
	"further reading": true,
}

// Link targets that point at media rather than text.
//
//nolint:gochecknoglobals // static lookup table
var mediaLinkPrefixes = []string{
	"/wiki/file:",
	"/wiki/image:",
	"/wiki/media:",
}
