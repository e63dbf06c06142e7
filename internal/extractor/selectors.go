package extractor

// MediaWiki article body containers in priority order.
//
//nolint:gochecknoglobals // static lookup table
var wikiContainerSelectors = []string{
	"#mw-content-text .mw-parser-output",
	".mw-parser-output",
	"#mw-content-text",
	"#bodyContent",
}

// Generic containers for mirrors and odd skins. They must pass isMeaningful.
//
//nolint:gochecknoglobals // static lookup table
var semanticContainerSelectors = []string{
	"main",
	"article",
}

// Elements whose presence marks a category listing.
//
//nolint:gochecknoglobals // static lookup table
var categoryMarkerSelectors = []string{
	"#mw-subcategories",
	"#mw-pages",
	"#mw-category-media",
	".CategoryTreeTag",
}

// Containers holding links to child categories.
//
//nolint:gochecknoglobals // static lookup table
var subcategorySelectors = []string{
	"#mw-subcategories",
	".CategoryTreeTag",
}

// Containers holding links to member articles.
//
//nolint:gochecknoglobals // static lookup table
var articleListSelectors = []string{
	"#mw-pages",
}

// Namespaces that never hold articles.
//
//nolint:gochecknoglobals // static lookup table
var nonArticleNamespaces = []string{
	"Category:",
	"Special:",
	"Help:",
	"Template:",
	"Template_talk:",
	"User:",
	"User_talk:",
	"Talk:",
	"File:",
	"Image:",
	"Media:",
	"Wikipedia:",
	"Portal:",
	"Module:",
	"Draft:",
}

// Localized prefixes stripped from category headings.
//
//nolint:gochecknoglobals // static lookup table
var categoryTitlePrefixes = []string{
	"Category:",
	"分类:",
	"分類:",
}
