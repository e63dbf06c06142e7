package extractor_test

import (
	"net/url"
	"testing"

	"github.com/rohmanhakim/wiki-crawler/internal/extractor"
	"github.com/rohmanhakim/wiki-crawler/internal/metadata"
	"github.com/stretchr/testify/require"
)

const categoryHTML = `<!DOCTYPE html>
<html><head><title>Category:Singapore - Wikipedia</title></head>
<body>
<h1 id="firstHeading">Category:Singapore</h1>
<div id="mw-content-text">
  <div class="mw-parser-output"><p>This category covers Singapore.</p></div>
  <div id="mw-subcategories">
    <h2>Subcategories</h2>
    <ul>
      <li><a href="/wiki/Category:Culture_of_Singapore">Culture of Singapore</a></li>
      <li><a href="/wiki/Category:Economy_of_Singapore">Economy of Singapore</a></li>
      <li><a href="/wiki/Category:Culture_of_Singapore#top">Culture again</a></li>
    </ul>
  </div>
  <div class="CategoryTreeTag">
    <a href="https://en.wikipedia.org/wiki/Category:History_of_Singapore">History</a>
  </div>
  <div id="mw-pages">
    <h2>Pages in category "Singapore"</h2>
    <ul>
      <li><a href="/wiki/Singapore">Singapore</a></li>
      <li><a href="/wiki/Merlion">Merlion</a></li>
      <li><a href="/wiki/Template:Singapore_topics">Template</a></li>
      <li><a href="/wiki/File:Flag_of_Singapore.svg">Flag</a></li>
      <li><a href="https://example.org/wiki/Elsewhere">Elsewhere</a></li>
      <li><a href="/w/index.php?title=Category:Singapore&amp;pagefrom=Z">next page</a></li>
      <li><a href="#mw-pages">self</a></li>
      <li><a href="/wiki/Merlion">Merlion duplicate</a></li>
    </ul>
  </div>
</div>
</body></html>`

const articleHTML = `<!DOCTYPE html>
<html><head><title>Merlion - Wikipedia</title></head>
<body>
<nav><a href="/wiki/Main_Page">Main page</a></nav>
<h1 id="firstHeading">Merlion</h1>
<div id="bodyContent">
  <div id="mw-content-text">
    <div class="mw-parser-output">
      <p>The <b>Merlion</b> is the official mascot of Singapore.<sup>[1]</sup></p>
      <h2>History</h2>
      <p>It was designed by Alec Fraser-Brunner for the Singapore Tourism Board in 1964.</p>
    </div>
  </div>
</div>
</body></html>`

func newExtractor() extractor.DomExtractor {
	return extractor.NewDomExtractor(&metadata.NoopSink{})
}

func mustURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}
