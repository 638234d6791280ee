// Package extract turns raw HTML into structured page content: body
// text, title, description, keywords, outbound links, and image URLs.
//
// Body text extraction runs a chain of strategies. The readability
// article detector goes first and wins when it produces enough text;
// otherwise a structural scan prunes boilerplate, locates the main
// content subtree, and renders it block by block. Both strategies
// preserve code blocks as fenced regions with a detected language
// hint, so crawled documentation keeps its examples intact.
package extract
