// Package chunk splits documents into passages small enough to embed.
//
// Text works on plain text: paragraph boundaries first, sentence
// boundaries second, hard rune-safe cuts only for single sentences
// beyond the budget. Markdown slices at heading boundaries first, then
// applies the same constraints inside each section.
package chunk
