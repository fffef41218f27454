// Package pipeline implements the text stages of a conversion job.
//
// Stages, in the order a job runs them:
//   - front matter split and line normalization of the Markdown source
//   - Markdown to HTML fragment rendering via goldmark, with a pluggable
//     fenced-code highlight hook
//   - binding the fragment into the document skeleton with the theme
//   - finalizing the static tree: scripts and stylesheet links removed, CSS
//     inlined per element
//
// Browser work (typesetting, screenshots) happens between Bind and Finalize
// in the render and embed packages.
package pipeline
