// Package python provides the pip, pipenv and poetry adapters.
//
// pip enumerates through an embedded helper script run with the project's
// interpreter; pipenv and poetry read their lockfiles directly. All three
// use PyPI for enrichment.
package python
